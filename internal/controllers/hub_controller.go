package controllers

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"regenwasi/internal/gateways"
	"regenwasi/internal/guardian"
	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
	"regenwasi/internal/structures"
)

type HubController struct {
	conf      *structures.Config
	logger    providers.Logger
	service   services.PetServiceInterface
	hub       gateways.HubGatewayInterface
	cache     providers.CacheProviderInterface
	autosaver interfaces.AutosaverInterface
	auth      providers.AuthProviderInterface
	metrics   providers.MetricsProviderInterface
}

func NewHubController(conf *structures.Config, logger providers.Logger, service services.PetServiceInterface, hub gateways.HubGatewayInterface, cache providers.CacheProviderInterface, autosaver interfaces.AutosaverInterface, auth providers.AuthProviderInterface, metrics providers.MetricsProviderInterface) *HubController {
	return &HubController{
		conf:      conf,
		logger:    logger,
		service:   service,
		hub:       hub,
		cache:     cache,
		autosaver: autosaver,
		auth:      auth,
		metrics:   metrics,
	}
}

type HubRegisterBody struct {
	OwnerName  string `json:"owner_name" validate:"required|maxLen:50"`
	OwnerEmail string `json:"owner_email"`
	Sprite     string `json:"sprite"`
}

type HubGiftBody struct {
	TargetID string `json:"target_id" validate:"required"`
	Amount   int    `json:"amount" validate:"required|min:1"`
}

type HubTargetBody struct {
	TargetID string `json:"target_id" validate:"required"`
}

type HubMessageBody struct {
	TargetID string `json:"target_id" validate:"required"`
	Message  string `json:"message" validate:"required|maxLen:280"`
}

func (hc *HubController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := hc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		hc.logger.Warnf(providers.TypeGet, "Hub call failed: %s", err)
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	hc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (hc *HubController) Register(w http.ResponseWriter, r *http.Request) {
	var req HubRegisterBody
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := hc.auth.ResolveUserID(r)
	pet, ok := hc.service.PeekPet(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}
	if _, registered := hc.service.HubRegistration(userID); registered {
		writeError(w, http.StatusConflict, "Ya estás registrado en el HUB")
		return
	}

	resp, err := hc.hub.Register(r.Context(), gateways.HubRegisterRequest{
		Name:       pet.Name,
		OwnerName:  req.OwnerName,
		OwnerEmail: req.OwnerEmail,
		AppURL:     hc.conf.Hub.AppURL,
		Sprite:     req.Sprite,
	})
	if err != nil {
		hc.logger.Warnf(providers.TypePost, "Hub registration failed: %s", err)
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}

	hc.service.PutHubRegistration(userID, resp.Data.ID)
	hc.autosaver.Request()
	writeJSON(w, http.StatusCreated, map[string]string{"hub_id": resp.Data.ID})
}

// Sync pushes the caller's pet to the HUB on demand; the scheduler does the
// same periodically for all registered pets.
func (hc *HubController) Sync(w http.ResponseWriter, r *http.Request) {
	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}
	pet, ok := hc.service.PeekPet(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}

	resp, err := hc.hub.Sync(r.Context(), guardian.BuildSyncRequest(hubID, pet))
	if err != nil {
		// Sync is fire-and-forget: the retry already happened inside the
		// gateway, further failure stays a transient notice.
		hc.logger.Debugf(providers.TypePost, "Hub sync failed: %s", err)
		writeJSON(w, http.StatusOK, map[string]bool{"synced": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": true, "balance": resp.Data.Balance})
}

func (hc *HubController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := cast.ToInt(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}
	stage := r.URL.Query().Get("stage")

	cacheKey := "leaderboard:" + cast.ToString(page) + ":" + cast.ToString(limit) + ":" + stage
	hc.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		return hc.hub.Leaderboard(r.Context(), page, limit, stage)
	})
}

// Profile is a public deep link: any opaque HUB id can be viewed without a
// session of its own.
func (hc *HubController) Profile(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing id")
		return
	}
	hc.serveFromCacheOrCompute(w, "profile:"+id, func() (any, error) {
		return hc.hub.Profile(r.Context(), id)
	})
}

func (hc *HubController) Feed(w http.ResponseWriter, r *http.Request) {
	var req HubTargetBody
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}

	raw, err := hc.hub.Feed(r.Context(), req.TargetID, hubID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}
	hc.cache.Del("profile:" + req.TargetID)
	writeRaw(w, raw)
}

func (hc *HubController) Gift(w http.ResponseWriter, r *http.Request) {
	var req HubGiftBody
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}

	// The gift is backed by local balance: spend first, the availability
	// check keeps the ledger consistent.
	if err := hc.service.Spend(userID, req.Amount, "Regalo a otro Guardián", time.Now()); err != nil {
		serviceError(w, err)
		return
	}
	hc.metrics.IncFruitSpent(req.Amount)

	raw, err := hc.hub.Gift(r.Context(), req.TargetID, hubID, req.Amount)
	if err != nil {
		// Refund through the ledger so balance = earned - spent still holds.
		_ = hc.service.Earn(userID, req.Amount, "other", "Reembolso de regalo", time.Now())
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}
	hc.autosaver.Request()
	hc.cache.Del("profile:" + req.TargetID)
	writeRaw(w, raw)
}

func (hc *HubController) Messages(w http.ResponseWriter, r *http.Request) {
	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}

	raw, err := hc.hub.Messages(r.Context(), hubID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}
	writeRaw(w, raw)
}

func (hc *HubController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req HubMessageBody
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}
	pet, ok := hc.service.PeekPet(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}

	raw, err := hc.hub.SendMessage(r.Context(), req.TargetID, hubID, pet.Name, req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, "El HUB no responde, intenta de nuevo")
		return
	}
	writeRaw(w, raw)
}

func (hc *HubController) Activity(w http.ResponseWriter, r *http.Request) {
	userID := hc.auth.ResolveUserID(r)
	hubID, registered := hc.service.HubRegistration(userID)
	if !registered {
		writeError(w, http.StatusConflict, "Regístrate en el HUB primero")
		return
	}
	hc.serveFromCacheOrCompute(w, "activity:"+hubID, func() (any, error) {
		return hc.hub.Activity(r.Context(), hubID)
	})
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
