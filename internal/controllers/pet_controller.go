package controllers

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type PetController struct {
	logger    providers.Logger
	service   services.PetServiceInterface
	autosaver interfaces.AutosaverInterface
	auth      providers.AuthProviderInterface
	metrics   providers.MetricsProviderInterface
}

func NewPetController(logger providers.Logger, service services.PetServiceInterface, autosaver interfaces.AutosaverInterface, auth providers.AuthProviderInterface, metrics providers.MetricsProviderInterface) *PetController {
	return &PetController{
		logger:    logger,
		service:   service,
		autosaver: autosaver,
		auth:      auth,
		metrics:   metrics,
	}
}

type AdoptRequest struct {
	Name   string `json:"name" validate:"required|minLen:3|maxLen:15|regex:^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ0-9 ]+$" message:"regex:El nombre solo puede contener letras, números y espacios"`
	Animal string `json:"animal" validate:"required"`
}

type ActionRequest struct {
	Stat string `json:"stat" validate:"required|in:vitality,energy,nutrition"`
}

type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return false
	}
	return true
}

// decodeLarge is for endpoints that set their own body size limit.
func decodeLarge(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func validateStruct(w http.ResponseWriter, req any) bool {
	v := validate.Struct(req)
	if !v.Validate() {
		writeError(w, http.StatusUnprocessableEntity, v.Errors.One())
		return false
	}
	return true
}

func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoPet):
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
	case errors.Is(err, services.ErrPetExists):
		writeError(w, http.StatusConflict, "Ya tienes un Guardián")
	case errors.Is(err, services.ErrInsufficientFruit):
		writeError(w, http.StatusConflict, "No tienes suficientes $FRUTA")
	case errors.Is(err, services.ErrNutritionFull):
		writeError(w, http.StatusConflict, "Tu Guardián ya está satisfecho")
	case errors.Is(err, services.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "Entrenamiento no encontrado")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (pc *PetController) Adopt(w http.ResponseWriter, r *http.Request) {
	var req AdoptRequest
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := pc.auth.ResolveUserID(r)
	pet, err := pc.service.Adopt(userID, req.Name, models.AnimalKind(req.Animal), time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}

	pc.logger.Infof(providers.TypePost, "Pet %q (%s) adopted by %s", pet.Name, pet.AnimalKind, userID)
	pc.metrics.IncActions("adopt")
	pc.autosaver.Request()
	writeJSON(w, http.StatusCreated, pet)
}

func (pc *PetController) GetState(w http.ResponseWriter, r *http.Request) {
	userID := pc.auth.ResolveUserID(r)
	pet, ok := pc.service.Get(userID, time.Now())
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (pc *PetController) Action(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := pc.auth.ResolveUserID(r)
	pet, err := pc.service.Interact(userID, req.Stat, time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}

	pc.metrics.IncActions(req.Stat)
	pc.autosaver.Request()
	writeJSON(w, http.StatusOK, pet)
}

func (pc *PetController) Feed(w http.ResponseWriter, r *http.Request) {
	userID := pc.auth.ResolveUserID(r)
	pet, err := pc.service.Feed(userID, time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}

	pc.metrics.IncActions("feed")
	pc.metrics.IncFruitSpent(10)
	pc.autosaver.Request()
	writeJSON(w, http.StatusOK, pet)
}

func (pc *PetController) Reset(w http.ResponseWriter, r *http.Request) {
	userID := pc.auth.ResolveUserID(r)
	pc.service.Reset(userID)
	pc.logger.Infof(providers.TypePost, "Pet reset for %s", userID)
	pc.autosaver.Request()
	w.WriteHeader(http.StatusNoContent)
}

// Claim migrates a guest record to the authenticated identity. The guest
// record never clobbers an existing authenticated pet.
func (pc *PetController) Claim(w http.ResponseWriter, r *http.Request) {
	if !pc.auth.IsAuthenticated(r) {
		writeError(w, http.StatusUnauthorized, "Identidad requerida")
		return
	}

	userID := pc.auth.ResolveUserID(r)
	migrated := pc.service.MigrateGuest(userID)
	if migrated {
		pc.logger.Infof(providers.TypePost, "Guest record migrated to %s", userID)
	}
	pc.autosaver.Request()
	writeJSON(w, http.StatusOK, map[string]bool{"migrated": migrated})
}

func (pc *PetController) Activity(w http.ResponseWriter, r *http.Request) {
	userID := pc.auth.ResolveUserID(r)
	pet, ok := pc.service.PeekPet(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}
	writeJSON(w, http.StatusOK, pet.ActivityLog)
}

func (pc *PetController) Visibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := pc.auth.ResolveUserID(r)
	pc.service.SetVisibility(userID, req.Hidden, time.Now())
	if !req.Hidden {
		// Becoming visible may have charged the offline gap.
		pc.autosaver.Request()
	}
	w.WriteHeader(http.StatusNoContent)
}
