package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"regenwasi/internal/gateways"
	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
	"regenwasi/internal/structures"
)

type ChatController struct {
	logger    providers.Logger
	service   services.PetServiceInterface
	chat      gateways.ChatGatewayInterface
	memory    gateways.MemoryGatewayInterface
	autosaver interfaces.AutosaverInterface
	auth      providers.AuthProviderInterface
	metrics   providers.MetricsProviderInterface
	timeout   time.Duration
}

func NewChatController(conf *structures.Config, logger providers.Logger, service services.PetServiceInterface, chat gateways.ChatGatewayInterface, memory gateways.MemoryGatewayInterface, autosaver interfaces.AutosaverInterface, auth providers.AuthProviderInterface, metrics providers.MetricsProviderInterface) *ChatController {
	return &ChatController{
		logger:    logger,
		service:   service,
		chat:      chat,
		memory:    memory,
		autosaver: autosaver,
		auth:      auth,
		metrics:   metrics,
		timeout:   gateways.ChatTimeout(conf),
	}
}

type ChatRequest struct {
	Message string `json:"message" validate:"required|maxLen:500"`
}

type ChatResponse struct {
	Reply    models.ChatMessage `json:"reply"`
	Degraded bool               `json:"degraded"`
	Pet      *models.PetRecord  `json:"pet"`
}

func (cc *ChatController) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) || !validateStruct(w, &req) {
		return
	}

	userID := cc.auth.ResolveUserID(r)
	now := time.Now()

	pet, ok := cc.service.Get(userID, now)
	if !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}

	history := cc.service.Messages(userID)
	memories := cc.service.Memories(userID)

	ctx, cancel := context.WithTimeout(r.Context(), cc.timeout)
	defer cancel()

	reply := cc.chat.Complete(ctx, pet, memories, history, req.Message)
	cc.metrics.IncChatReplies(reply.Degraded)

	userMsg := models.ChatMessage{ID: uuid.NewString(), Role: models.RoleUser, Text: req.Message, Timestamp: now}
	guardianMsg := models.ChatMessage{ID: uuid.NewString(), Role: models.RoleGuardian, Text: reply.Text, Timestamp: time.Now()}

	if err := cc.service.AppendChat(userID, userMsg, guardianMsg, now); err != nil {
		serviceError(w, err)
		return
	}
	cc.metrics.IncFruitEarned(5)

	// Memory extraction is best effort; facts stay unchanged on failure.
	facts := cc.memory.Extract(ctx, req.Message, memories.Facts)
	if len(facts) != len(memories.Facts) {
		cc.service.PutMemories(userID, models.Memories{Facts: facts, LastUpdated: time.Now()})
	}

	cc.autosaver.Request()

	updated, _ := cc.service.PeekPet(userID)
	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:    guardianMsg,
		Degraded: reply.Degraded,
		Pet:      updated,
	})
}

func (cc *ChatController) Messages(w http.ResponseWriter, r *http.Request) {
	userID := cc.auth.ResolveUserID(r)
	messages := cc.service.Messages(userID)
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (cc *ChatController) Memories(w http.ResponseWriter, r *http.Request) {
	userID := cc.auth.ResolveUserID(r)
	writeJSON(w, http.StatusOK, cc.service.Memories(userID))
}
