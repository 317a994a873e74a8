package controllers

import (
	"context"
	"net/http"
	"time"

	"regenwasi/internal/gateways"
	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
)

// Image payloads are bigger than regular API bodies.
const maxTrainingBodySize = 8 << 20 // 8 MB

type TrainingController struct {
	logger    providers.Logger
	service   services.PetServiceInterface
	evaluator gateways.EvaluationGatewayInterface
	autosaver interfaces.AutosaverInterface
	auth      providers.AuthProviderInterface
	metrics   providers.MetricsProviderInterface
}

func NewTrainingController(logger providers.Logger, service services.PetServiceInterface, evaluator gateways.EvaluationGatewayInterface, autosaver interfaces.AutosaverInterface, auth providers.AuthProviderInterface, metrics providers.MetricsProviderInterface) *TrainingController {
	return &TrainingController{
		logger:    logger,
		service:   service,
		evaluator: evaluator,
		autosaver: autosaver,
		auth:      auth,
		metrics:   metrics,
	}
}

type TrainingRequest struct {
	Image    string `json:"image" validate:"required"`
	Category string `json:"category" validate:"required|in:codigo,diseno,proyecto,aprendizaje"`
}

type ThumbnailRequest struct {
	EntryID   string `json:"entry_id" validate:"required"`
	Thumbnail string `json:"thumbnail" validate:"required"`
}

type TrainingResponse struct {
	Entry        any    `json:"entry"`
	Tier         string `json:"tier"`
	StageChanged bool   `json:"stage_changed"`
	NewStage     int    `json:"new_stage"`
	IsDefault    bool   `json:"is_default"`
	Pet          any    `json:"pet"`
}

func (tc *TrainingController) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTrainingBodySize)

	var req TrainingRequest
	if err := decodeLarge(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if !validateStruct(w, &req) {
		return
	}

	userID := tc.auth.ResolveUserID(r)
	if _, ok := tc.service.PeekPet(userID); !ok {
		writeError(w, http.StatusNotFound, "No hay Guardián adoptado")
		return
	}

	category, _ := gateways.CategoryByID(req.Category)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	eval := tc.evaluator.Evaluate(ctx, req.Image, req.Category)
	tc.metrics.IncTrainings(eval.IsDefault)

	outcome, err := tc.service.ApplyTraining(userID, services.TrainingResult{
		Score:         eval.Score,
		Feedback:      eval.Feedback,
		Category:      category.ID,
		CategoryLabel: category.Label,
		IsDefault:     eval.IsDefault,
	}, time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}

	tc.metrics.IncFruitEarned(outcome.TokensEarned)
	if outcome.StageChanged {
		tc.logger.Infof(providers.TypePost, "Pet of %s evolved to stage %d", userID, outcome.NewStage)
	}
	tc.autosaver.Request()

	writeJSON(w, http.StatusOK, TrainingResponse{
		Entry:        outcome.Entry,
		Tier:         outcome.Tier,
		StageChanged: outcome.StageChanged,
		NewStage:     outcome.NewStage,
		IsDefault:    eval.IsDefault,
		Pet:          outcome.Pet,
	})
}

// AttachThumbnail patches the stored entry once the client finished
// compressing the submitted image.
func (tc *TrainingController) AttachThumbnail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTrainingBodySize)

	var req ThumbnailRequest
	if err := decodeLarge(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if !validateStruct(w, &req) {
		return
	}

	userID := tc.auth.ResolveUserID(r)
	if err := tc.service.AttachThumbnail(userID, req.EntryID, req.Thumbnail); err != nil {
		serviceError(w, err)
		return
	}
	tc.autosaver.Request()
	w.WriteHeader(http.StatusNoContent)
}
