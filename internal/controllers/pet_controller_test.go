package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
	"regenwasi/internal/testutil"
)

// --- shared helpers for controller tests ---

type stubMetrics struct {
	actions     map[string]int
	fruitEarned int
	fruitSpent  int
	trainings   int
	chatReplies int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{actions: make(map[string]int)}
}

func (s *stubMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (s *stubMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (s *stubMetrics) IncCacheHits()                                    {}
func (s *stubMetrics) IncCacheMisses()                                  {}
func (s *stubMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (s *stubMetrics) IncActions(action string)                         { s.actions[action]++ }
func (s *stubMetrics) IncFruitEarned(amount int)                        { s.fruitEarned += amount }
func (s *stubMetrics) IncFruitSpent(amount int)                         { s.fruitSpent += amount }
func (s *stubMetrics) IncTrainings(_ bool)                              { s.trainings++ }
func (s *stubMetrics) IncChatReplies(_ bool)                            { s.chatReplies++ }

func jsonRequest(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	return req
}

func adoptPet(t *testing.T, svc services.PetServiceInterface, userID string) *models.PetRecord {
	t.Helper()
	pet, err := svc.Adopt(userID, "Luna", models.AnimalAlpaca, time.Now())
	require.NoError(t, err)
	return pet
}

type petControllerFixture struct {
	controller *PetController
	service    services.PetServiceInterface
	autosaver  *testutil.MockAutosaver
	metrics    *stubMetrics
}

func newPetFixture() *petControllerFixture {
	svc := services.NewPetService()
	saver := &testutil.MockAutosaver{}
	metrics := newStubMetrics()
	return &petControllerFixture{
		controller: NewPetController(&testutil.MockLogger{}, svc, saver, providers.NewAuthProvider(), metrics),
		service:    svc,
		autosaver:  saver,
		metrics:    metrics,
	}
}

// --- Adopt ---

func TestPetController_Adopt(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Luna","animal":"alpaca"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var pet models.PetRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pet))
	assert.Equal(t, "Luna", pet.Name)
	assert.Equal(t, models.AnimalAlpaca, pet.AnimalKind)
	assert.Equal(t, 80, pet.Vitality)
	assert.Equal(t, 1, f.autosaver.RequestCount())
	assert.Equal(t, 1, f.metrics.actions["adopt"])
}

func TestPetController_Adopt_GuestFallback(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Luna","animal":"alpaca"}`, "")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	_, ok := f.service.PeekPet(models.GuestUserID)
	assert.True(t, ok)
}

func TestPetController_Adopt_NameTooShort(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Lu","animal":"alpaca"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 0, f.autosaver.RequestCount())
}

func TestPetController_Adopt_NameBadCharacters(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Luna<script>","animal":"alpaca"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPetController_Adopt_AccentedNameAllowed(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Ñusta María","animal":"condor"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestPetController_Adopt_UnknownAnimal(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Luna","animal":"dragon"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPetController_Adopt_Duplicate(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodPost, "/pet", `{"name":"Paco","animal":"condor"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestPetController_Adopt_InvalidJSON(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet", "not json", "u1")
	rr := httptest.NewRecorder()
	f.controller.Adopt(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- GetState ---

func TestPetController_GetState_NoPet(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodGet, "/pet", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.GetState(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPetController_GetState(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodGet, "/pet", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.GetState(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var pet models.PetRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pet))
	assert.Equal(t, "Luna", pet.Name)
}

// --- Action ---

func TestPetController_Action(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodPost, "/pet/action", `{"stat":"energy"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Action(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var pet models.PetRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pet))
	assert.Equal(t, 95, pet.Energy)
	assert.Equal(t, 1, f.metrics.actions["energy"])
	assert.Equal(t, 1, f.autosaver.RequestCount())
}

func TestPetController_Action_UnknownStat(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodPost, "/pet/action", `{"stat":"charisma"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Action(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPetController_Action_NoPet(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet/action", `{"stat":"energy"}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Action(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Feed ---

func TestPetController_Feed(t *testing.T) {
	f := newPetFixture()
	pet := adoptPet(t, f.service, "u1")
	require.Equal(t, 80, pet.Nutrition)
	require.NoError(t, f.service.Earn("u1", 25, models.ActivityOther, "seed", time.Now()))

	req := jsonRequest(http.MethodPost, "/pet/feed", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.Feed(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var fed models.PetRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fed))
	assert.Equal(t, 100, fed.Nutrition)
	assert.Equal(t, 15, fed.FruitBalance)
	assert.Equal(t, 10, f.metrics.fruitSpent)
}

func TestPetController_Feed_InsufficientFruit(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	// Fresh pets have an empty wallet
	req := jsonRequest(http.MethodPost, "/pet/feed", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.Feed(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "FRUTA")
}

// --- Reset ---

func TestPetController_Reset(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodPost, "/pet/reset", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.Reset(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	_, ok := f.service.PeekPet("u1")
	assert.False(t, ok)
	assert.Equal(t, 1, f.autosaver.RequestCount())
}

// --- Claim ---

func TestPetController_Claim_Unauthenticated(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet/claim", "", "")
	rr := httptest.NewRecorder()
	f.controller.Claim(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPetController_Claim_MigratesGuest(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, models.GuestUserID)

	req := jsonRequest(http.MethodPost, "/pet/claim", "", "user-42")
	rr := httptest.NewRecorder()
	f.controller.Claim(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp["migrated"])

	_, ok := f.service.PeekPet("user-42")
	assert.True(t, ok)
	_, ok = f.service.PeekPet(models.GuestUserID)
	assert.False(t, ok)
}

func TestPetController_Claim_NothingToMigrate(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodPost, "/pet/claim", "", "user-42")
	rr := httptest.NewRecorder()
	f.controller.Claim(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp["migrated"])
}

// --- Activity ---

func TestPetController_Activity(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")
	_, err := f.service.Feed("u1", time.Now())
	require.NoError(t, err)

	req := jsonRequest(http.MethodGet, "/pet/activity", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.Activity(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var log []models.ActivityEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &log))
	require.NotEmpty(t, log)
}

func TestPetController_Activity_NoPet(t *testing.T) {
	f := newPetFixture()

	req := jsonRequest(http.MethodGet, "/pet/activity", "", "u1")
	rr := httptest.NewRecorder()
	f.controller.Activity(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Visibility ---

func TestPetController_Visibility(t *testing.T) {
	f := newPetFixture()
	adoptPet(t, f.service, "u1")

	req := jsonRequest(http.MethodPost, "/pet/visibility", `{"hidden":true}`, "u1")
	rr := httptest.NewRecorder()
	f.controller.Visibility(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, f.service.ActiveSessions())
	assert.Equal(t, 0, f.autosaver.RequestCount(), "hiding saves nothing by itself")

	req = jsonRequest(http.MethodPost, "/pet/visibility", `{"hidden":false}`, "u1")
	rr = httptest.NewRecorder()
	f.controller.Visibility(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, f.service.ActiveSessions())
	assert.Equal(t, 1, f.autosaver.RequestCount(), "unhiding may have charged the gap")
}
