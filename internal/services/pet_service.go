package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"regenwasi/internal/degradation"
	"regenwasi/internal/models"
	"regenwasi/internal/progression"
)

const (
	actionDelta    = 15
	feedCost       = 10
	feedNutrition  = 20
	chatFruitEarn  = 5
	historyDateFmt = "2006-01-02"
)

var (
	ErrNoPet             = errors.New("no pet adopted")
	ErrPetExists         = errors.New("pet already adopted")
	ErrUnknownAnimal     = errors.New("unknown animal kind")
	ErrUnknownStat       = errors.New("unknown stat")
	ErrInsufficientFruit = errors.New("insufficient fruit balance")
	ErrNutritionFull     = errors.New("nutrition already full")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEntryNotFound     = errors.New("training entry not found")
)

type PetServiceInterface interface {
	Adopt(userID, name string, kind models.AnimalKind, now time.Time) (*models.PetRecord, error)
	Get(userID string, now time.Time) (*models.PetRecord, bool)
	PeekPet(userID string) (*models.PetRecord, bool)
	Interact(userID, stat string, now time.Time) (*models.PetRecord, error)
	Feed(userID string, now time.Time) (*models.PetRecord, error)
	Earn(userID string, amount int, typ models.ActivityType, label string, now time.Time) error
	Spend(userID string, amount int, label string, now time.Time) error
	AppendChat(userID string, userMsg, guardianMsg models.ChatMessage, now time.Time) error
	Messages(userID string) []models.ChatMessage
	Memories(userID string) models.Memories
	PutMemories(userID string, m models.Memories)
	ApplyTraining(userID string, res TrainingResult, now time.Time) (*TrainingOutcome, error)
	AttachThumbnail(userID, entryID, thumbnail string) error
	Reset(userID string)
	MigrateGuest(userID string) bool
	SetVisibility(userID string, hidden bool, now time.Time)
	TickVisible() bool
	HubRegistration(userID string) (string, bool)
	PutHubRegistration(userID, hubID string)
	ClearHubRegistration(userID string)
	RegisteredUsers() []string
	PetsTotal() int
	ActiveSessions() int
	Snapshot(now time.Time) *models.Storage
	Restore(storage *models.Storage, now time.Time)
}

// TrainingResult is what the evaluation gateway produced for one submission.
type TrainingResult struct {
	Score         int
	Feedback      string
	Category      string
	CategoryLabel string
	IsDefault     bool
}

// TrainingOutcome is the ledger-visible effect of applying a TrainingResult.
type TrainingOutcome struct {
	Entry        models.TrainingEntry
	PointsEarned int
	TokensEarned int
	StageChanged bool
	NewStage     int
	Tier         string
	Pet          *models.PetRecord
}

// PetService owns the in-memory user namespaces. All mutations run under a
// single mutex so ledger updates are atomic with respect to reads.
type PetService struct {
	mu      sync.RWMutex
	users   map[string]*models.UserData
	visible map[string]bool
}

func NewPetService() PetServiceInterface {
	return &PetService{
		users:   make(map[string]*models.UserData),
		visible: make(map[string]bool),
	}
}

func (ps *PetService) userData(userID string) *models.UserData {
	ud, ok := ps.users[userID]
	if !ok {
		ud = &models.UserData{}
		ps.users[userID] = ud
	}
	return ud
}

func (ps *PetService) Adopt(userID, name string, kind models.AnimalKind, now time.Time) (*models.PetRecord, error) {
	if !models.ValidAnimalKind(kind) {
		return nil, ErrUnknownAnimal
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud := ps.userData(userID)
	if ud.Pet != nil {
		return nil, ErrPetExists
	}
	ud.Pet = models.NewPetRecord(name, kind, now)
	ps.visible[userID] = true
	return ud.Pet.Clone(), nil
}

// Get returns the pet for the namespace. A hidden session becoming visible
// again is charged retroactively for the gap since the last save, exactly
// once: the stamp moves forward together with the decay.
func (ps *PetService) Get(userID string, now time.Time) (*models.PetRecord, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return nil, false
	}
	if !ps.visible[userID] {
		ud.Pet = degradation.ApplyRetroactive(ud.Pet, now)
		ud.Pet.LastSavedAt = now
		ps.visible[userID] = true
	}
	return ud.Pet.Clone(), true
}

// PeekPet is a read-only lookup with no visibility side effects.
func (ps *PetService) PeekPet(userID string) (*models.PetRecord, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return nil, false
	}
	return ud.Pet.Clone(), true
}

func (ps *PetService) Interact(userID, stat string, now time.Time) (*models.PetRecord, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return nil, ErrNoPet
	}

	switch stat {
	case "vitality":
		ud.Pet.Vitality = models.Clamp(ud.Pet.Vitality + actionDelta)
	case "energy":
		ud.Pet.Energy = models.Clamp(ud.Pet.Energy + actionDelta)
	case "nutrition":
		ud.Pet.Nutrition = models.Clamp(ud.Pet.Nutrition + actionDelta)
	default:
		return nil, ErrUnknownStat
	}
	ud.Pet.TotalInteractions++
	return ud.Pet.Clone(), nil
}

func (ps *PetService) Feed(userID string, now time.Time) (*models.PetRecord, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return nil, ErrNoPet
	}
	if ud.Pet.Nutrition >= models.StatMax {
		return nil, ErrNutritionFull
	}
	if ud.Pet.FruitBalance < feedCost {
		return nil, ErrInsufficientFruit
	}

	ps.spendLocked(ud.Pet, feedCost, models.ActivityFeed, "Alimentaste a tu Guardián", now)
	ud.Pet.Nutrition = models.Clamp(ud.Pet.Nutrition + feedNutrition)
	ud.Pet.TotalInteractions++
	return ud.Pet.Clone(), nil
}

func (ps *PetService) Earn(userID string, amount int, typ models.ActivityType, label string, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return ErrNoPet
	}
	ps.earnLocked(ud.Pet, amount, typ, label, now)
	return nil
}

func (ps *PetService) Spend(userID string, amount int, label string, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return ErrNoPet
	}
	if ud.Pet.FruitBalance < amount {
		return ErrInsufficientFruit
	}
	ps.spendLocked(ud.Pet, amount, models.ActivityOther, label, now)
	return nil
}

func (ps *PetService) earnLocked(pet *models.PetRecord, amount int, typ models.ActivityType, label string, now time.Time) {
	pet.FruitBalance += amount
	pet.TotalFruitEarned += amount
	t := now
	pet.LastFruitEarnedAt = &t
	pet.AddActivity(models.ActivityEntry{
		ID:        uuid.NewString(),
		Type:      typ,
		Coins:     amount,
		Label:     label,
		Timestamp: now,
	})
}

func (ps *PetService) spendLocked(pet *models.PetRecord, amount int, typ models.ActivityType, label string, now time.Time) {
	pet.FruitBalance -= amount
	pet.TotalFruitSpent += amount
	pet.AddActivity(models.ActivityEntry{
		ID:        uuid.NewString(),
		Type:      typ,
		Coins:     -amount,
		Label:     label,
		Timestamp: now,
	})
}

// AppendChat stores one user/guardian exchange and credits the chat reward.
func (ps *PetService) AppendChat(userID string, userMsg, guardianMsg models.ChatMessage, now time.Time) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return ErrNoPet
	}

	ud.Messages = models.AppendMessages(ud.Messages, userMsg, guardianMsg)
	ud.Pet.Vitality = models.Clamp(ud.Pet.Vitality + 5)
	ud.Pet.Energy = models.Clamp(ud.Pet.Energy - 3)
	ud.Pet.TotalInteractions++
	ps.earnLocked(ud.Pet, chatFruitEarn, models.ActivityChatEarn, "Charla con tu Guardián", now)
	return nil
}

func (ps *PetService) Messages(userID string) []models.ChatMessage {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ud, ok := ps.users[userID]
	if !ok {
		return nil
	}
	return append([]models.ChatMessage(nil), ud.Messages...)
}

func (ps *PetService) Memories(userID string) models.Memories {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Memories == nil {
		return models.Memories{}
	}
	return models.Memories{
		Facts:       append([]string(nil), ud.Memories.Facts...),
		LastUpdated: ud.Memories.LastUpdated,
	}
}

func (ps *PetService) PutMemories(userID string, m models.Memories) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud := ps.userData(userID)
	ud.Memories = &m
}

func (ps *PetService) ApplyTraining(userID string, res TrainingResult, now time.Time) (*TrainingOutcome, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return nil, ErrNoPet
	}
	pet := ud.Pet

	effects := progression.EffectsForScore(res.Score)
	pet.Vitality = models.Clamp(pet.Vitality + effects.Vitality)
	pet.Energy = models.Clamp(pet.Energy + effects.Energy)
	pet.Nutrition = models.Clamp(pet.Nutrition + effects.Nutrition)
	pet.TotalInteractions++

	points, tokens := progression.Rewards(res.Score)
	prevStage := pet.EvolutionStage
	pet.TotalPoints += points
	pet.EvolutionStage = progression.StageFromPoints(pet.TotalPoints)
	stageChanged := pet.EvolutionStage > prevStage

	entry := models.TrainingEntry{
		ID:            uuid.NewString(),
		Score:         res.Score,
		Category:      res.Category,
		CategoryLabel: res.CategoryLabel,
		Feedback:      res.Feedback,
		PointsEarned:  points,
		TokensEarned:  tokens,
		Timestamp:     now,
	}
	pet.AddTraining(entry)

	pet.AverageScore = (pet.AverageScore*float64(pet.TotalTrainings) + float64(res.Score)) / float64(pet.TotalTrainings+1)
	pet.TotalTrainings++
	ps.updateStreakLocked(pet, now)

	ps.earnLocked(pet, tokens, models.ActivityTraining, "Entrenamiento: "+res.CategoryLabel, now)
	if stageChanged {
		// Bonus credits go through the ledger so balance = earned - spent holds.
		ps.earnLocked(pet, progression.EvolutionBonus, models.ActivityTraining, "Bonus de evolución", now)
	}

	return &TrainingOutcome{
		Entry:        entry,
		PointsEarned: points,
		TokensEarned: tokens,
		StageChanged: stageChanged,
		NewStage:     pet.EvolutionStage,
		Tier:         progression.ScoreTier(res.Score),
		Pet:          pet.Clone(),
	}, nil
}

func (ps *PetService) updateStreakLocked(pet *models.PetRecord, now time.Time) {
	today := now.Format(historyDateFmt)
	switch pet.LastTrainingDate {
	case today:
		// Already trained today, streak unchanged.
	case now.AddDate(0, 0, -1).Format(historyDateFmt):
		pet.StreakDays++
	default:
		pet.StreakDays = 1
	}
	pet.LastTrainingDate = today
}

func (ps *PetService) AttachThumbnail(userID, entryID, thumbnail string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok || ud.Pet == nil {
		return ErrNoPet
	}
	entry := ud.Pet.FindTraining(entryID)
	if entry == nil {
		return ErrEntryNotFound
	}
	entry.Thumbnail = thumbnail
	return nil
}

func (ps *PetService) Reset(userID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.users, userID)
	delete(ps.visible, userID)
}

// MigrateGuest copies the guest namespace to the authenticated identity,
// first-write-wins: an existing destination record is never overwritten.
// The guest namespace is removed either way.
func (ps *PetService) MigrateGuest(userID string) bool {
	if userID == models.GuestUserID {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	guest, ok := ps.users[models.GuestUserID]
	if !ok {
		return false
	}
	delete(ps.users, models.GuestUserID)
	delete(ps.visible, models.GuestUserID)

	if dst, exists := ps.users[userID]; exists && dst.Pet != nil {
		return false
	}
	ps.users[userID] = guest
	return true
}

func (ps *PetService) SetVisibility(userID string, hidden bool, now time.Time) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if hidden {
		ps.visible[userID] = false
		return
	}
	ud, ok := ps.users[userID]
	if ok && ud.Pet != nil && !ps.visible[userID] {
		ud.Pet = degradation.ApplyRetroactive(ud.Pet, now)
		ud.Pet.LastSavedAt = now
	}
	ps.visible[userID] = true
}

// TickVisible applies one live decay step to every visible pet. Returns
// whether anything changed so the caller can schedule a save.
func (ps *PetService) TickVisible() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	changed := false
	for userID, ud := range ps.users {
		if ud.Pet == nil || !ps.visible[userID] {
			continue
		}
		degradation.Step(ud.Pet)
		changed = true
	}
	return changed
}

func (ps *PetService) HubRegistration(userID string) (string, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ud, ok := ps.users[userID]
	if !ok {
		return "", false
	}
	return ud.HubID, ud.HubRegistered
}

func (ps *PetService) PutHubRegistration(userID, hubID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud := ps.userData(userID)
	ud.HubID = hubID
	ud.HubRegistered = true
}

func (ps *PetService) ClearHubRegistration(userID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ud, ok := ps.users[userID]
	if !ok {
		return
	}
	ud.HubID = ""
	ud.HubRegistered = false
}

func (ps *PetService) RegisteredUsers() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var out []string
	for userID, ud := range ps.users {
		if ud.HubRegistered && ud.Pet != nil {
			out = append(out, userID)
		}
	}
	return out
}

func (ps *PetService) PetsTotal() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	count := 0
	for _, ud := range ps.users {
		if ud.Pet != nil {
			count++
		}
	}
	return count
}

func (ps *PetService) ActiveSessions() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	count := 0
	for userID := range ps.users {
		if ps.visible[userID] {
			count++
		}
	}
	return count
}

// Snapshot stamps LastSavedAt on every pet and returns a deep copy for the
// file manager to persist.
func (ps *PetService) Snapshot(now time.Time) *models.Storage {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	storage := models.NewStorage()
	for userID, ud := range ps.users {
		cp := &models.UserData{
			HubID:         ud.HubID,
			HubRegistered: ud.HubRegistered,
			Messages:      append([]models.ChatMessage(nil), ud.Messages...),
		}
		if ud.Pet != nil {
			ud.Pet.LastSavedAt = now
			cp.Pet = ud.Pet.Clone()
		}
		if ud.Memories != nil {
			cp.Memories = &models.Memories{
				Facts:       append([]string(nil), ud.Memories.Facts...),
				LastUpdated: ud.Memories.LastUpdated,
			}
		}
		storage.Users[userID] = cp
	}
	return storage
}

// Restore replaces the in-memory state with a loaded envelope, charging each
// pet retroactively for the offline gap. Sessions come back hidden until a
// client shows up.
func (ps *PetService) Restore(storage *models.Storage, now time.Time) {
	if storage == nil || storage.Users == nil {
		return
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.users = make(map[string]*models.UserData, len(storage.Users))
	ps.visible = make(map[string]bool)
	for userID, ud := range storage.Users {
		if ud == nil {
			continue
		}
		if ud.Pet != nil {
			ud.Pet = degradation.ApplyRetroactive(ud.Pet, now)
			ud.Pet.LastSavedAt = now
		}
		ps.users[userID] = ud
	}
}
