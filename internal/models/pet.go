package models

import (
	"time"
)

const (
	StatMin = 0
	StatMax = 100

	StartingStat = 80

	MaxActivityEntries = 10
	MaxTrainingEntries = 20
)

// AnimalKind is the fixed set of adoptable companions.
type AnimalKind string

const (
	AnimalAlpaca      AnimalKind = "alpaca"
	AnimalCondor      AnimalKind = "condor"
	AnimalFrog        AnimalKind = "frog"
	AnimalHummingbird AnimalKind = "hummingbird"
)

func ValidAnimalKind(k AnimalKind) bool {
	switch k {
	case AnimalAlpaca, AnimalCondor, AnimalFrog, AnimalHummingbird:
		return true
	}
	return false
}

type ActivityType string

const (
	ActivityFeed     ActivityType = "feed"
	ActivityChatEarn ActivityType = "chat_earn"
	ActivityTraining ActivityType = "training"
	ActivityOther    ActivityType = "other"
)

type ActivityEntry struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Coins     int          `json:"coins"`
	Label     string       `json:"label"`
	Timestamp time.Time    `json:"timestamp"`
}

type TrainingEntry struct {
	ID            string    `json:"id"`
	Score         int       `json:"score"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	Feedback      string    `json:"feedback"`
	PointsEarned  int       `json:"points_earned"`
	TokensEarned  int       `json:"tokens_earned"`
	Timestamp     time.Time `json:"timestamp"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
}

type PetRecord struct {
	Name              string          `json:"name"`
	AnimalKind        AnimalKind      `json:"animal_kind"`
	Vitality          int             `json:"vitality"`
	Energy            int             `json:"energy"`
	Nutrition         int             `json:"nutrition"`
	CreatedAt         time.Time       `json:"created_at"`
	LastSavedAt       time.Time       `json:"last_saved_at"`
	TotalInteractions int             `json:"total_interactions"`
	FruitBalance      int             `json:"fruit_balance"`
	TotalFruitEarned  int             `json:"total_fruit_earned"`
	TotalFruitSpent   int             `json:"total_fruit_spent"`
	LastFruitEarnedAt *time.Time      `json:"last_fruit_earned_at,omitempty"`
	ActivityLog       []ActivityEntry `json:"activity_log"`
	TotalPoints       int             `json:"total_points"`
	EvolutionStage    int             `json:"evolution_stage"`
	TrainingHistory   []TrainingEntry `json:"training_history"`
	TotalTrainings    int             `json:"total_trainings"`
	AverageScore      float64         `json:"average_score"`
	StreakDays        int             `json:"streak_days"`
	LastTrainingDate  string          `json:"last_training_date,omitempty"`
}

func NewPetRecord(name string, kind AnimalKind, now time.Time) *PetRecord {
	return &PetRecord{
		Name:           name,
		AnimalKind:     kind,
		Vitality:       StartingStat,
		Energy:         StartingStat,
		Nutrition:      StartingStat,
		CreatedAt:      now,
		LastSavedAt:    now,
		EvolutionStage: 1,
	}
}

// Clamp keeps a stat inside [StatMin, StatMax].
func Clamp(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

// AddActivity prepends an entry and evicts everything past the bound.
func (p *PetRecord) AddActivity(entry ActivityEntry) {
	p.ActivityLog = append([]ActivityEntry{entry}, p.ActivityLog...)
	if len(p.ActivityLog) > MaxActivityEntries {
		p.ActivityLog = p.ActivityLog[:MaxActivityEntries]
	}
}

// AddTraining prepends an entry and evicts everything past the bound.
func (p *PetRecord) AddTraining(entry TrainingEntry) {
	p.TrainingHistory = append([]TrainingEntry{entry}, p.TrainingHistory...)
	if len(p.TrainingHistory) > MaxTrainingEntries {
		p.TrainingHistory = p.TrainingHistory[:MaxTrainingEntries]
	}
}

// FindTraining returns a pointer into the history so the thumbnail can be
// patched in place once compression completes.
func (p *PetRecord) FindTraining(id string) *TrainingEntry {
	for i := range p.TrainingHistory {
		if p.TrainingHistory[i].ID == id {
			return &p.TrainingHistory[i]
		}
	}
	return nil
}

func (p *PetRecord) Clone() *PetRecord {
	cp := *p
	if p.LastFruitEarnedAt != nil {
		t := *p.LastFruitEarnedAt
		cp.LastFruitEarnedAt = &t
	}
	cp.ActivityLog = append([]ActivityEntry(nil), p.ActivityLog...)
	cp.TrainingHistory = append([]TrainingEntry(nil), p.TrainingHistory...)
	return &cp
}
