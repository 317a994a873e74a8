package degradation

import (
	"time"

	"regenwasi/internal/models"
)

const (
	// TickInterval is the wall-clock time represented by one decay tick.
	TickInterval = 15 * time.Second

	// MaxRetroactiveTicks caps how much offline neglect is charged at load.
	MaxRetroactiveTicks = 50
)

// Ticks converts elapsed offline time into decay ticks, capped.
func Ticks(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	ticks := int(elapsed / TickInterval)
	if ticks > MaxRetroactiveTicks {
		ticks = MaxRetroactiveTicks
	}
	return ticks
}

// ApplyRetroactive charges the elapsed time since the last save against all
// three stats. Pure: the input record is not mutated. LastSavedAt is left
// untouched so re-running with an unchanged stamp is only idempotent when
// time has not advanced; callers apply this exactly once, at load.
func ApplyRetroactive(pet *models.PetRecord, now time.Time) *models.PetRecord {
	ticks := Ticks(now.Sub(pet.LastSavedAt))
	if ticks == 0 {
		return pet.Clone()
	}
	degraded := pet.Clone()
	degraded.Vitality = models.Clamp(degraded.Vitality - ticks)
	degraded.Energy = models.Clamp(degraded.Energy - ticks)
	degraded.Nutrition = models.Clamp(degraded.Nutrition - ticks)
	return degraded
}

// Step applies one live decay tick in place.
func Step(pet *models.PetRecord) {
	pet.Vitality = models.Clamp(pet.Vitality - 1)
	pet.Energy = models.Clamp(pet.Energy - 1)
	pet.Nutrition = models.Clamp(pet.Nutrition - 1)
}
