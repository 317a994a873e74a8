package progression

// Evolution stage thresholds in accumulated training points.
const (
	StageYoungAt = 500
	StageAdultAt = 1500

	// EvolutionBonus is the one-time $FRUTA credit granted when a training
	// award pushes the pet across a stage threshold.
	EvolutionBonus = 100
)

// StageFromPoints returns the largest stage whose threshold is <= points.
func StageFromPoints(points int) int {
	switch {
	case points >= StageAdultAt:
		return 3
	case points >= StageYoungAt:
		return 2
	default:
		return 1
	}
}

// StatEffects is the per-evaluation delta applied to the three stats.
type StatEffects struct {
	Vitality  int
	Energy    int
	Nutrition int
}

// EffectsForScore maps an evaluation score to its stat deltas.
func EffectsForScore(score int) StatEffects {
	switch {
	case score >= 80:
		return StatEffects{Vitality: 15, Energy: -20, Nutrition: 15}
	case score >= 60:
		return StatEffects{Vitality: 8, Energy: -15, Nutrition: 12}
	case score >= 40:
		return StatEffects{Vitality: 3, Energy: -12, Nutrition: 10}
	default:
		return StatEffects{Vitality: -10, Energy: -15, Nutrition: 10}
	}
}

// ScoreTier is the qualitative display label for a score.
func ScoreTier(score int) string {
	switch {
	case score >= 80:
		return "Excelente"
	case score >= 60:
		return "Bueno"
	case score >= 40:
		return "Regular"
	default:
		return "Sigue intentando"
	}
}

// Rewards derives the point and token payout for an evaluation score.
func Rewards(score int) (points, tokens int) {
	return score, score / 2
}
