package domain

type ScoreTier string

const (
	TierA ScoreTier = "A"
	TierB ScoreTier = "B"
	TierC ScoreTier = "C"
	TierD ScoreTier = "D"
)

// ComputeTier classifies a hypothesis score into a quality tier.
// Boundaries are inclusive on the lower bound of each tier.
func ComputeTier(score float64) ScoreTier {
	switch {
	case score >= 0.8:
		return TierA
	case score >= 0.6:
		return TierB
	case score >= 0.4:
		return TierC
	default:
		return TierD
	}
}

func TierLabel(tier ScoreTier) string {
	switch tier {
	case TierA:
		return "strong"
	case TierB:
		return "promising"
	case TierC:
		return "speculative"
	default:
		return "weak"
	}
}

var TierScoreThresholds = map[ScoreTier]struct{ Min, Max float64 }{
	TierA: {Min: 0.8, Max: 1.0},
	TierB: {Min: 0.6, Max: 0.8},
	TierC: {Min: 0.4, Max: 0.6},
	TierD: {Min: 0.0, Max: 0.4},
}

func AllTiers() []ScoreTier {
	return []ScoreTier{TierA, TierB, TierC, TierD}
}

func ValidTier(t string) bool {
	switch ScoreTier(t) {
	case TierA, TierB, TierC, TierD:
		return true
	}
	return false
}
