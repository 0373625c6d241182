package domain

import "testing"

func TestComputeTier(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  ScoreTier
	}{
		{"A - 1.0", 1.0, TierA},
		{"A - 0.9", 0.9, TierA},
		{"A lower bound inclusive - 0.80", 0.80, TierA},
		{"B just below A - 0.799999", 0.799999, TierB},
		{"B - 0.7", 0.7, TierB},
		{"B lower bound inclusive - 0.60", 0.60, TierB},
		{"C just below B - 0.599999", 0.599999, TierC},
		{"C lower bound inclusive - 0.40", 0.40, TierC},
		{"D just below C - 0.399999", 0.399999, TierD},
		{"D - 0.2", 0.2, TierD},
		{"D - 0.0", 0.0, TierD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTier(tt.score)
			if got != tt.want {
				t.Errorf("ComputeTier(%v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}

func TestValidTier(t *testing.T) {
	validTiers := []string{"A", "B", "C", "D"}
	for _, tier := range validTiers {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%q) = false, want true", tier)
		}
	}

	invalidTiers := []string{"", "a", "E", "hot"}
	for _, tier := range invalidTiers {
		if ValidTier(tier) {
			t.Errorf("ValidTier(%q) = true, want false", tier)
		}
	}
}

func TestAllTiers(t *testing.T) {
	tiers := AllTiers()
	if len(tiers) != 4 {
		t.Errorf("AllTiers() returned %d tiers, want 4", len(tiers))
	}
}

func TestTierLabel(t *testing.T) {
	for _, tier := range AllTiers() {
		if TierLabel(tier) == "" {
			t.Errorf("TierLabel(%v) returned empty string", tier)
		}
	}
}
