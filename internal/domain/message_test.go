package domain

import (
	"encoding/json"
	"testing"
)

func TestReviewUnmarshal_ObjectForm(t *testing.T) {
	var d ReflectionData
	raw := []byte(`{"review": {"review": "solid mechanism", "score": 0.85}}`)
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Review.Text != "solid mechanism" {
		t.Errorf("review text = %q, want %q", d.Review.Text, "solid mechanism")
	}
	if d.Review.Score == nil || *d.Review.Score != 0.85 {
		t.Errorf("review score = %v, want 0.85", d.Review.Score)
	}
}

func TestReviewUnmarshal_BareString(t *testing.T) {
	var d ReflectionData
	raw := []byte(`{"review": "needs a control group"}`)
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Review.Text != "needs a control group" {
		t.Errorf("review text = %q", d.Review.Text)
	}
	if d.Review.Score != nil {
		t.Errorf("bare string review should carry no score, got %v", *d.Review.Score)
	}
}

func TestHypothesisReady(t *testing.T) {
	tests := []struct {
		name string
		h    Hypothesis
		want bool
	}{
		{"reviewed and scored", Hypothesis{Review: "ok", Score: 0.9}, true},
		{"still processing", Hypothesis{Review: "ok", Score: 0.9, Processing: true}, false},
		{"no review", Hypothesis{Score: 0.9}, false},
		{"unscored", Hypothesis{Review: "ok"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.Ready(); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}
