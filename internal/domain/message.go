package domain

import "encoding/json"

// Channel message discriminants.
const (
	MessageAgentUpdate   = "agent_update"
	MessageSessionUpdate = "session_update"
)

type EventType string

const (
	EventResearchStarted   EventType = "research_started"
	EventIterationStart    EventType = "iteration_start"
	EventResearchCompleted EventType = "research_completed"
	EventResearchError     EventType = "research_error"
)

func ValidEventType(e string) bool {
	switch EventType(e) {
	case EventResearchStarted, EventIterationStart, EventResearchCompleted, EventResearchError:
		return true
	}
	return false
}

// Message is the envelope for every inbound channel frame. Data stays raw
// until the receiving handler knows how to interpret it.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Agent     string          `json:"agent,omitempty"`
	Status    string          `json:"status,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// GenerationData is the payload of a completed generation update. The
// service broadcasts a list; older builds sent a single hypothesis.
type GenerationData struct {
	Hypothesis *Hypothesis  `json:"hypothesis,omitempty"`
	Hypotheses []Hypothesis `json:"hypotheses,omitempty"`
	Iteration  int          `json:"iteration,omitempty"`
}

// ReflectionData is the payload of a completed reflection update.
type ReflectionData struct {
	Review Review `json:"review"`
}

// Review accepts either the object form {"review": "...", "score": 0.9}
// or a bare string carrying the review text alone.
type Review struct {
	Text  string
	Score *float64
}

func (r *Review) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Text = s
		r.Score = nil
		return nil
	}
	var obj struct {
		Review string   `json:"review"`
		Score  *float64 `json:"score"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.Text = obj.Review
	r.Score = obj.Score
	return nil
}

// RankingData is the payload of a completed ranking update. The ranked
// list replaces the whole stored collection.
type RankingData struct {
	RankedHypotheses []Hypothesis `json:"ranked_hypotheses"`
}

// IterationStartData carries the iteration number of a new cycle.
type IterationStartData struct {
	Iteration int `json:"iteration"`
}

// ResearchErrorData carries the terminal error of a failed session.
type ResearchErrorData struct {
	Error string `json:"error"`
}
