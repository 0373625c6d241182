package domain

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle phase of a research session.
type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
)

func ValidSessionStatus(s string) bool {
	switch SessionStatus(s) {
	case StatusIdle, StatusRunning, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Bounds for session parameters. Values outside these are clamped, never
// rejected.
const (
	MinIterations     = 1
	MaxIterations     = 10
	DefaultIterations = 3

	MinHypothesesPerIteration     = 1
	MaxHypothesesPerIteration     = 5
	DefaultHypothesesPerIteration = 1
)

// SessionConfig carries the tunable parameters of a research run.
type SessionConfig struct {
	MaxIterations          int `json:"max_iterations"`
	HypothesesPerIteration int `json:"hypotheses_per_iteration"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxIterations:          DefaultIterations,
		HypothesesPerIteration: DefaultHypothesesPerIteration,
	}
}

// Clamp returns a copy with both parameters forced into their valid ranges.
func (c SessionConfig) Clamp() SessionConfig {
	if c.MaxIterations < MinIterations {
		c.MaxIterations = MinIterations
	}
	if c.MaxIterations > MaxIterations {
		c.MaxIterations = MaxIterations
	}
	if c.HypothesesPerIteration < MinHypothesesPerIteration {
		c.HypothesesPerIteration = MinHypothesesPerIteration
	}
	if c.HypothesesPerIteration > MaxHypothesesPerIteration {
		c.HypothesesPerIteration = MaxHypothesesPerIteration
	}
	return c
}

// Session identifies one research run and its terminal outcome.
type Session struct {
	ID        string        `json:"id"`
	Goal      string        `json:"goal"`
	Status    SessionStatus `json:"status"`
	Config    SessionConfig `json:"config"`
	LastError string        `json:"last_error,omitempty"`
}

// NewSessionID mints a time-based session identifier.
func NewSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixMilli())
}
