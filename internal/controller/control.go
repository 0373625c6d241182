package controller

import (
	"context"
	"strings"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

// Start validates and issues the start command. It is the only writer of
// session identity and parameters. On a refused start nothing changes and
// no network call is made; on a failed start request the session lands in
// the error state with the failure surfaced as the session error.
func (c *Controller) Start(ctx context.Context, goal string, cfg domain.SessionConfig) (string, error) {
	goal = strings.TrimSpace(goal)

	c.mu.Lock()
	if goal == "" {
		c.mu.Unlock()
		return "", ErrEmptyGoal
	}
	if !c.transport.Connected() {
		c.mu.Unlock()
		return "", ErrDisconnected
	}

	// A timer armed before the start must not fire into the session.
	c.debounce.Cancel()

	cfg = cfg.Clamp()
	sessionID := domain.NewSessionID()

	c.state.Session.ID = sessionID
	c.state.Session.Goal = goal
	c.state.Session.Config = cfg
	c.state.Session.Status = domain.StatusRunning
	c.state.Session.LastError = ""
	c.state.Started = true
	c.state.Hypotheses = nil
	c.state.Iteration = 0
	c.state.CurrentAgent = ""
	c.state.Progress.Reset()
	c.mu.Unlock()

	c.logger.Info("starting research session",
		zap.String("session_id", sessionID),
		zap.Int("max_iterations", cfg.MaxIterations),
		zap.Int("hypotheses_per_iteration", cfg.HypothesesPerIteration))

	_, err := c.backendClient.StartResearch(ctx, backend.StartRequest{
		ResearchGoal:           goal,
		SessionID:              sessionID,
		MaxIterations:          cfg.MaxIterations,
		HypothesesPerIteration: cfg.HypothesesPerIteration,
	})
	if err != nil {
		c.mu.Lock()
		c.state.Session.Status = domain.StatusError
		c.state.Session.LastError = err.Error()
		c.state.Started = false
		c.state.Running = false
		c.mu.Unlock()
		return "", err
	}

	return sessionID, nil
}

// Stop performs the local running -> idle transition, then fires a
// best-effort cancel at the service. Cancel failures are logged, never
// surfaced: the local state is already consistent.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Session.Status != domain.StatusRunning {
		c.mu.Unlock()
		return ErrNotRunning
	}
	sessionID := c.state.Session.ID
	c.state.Session.Status = domain.StatusIdle
	c.state.Started = false
	c.state.Running = false
	c.state.Iteration = 0
	c.state.CurrentAgent = ""
	c.state.Progress.Reset()
	c.mu.Unlock()

	if err := c.backendClient.CancelSession(ctx, sessionID); err != nil {
		c.logger.Warn("cancel request failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	return nil
}

// Reset clears the whole aggregate back to its initial shape, including
// session identity, hypotheses, domain context and configuration. Any
// pending inference timer is invalidated.
func (c *Controller) Reset() {
	c.debounce.Cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = State{
		Session:  domain.Session{Status: domain.StatusIdle, Config: domain.DefaultSessionConfig()},
		Progress: domain.NewAgentProgress(),
	}
}
