package controller

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

// SetResearchQuestion feeds a keystroke's worth of free-text input into the
// debounced domain inference path. Input at or below the length threshold
// invalidates any pending timer and clears the context immediately; longer
// input re-arms the timer, so only the most recent quiet period fires.
//
// Inference responses are applied in completion order, not issuance order:
// a slow early response can overwrite a fresher one. Kept as observed.
func (c *Controller) SetResearchQuestion(text string) {
	trimmed := strings.TrimSpace(text)

	if utf8.RuneCountInString(trimmed) <= minQuestionLength {
		c.debounce.Cancel()
		c.mu.Lock()
		c.state.DomainContext = nil
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	started := c.state.Started
	c.mu.Unlock()
	if started {
		return
	}

	c.debounce.Arm(c.debounceWindow, func() {
		c.inferDomain(trimmed)
	})
}

func (c *Controller) inferDomain(question string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.inferenceTimeout)
	defer cancel()

	dc, err := c.backendClient.DetectDomain(ctx, question)
	if err != nil {
		// Never surfaced: fall back to the generic context.
		c.logger.Debug("domain inference failed, using default", zap.Error(err))
		fallback := domain.DefaultDomainContext()
		c.mu.Lock()
		c.state.DomainContext = &fallback
		c.mu.Unlock()
		return
	}

	c.logger.Debug("domain inferred",
		zap.String("domain", dc.Domain),
		zap.String("expert_role", dc.ExpertRole))
	c.mu.Lock()
	c.state.DomainContext = dc
	c.mu.Unlock()
}
