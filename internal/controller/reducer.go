package controller

import (
	"encoding/json"

	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

// ApplySessionUpdate handles one session_update event. It is a dispatch
// sink method; every branch is a named transition on the state aggregate.
func (c *Controller) ApplySessionUpdate(event domain.EventType, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event {
	case domain.EventResearchStarted:
		c.markResearchStarted()
	case domain.EventIterationStart:
		var d domain.IterationStartData
		if err := json.Unmarshal(data, &d); err != nil {
			c.logger.Warn("dropping iteration_start with bad payload", zap.Error(err))
			return
		}
		c.beginIteration(d.Iteration)
	case domain.EventResearchCompleted:
		c.completeResearch()
	case domain.EventResearchError:
		var d domain.ResearchErrorData
		if err := json.Unmarshal(data, &d); err != nil {
			c.logger.Warn("dropping research_error with bad payload", zap.Error(err))
			return
		}
		c.failResearch(d.Error)
	}
}

// ApplyAgentUpdate handles one agent_update event: progress aggregation
// always, hypothesis merging only on completion.
func (c *Controller) ApplyAgentUpdate(agent domain.Agent, status domain.AgentStatus, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.CurrentAgent = agent
	c.state.Progress.Set(agent, status)

	// Sticky: agents complete independently within an iteration, so only
	// session-level transitions ever clear this flag.
	if status == domain.AgentRunning {
		c.state.Running = true
	}

	if status != domain.AgentCompleted {
		return
	}

	switch agent {
	case domain.AgentGeneration:
		c.mergeGenerated(data)
	case domain.AgentReflection:
		c.mergeReviews(data)
	case domain.AgentRanking:
		c.replaceRanked(data)
	}
}

func (c *Controller) markResearchStarted() {
	c.state.Running = true
}

func (c *Controller) beginIteration(iteration int) {
	c.state.Iteration = iteration
	c.state.Progress.Reset()
	c.logger.Info("iteration started", zap.Int("iteration", iteration))
}

func (c *Controller) completeResearch() {
	c.state.Session.Status = domain.StatusCompleted
	c.state.Progress.ForceCompleted()
	c.state.Running = false
	c.logger.Info("research completed",
		zap.String("session_id", c.state.Session.ID),
		zap.Int("hypotheses", len(c.state.Hypotheses)))
}

func (c *Controller) failResearch(message string) {
	c.state.Session.Status = domain.StatusError
	c.state.Session.LastError = message
	c.state.Running = false
	c.state.Started = false
	c.logger.Error("research failed",
		zap.String("session_id", c.state.Session.ID),
		zap.String("error", message))
}

// mergeGenerated inserts newly generated hypotheses. The payload carries
// either a single hypothesis or a list; either way an identifier already
// stored is left alone.
func (c *Controller) mergeGenerated(data json.RawMessage) {
	var d domain.GenerationData
	if err := json.Unmarshal(data, &d); err != nil {
		c.logger.Warn("dropping generation payload", zap.Error(err))
		return
	}

	incoming := d.Hypotheses
	if d.Hypothesis != nil {
		incoming = append([]domain.Hypothesis{*d.Hypothesis}, incoming...)
	}

	for _, h := range incoming {
		if h.ID == "" || c.hasHypothesis(h.ID) {
			continue
		}
		h.Processing = true
		if h.Iteration == 0 {
			if d.Iteration != 0 {
				h.Iteration = d.Iteration
			} else {
				h.Iteration = c.state.Iteration
			}
		}
		c.state.Hypotheses = append(c.state.Hypotheses, h)
		c.logger.Debug("hypothesis generated",
			zap.String("id", h.ID),
			zap.Int("iteration", h.Iteration))
	}
}

// mergeReviews applies a reflection result to every in-flight hypothesis of
// the current iteration. Other iterations are untouched, which keeps a late
// reflection from contaminating earlier results.
func (c *Controller) mergeReviews(data json.RawMessage) {
	var d domain.ReflectionData
	if err := json.Unmarshal(data, &d); err != nil {
		c.logger.Warn("dropping reflection payload", zap.Error(err))
		return
	}

	for i := range c.state.Hypotheses {
		h := &c.state.Hypotheses[i]
		if h.Iteration != c.state.Iteration || !h.Processing {
			continue
		}
		h.Review = d.Review.Text
		if d.Review.Score != nil {
			h.Score = *d.Review.Score
		}
		h.Processing = false
	}
}

// replaceRanked swaps in the ranked collection wholesale. This is the only
// point where the collection is replaced rather than merged.
func (c *Controller) replaceRanked(data json.RawMessage) {
	var d domain.RankingData
	if err := json.Unmarshal(data, &d); err != nil {
		c.logger.Warn("dropping ranking payload", zap.Error(err))
		return
	}
	if d.RankedHypotheses == nil {
		return
	}

	ranked := make([]domain.Hypothesis, len(d.RankedHypotheses))
	for i, h := range d.RankedHypotheses {
		h.Processing = false
		ranked[i] = h
	}
	c.state.Hypotheses = ranked
}

func (c *Controller) hasHypothesis(id string) bool {
	for _, h := range c.state.Hypotheses {
		if h.ID == id {
			return true
		}
	}
	return false
}
