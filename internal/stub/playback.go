package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

// Canned material for scripted sessions. Scores cycle so repeated runs are
// deterministic while still exercising every quality tier.
var (
	hypothesisTemplates = []string{
		"Targeting %s through modulation of cellular stress responses",
		"A comparative framework for %s grounded in recent literature",
		"Repurposing established interventions to address %s",
		"A systems-level model explaining variance observed in %s",
		"An experimental protocol isolating the dominant mechanism behind %s",
	}
	scriptedScores  = []float64{0.92, 0.78, 0.64, 0.85, 0.37}
	scriptedReviews = []string{
		"Well grounded in prior work with a clear, falsifiable mechanism.",
		"Plausible and novel, though the proposed effect size may be optimistic.",
		"Interesting direction; the causal pathway needs tighter definition.",
		"Strong methodology with direct translational potential.",
		"Speculative; existing evidence points the other way.",
	}
)

// playSession broadcasts a full scripted research run over the channel:
// research_started, then per iteration the generation/reflection/ranking
// sequence, then research_completed. Cancellation stops playback between
// steps.
func (s *Server) playSession(ctx context.Context, req backend.StartRequest, run *sessionRun) {
	s.broadcastSession(req.SessionID, domain.EventResearchStarted, map[string]any{
		"research_goal":            req.ResearchGoal,
		"max_iterations":           req.MaxIterations,
		"hypotheses_per_iteration": req.HypothesesPerIteration,
	})

	var all []domain.Hypothesis

	for iteration := 1; iteration <= req.MaxIterations; iteration++ {
		if !s.pause(ctx) {
			return
		}

		s.mu.Lock()
		run.iteration = iteration
		s.mu.Unlock()

		s.broadcastSession(req.SessionID, domain.EventIterationStart, map[string]any{"iteration": iteration})

		// Generation
		s.broadcastAgent(req.SessionID, domain.AgentGeneration, domain.AgentRunning, nil)
		if !s.pause(ctx) {
			return
		}

		generated := make([]domain.Hypothesis, 0, req.HypothesesPerIteration)
		for i := 0; i < req.HypothesesPerIteration; i++ {
			n := len(all) + i
			generated = append(generated, domain.Hypothesis{
				ID:        fmt.Sprintf("hyp_%s_%d_%d", req.SessionID, iteration, n),
				Content:   fmt.Sprintf(hypothesisTemplates[n%len(hypothesisTemplates)], req.ResearchGoal),
				Iteration: iteration,
				LiteratureSources: []domain.Citation{{
					Title:          fmt.Sprintf("Comprehensive review of %s methodologies", req.ResearchGoal),
					Authors:        []string{"Academic, R.", "Scholar, G."},
					Journal:        "Journal of Advanced Research",
					Year:           "2024",
					Abstract:       "Systematic analysis of current methodologies and open challenges.",
					Source:         "scholar",
					SearchStrategy: "broad_survey",
				}},
			})
		}
		s.broadcastAgent(req.SessionID, domain.AgentGeneration, domain.AgentCompleted, map[string]any{
			"hypotheses": generated,
		})

		// Reflection
		s.broadcastAgent(req.SessionID, domain.AgentReflection, domain.AgentRunning, nil)
		if !s.pause(ctx) {
			return
		}

		score := scriptedScores[(iteration-1)%len(scriptedScores)]
		review := scriptedReviews[(iteration-1)%len(scriptedReviews)]
		for i := range generated {
			generated[i].Score = score
			generated[i].Review = review
		}
		all = append(all, generated...)
		s.broadcastAgent(req.SessionID, domain.AgentReflection, domain.AgentCompleted, map[string]any{
			"review": map[string]any{"review": review, "score": score},
		})

		// Ranking runs once more than one hypothesis exists.
		if len(all) > 1 {
			s.broadcastAgent(req.SessionID, domain.AgentRanking, domain.AgentRunning, nil)
			if !s.pause(ctx) {
				return
			}

			sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
			for i := range all {
				rank := i + 1
				all[i].Rank = &rank
			}
			s.broadcastAgent(req.SessionID, domain.AgentRanking, domain.AgentCompleted, map[string]any{
				"ranked_hypotheses": all,
			})
		}

		s.mu.Lock()
		run.hypotheses = append([]domain.Hypothesis(nil), all...)
		s.mu.Unlock()
	}

	s.mu.Lock()
	run.status = "completed"
	s.mu.Unlock()

	s.broadcastSession(req.SessionID, domain.EventResearchCompleted, map[string]any{
		"total_hypotheses": len(all),
		"status":           "completed",
	})
	s.logger.Info("scripted session completed",
		zap.String("session_id", req.SessionID),
		zap.Int("hypotheses", len(all)))
}

func (s *Server) broadcastAgent(sessionID string, agent domain.Agent, status domain.AgentStatus, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal agent update", zap.Error(err))
		return
	}
	s.hub.Broadcast(domain.Message{
		Type:      domain.MessageAgentUpdate,
		SessionID: sessionID,
		Agent:     string(agent),
		Status:    string(status),
		Data:      raw,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *Server) broadcastSession(sessionID string, event domain.EventType, data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal session update", zap.Error(err))
		return
	}
	s.hub.Broadcast(domain.Message{
		Type:      domain.MessageSessionUpdate,
		SessionID: sessionID,
		EventType: string(event),
		Data:      raw,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *Server) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.stepDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
