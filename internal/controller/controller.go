package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/domain"
	"go.uber.org/zap"
)

const (
	// Minimum trimmed input length before domain inference is considered.
	minQuestionLength = 15

	defaultDebounceWindow   = time.Second
	defaultInferenceTimeout = 15 * time.Second
)

var (
	ErrEmptyGoal    = errors.New("research goal must not be empty")
	ErrDisconnected = errors.New("not connected to the research service")
	ErrNotRunning   = errors.New("no session is running")
)

// Backend is the slice of the REST client the controller needs.
type Backend interface {
	StartResearch(ctx context.Context, req backend.StartRequest) (*backend.StartResponse, error)
	CancelSession(ctx context.Context, sessionID string) error
	DetectDomain(ctx context.Context, question string) (*domain.DomainContext, error)
}

// Transport exposes channel connectivity read-only.
type Transport interface {
	Connected() bool
}

// State is the whole session aggregate. It is mutated exclusively through
// the controller's named transition methods and read through Snapshot.
type State struct {
	Session       domain.Session
	Started       bool
	Running       bool
	Iteration     int
	CurrentAgent  domain.Agent
	Progress      domain.AgentProgress
	Hypotheses    []domain.Hypothesis
	DomainContext *domain.DomainContext
}

// Controller turns the asynchronous stream of lifecycle notifications into
// one consistent, queryable session state. Every transition runs as a
// discrete step under a single lock; network calls happen outside it.
type Controller struct {
	backendClient Backend
	transport     Transport
	logger        *zap.Logger

	debounceWindow   time.Duration
	inferenceTimeout time.Duration
	debounce         *debouncer

	mu    sync.Mutex
	state State
}

func New(b Backend, transport Transport, logger *zap.Logger) *Controller {
	return &Controller{
		backendClient:    b,
		transport:        transport,
		logger:           logger,
		debounceWindow:   defaultDebounceWindow,
		inferenceTimeout: defaultInferenceTimeout,
		debounce:         newDebouncer(),
		state: State{
			Session:  domain.Session{Status: domain.StatusIdle, Config: domain.DefaultSessionConfig()},
			Progress: domain.NewAgentProgress(),
		},
	}
}

// SetDebounceWindow overrides the inference debounce window.
func (c *Controller) SetDebounceWindow(d time.Duration) {
	c.debounceWindow = d
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.state
	snap.Progress = c.state.Progress.Clone()
	snap.Hypotheses = append([]domain.Hypothesis(nil), c.state.Hypotheses...)
	if c.state.DomainContext != nil {
		dc := *c.state.DomainContext
		snap.DomainContext = &dc
	}
	return snap
}

// ReadyHypotheses returns the fully reviewed and scored subset, sorted by
// score descending. The sort is stable: equal scores keep their relative
// order from the underlying collection.
func (c *Controller) ReadyHypotheses() []domain.Hypothesis {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ready []domain.Hypothesis
	for _, h := range c.state.Hypotheses {
		if h.Ready() {
			ready = append(ready, h)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].Score > ready[j].Score
	})
	return ready
}

// Close invalidates any pending inference timer. The transport channel is
// owned and torn down by the caller.
func (c *Controller) Close() {
	c.debounce.Cancel()
}
