package controller

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInference_FiresAfterQuietWindow(t *testing.T) {
	var asked atomic.Value
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		asked.Store(question)
		return &domain.DomainContext{
			Domain:         "biology",
			ExpertRole:     "biological researcher",
			ResearchFocus:  "extremophile biology",
			HypothesisType: "mechanistic hypothesis",
		}, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(10 * time.Millisecond)

	c.SetResearchQuestion("how do tardigrades survive vacuum exposure")

	assert.Eventually(t, func() bool {
		return c.Snapshot().DomainContext != nil
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "biology", c.Snapshot().DomainContext.Domain)
	assert.Equal(t, "how do tardigrades survive vacuum exposure", asked.Load())
}

func TestInference_OnlyMostRecentTimerFires(t *testing.T) {
	var calls atomic.Int32
	var lastQuestion atomic.Value
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		calls.Add(1)
		lastQuestion.Store(question)
		dc := domain.DefaultDomainContext()
		return &dc, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(30 * time.Millisecond)

	// Keystrokes in quick succession: each re-arms the timer.
	c.SetResearchQuestion("why do tardigrades survive")
	c.SetResearchQuestion("why do tardigrades survive vac")
	c.SetResearchQuestion("why do tardigrades survive vacuum")

	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load(), "earlier pending timers must be invalidated")
	assert.Equal(t, "why do tardigrades survive vacuum", lastQuestion.Load())
}

func TestInference_ShrinkingInputCancelsAndClears(t *testing.T) {
	var calls atomic.Int32
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		calls.Add(1)
		dc := domain.DefaultDomainContext()
		return &dc, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(50 * time.Millisecond)

	c.SetResearchQuestion("twenty characters....") // 21 chars, arms the timer
	c.SetResearchQuestion("ten chars.")            // shrinks below threshold before the window elapses

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load(), "no inference request may be issued")
	assert.Nil(t, c.Snapshot().DomainContext)
}

func TestInference_ThresholdIsExclusive(t *testing.T) {
	var calls atomic.Int32
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		calls.Add(1)
		dc := domain.DefaultDomainContext()
		return &dc, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(10 * time.Millisecond)

	c.SetResearchQuestion("exactly 15 ch..") // len == 15: at the threshold, must not fire
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	c.SetResearchQuestion("sixteen chars...") // len == 16: exceeds the threshold
	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInference_ThresholdCountsCharactersNotBytes(t *testing.T) {
	var calls atomic.Int32
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		calls.Add(1)
		dc := domain.DefaultDomainContext()
		return &dc, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(10 * time.Millisecond)

	c.SetResearchQuestion(strings.Repeat("é", 15)) // 30 bytes but 15 characters: at the threshold
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	c.SetResearchQuestion(strings.Repeat("é", 16))
	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestInference_PendingTimerCancelledByStart(t *testing.T) {
	var calls atomic.Int32
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		calls.Add(1)
		dc := domain.DefaultDomainContext()
		return &dc, nil
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(50 * time.Millisecond)

	c.SetResearchQuestion("why do tardigrades survive vacuum")
	_, err := c.Start(context.Background(), "repurpose metformin", domain.DefaultSessionConfig())
	assert.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "timer armed before the start must not fire")
	assert.Nil(t, c.Snapshot().DomainContext)
}

func TestInference_FailureSubstitutesDefaultContext(t *testing.T) {
	b := &mockBackend{detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
		return nil, errors.New("POST /api/research/detect-domain returned status 500")
	}}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(10 * time.Millisecond)

	c.SetResearchQuestion("why do tardigrades survive vacuum")

	assert.Eventually(t, func() bool {
		return c.Snapshot().DomainContext != nil
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.DefaultDomainContext(), *c.Snapshot().DomainContext)
}

func TestInference_SuppressedWhileSessionStarted(t *testing.T) {
	var calls atomic.Int32
	b := &mockBackend{
		detectFn: func(ctx context.Context, question string) (*domain.DomainContext, error) {
			calls.Add(1)
			dc := domain.DefaultDomainContext()
			return &dc, nil
		},
		startFn: func(ctx context.Context, req backend.StartRequest) (*backend.StartResponse, error) {
			return &backend.StartResponse{SessionID: req.SessionID, Status: "started"}, nil
		},
	}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(10 * time.Millisecond)

	_, err := c.Start(context.Background(), "repurpose metformin", domain.DefaultSessionConfig())
	assert.NoError(t, err)

	c.SetResearchQuestion("why do tardigrades survive vacuum")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load(), "inference must not fire while a session is started")
}

func TestInference_ShortInputClearsExistingContext(t *testing.T) {
	b := &mockBackend{}
	c := New(b, fakeTransport(true), zap.NewNop())
	c.SetDebounceWindow(5 * time.Millisecond)

	c.SetResearchQuestion("why do tardigrades survive vacuum")
	assert.Eventually(t, func() bool {
		return c.Snapshot().DomainContext != nil
	}, time.Second, 5*time.Millisecond)

	c.SetResearchQuestion("short")
	assert.Nil(t, c.Snapshot().DomainContext)
}
