package controller_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/channel"
	"github.com/cosci-dev/cosci/internal/controller"
	"github.com/cosci-dev/cosci/internal/dispatch"
	"github.com/cosci-dev/cosci/internal/domain"
	"github.com/cosci-dev/cosci/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lateTransport breaks the construction cycle between the controller (which
// needs a transport) and the channel manager (whose handler needs the
// controller via the dispatcher).
type lateTransport struct {
	mgr *channel.Manager
}

func (lt *lateTransport) Connected() bool {
	return lt.mgr != nil && lt.mgr.Connected()
}

type harness struct {
	ctrl *controller.Controller
	mgr  *channel.Manager
}

func startHarness(t *testing.T, stepDelay time.Duration) *harness {
	t.Helper()
	logger := zap.NewNop()

	srv := stub.NewServer(logger)
	srv.SetStepDelay(stepDelay)
	ts := httptest.NewServer(srv.Handler())

	client := backend.New(ts.URL, 5*time.Second, 100, 10, logger)

	transport := &lateTransport{}
	ctrl := controller.New(client, transport, logger)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	mgr := channel.NewManager(wsURL, dispatch.NewDispatcher(ctrl, logger).Dispatch, logger)
	mgr.SetRetryDelays(50*time.Millisecond, 50*time.Millisecond)
	transport.mgr = mgr
	mgr.Start()

	t.Cleanup(func() {
		mgr.Stop()
		ctrl.Close()
		ts.Close()
		srv.Close()
	})

	require.Eventually(t, mgr.Connected, 2*time.Second, 10*time.Millisecond,
		"channel never connected")
	return &harness{ctrl: ctrl, mgr: mgr}
}

// Wires the real client, channel manager, dispatcher and controller against
// the scripted stub service and runs a session to completion.
func TestScriptedSessionEndToEnd(t *testing.T) {
	h := startHarness(t, 5*time.Millisecond)

	sessionID, err := h.ctrl.Start(context.Background(), "improve solar cell efficiency", domain.SessionConfig{
		MaxIterations:          2,
		HypothesesPerIteration: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Session.Status == domain.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond, "session never completed")

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 2, snap.Iteration)
	for agent, status := range snap.Progress {
		assert.Equal(t, domain.AgentCompleted, status, "agent %s", agent)
	}

	ready := h.ctrl.ReadyHypotheses()
	require.Len(t, ready, 4)
	for i := 1; i < len(ready); i++ {
		assert.GreaterOrEqual(t, ready[i-1].Score, ready[i].Score, "ready set out of order at %d", i)
	}
	for _, hyp := range ready {
		assert.False(t, hyp.Processing)
		assert.NotEmpty(t, hyp.Review)
		assert.Contains(t, hyp.ID, "hyp_"+sessionID)
	}
}

func TestRemoteCancelStopsPlayback(t *testing.T) {
	h := startHarness(t, 30*time.Millisecond)

	_, err := h.ctrl.Start(context.Background(), "a goal to interrupt", domain.SessionConfig{
		MaxIterations:          5,
		HypothesesPerIteration: 1,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().Running
	}, 2*time.Second, 5*time.Millisecond, "session never started running")

	require.NoError(t, h.ctrl.Stop(context.Background()))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, domain.StatusIdle, snap.Session.Status)
	assert.False(t, snap.Started)

	// The cancelled playback must never reach completion.
	assert.Never(t, func() bool {
		return h.ctrl.Snapshot().Session.Status == domain.StatusCompleted
	}, 300*time.Millisecond, 25*time.Millisecond)
}
