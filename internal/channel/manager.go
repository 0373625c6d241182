package channel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultCloseRetryDelay = 3 * time.Second
	defaultFailRetryDelay  = 5 * time.Second
)

// Handler receives each inbound frame un-mutated, in arrival order.
type Handler func(payload []byte)

// Manager owns the one persistent duplex connection to the research
// service. It reconnects unconditionally after both dial failures and
// dropped connections; there is no retry cap. Connectivity is exposed
// read-only through Connected.
type Manager struct {
	url     string
	handler Handler
	logger  *zap.Logger

	closeRetryDelay time.Duration
	failRetryDelay  time.Duration

	connected atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewManager(url string, handler Handler, logger *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		url:             url,
		handler:         handler,
		logger:          logger,
		closeRetryDelay: defaultCloseRetryDelay,
		failRetryDelay:  defaultFailRetryDelay,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// SetRetryDelays overrides the reconnect delays for dropped connections
// and failed dials respectively.
func (m *Manager) SetRetryDelays(closeDelay, failDelay time.Duration) {
	m.closeRetryDelay = closeDelay
	m.failRetryDelay = failDelay
}

// Connected reports whether the channel is currently established.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Start launches the supervised connect/read loop in a background
// goroutine. The loop lives until Stop.
func (m *Manager) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run()
	}()
}

// Stop tears the channel down deterministically: cancels the supervisor,
// closes any live connection and waits for the loop to exit.
func (m *Manager) Stop() {
	m.cancel()
	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) run() {
	for {
		if m.ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(m.ctx, m.url, nil)
		if err != nil {
			m.connected.Store(false)
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Warn("channel dial failed",
				zap.String("url", m.url),
				zap.Duration("retry_in", m.failRetryDelay),
				zap.Error(err))
			if !m.sleep(m.failRetryDelay) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()

		// Stop's close pass may have run between the dial and the store
		// above, finding no conn to close. Pair it here.
		if m.ctx.Err() != nil {
			_ = conn.Close()
			m.mu.Lock()
			m.conn = nil
			m.mu.Unlock()
			return
		}

		m.connected.Store(true)
		m.logger.Info("channel connected", zap.String("url", m.url))

		m.read(conn)

		m.connected.Store(false)
		_ = conn.Close()
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()

		if m.ctx.Err() != nil {
			return
		}
		m.logger.Warn("channel closed", zap.Duration("retry_in", m.closeRetryDelay))
		if !m.sleep(m.closeRetryDelay) {
			return
		}
	}
}

func (m *Manager) read(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if m.ctx.Err() == nil {
				m.logger.Debug("channel read ended", zap.Error(err))
			}
			return
		}
		m.handler(payload)
	}
}

func (m *Manager) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-m.ctx.Done():
		return false
	}
}
