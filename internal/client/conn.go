package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/linetap/linetap/pkg/log"
)

// ConnState describes the outbound connection.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

// String returns a human-readable representation of the state.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Dialer opens outbound connections. *net.Dialer satisfies this interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

var errNotConnected = errors.New("not connected")

// ConnManager owns the single outbound connection: it establishes it with a
// fixed-delay retry loop, hands writes to it, and demotes the state on any
// write failure so the next send triggers a reconnect.
//
// At most one live connection exists at any time. Connect failures are
// contained within the retry loop and reduced to log records; only context
// cancellation escapes it.
type ConnManager struct {
	addr       string
	retryDelay time.Duration
	dialer     Dialer
	logger     log.Logger

	state atomic.Int32

	mu   sync.Mutex
	conn net.Conn
}

// NewConnManager creates a manager in the Disconnected state.
func NewConnManager(addr string, retryDelay time.Duration, dialer Dialer, logger log.Logger) *ConnManager {
	return &ConnManager{
		addr:       addr,
		retryDelay: retryDelay,
		dialer:     dialer,
		logger:     logger,
	}
}

// State returns the current connection state.
func (m *ConnManager) State() ConnState {
	return ConnState(m.state.Load())
}

// ConnectWithRetry dials until a connection is established or ctx is
// cancelled, waiting the configured delay between attempts. Cancellation
// interrupts a pending delay promptly. On success the fresh connection is
// installed and the state becomes Connected.
func (m *ConnManager) ConnectWithRetry(ctx context.Context) error {
	m.state.Store(int32(Connecting))

	var conn net.Conn
	err := retry.Do(
		func() error {
			c, err := m.dialer.DialContext(ctx, "tcp", m.addr)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0), // until success or cancellation
		retry.Delay(m.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Warn("connect failed, will retry",
				log.String("addr", m.addr),
				log.Duration("delay", m.retryDelay),
				log.Err(err),
			)
		}),
	)
	if err != nil {
		m.state.Store(int32(Disconnected))
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	m.state.Store(int32(Connected))

	m.logger.Info("connected", log.String("addr", m.addr))
	return nil
}

// Write sends one record terminated by a line break. Any failure closes the
// connection and demotes the state to Disconnected; the caller does not
// retry the record.
func (m *ConnManager) Write(text string) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return errNotConnected
	}
	if _, err := conn.Write([]byte(text + "\n")); err != nil {
		m.demote(err)
		return err
	}
	return nil
}

// Close tears down the connection and leaves the manager Disconnected.
func (m *ConnManager) Close() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.state.Store(int32(Disconnected))
}

func (m *ConnManager) demote(cause error) {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.state.Store(int32(Disconnected))

	m.logger.Warn("connection lost", log.String("addr", m.addr), log.Err(cause))
}
