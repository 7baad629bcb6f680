package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/linetap/linetap/internal/domain"
	"github.com/linetap/linetap/pkg/lifecycle"
	"github.com/linetap/linetap/pkg/log"
)

// Default tuning values for the sending side.
const (
	DefaultRetryDelay    = 5 * time.Second
	DefaultDialTimeout   = 10 * time.Second
	DefaultShutdownGrace = 5 * time.Second
)

// Config holds the configuration for the shipping client.
type Config struct {
	// Host is the receiver's address.
	Host string

	// Port is the receiver's TCP port.
	Port int

	// RetryDelay is the fixed wait between failed connect attempts.
	RetryDelay time.Duration

	// DialTimeout bounds a single connect attempt.
	DialTimeout time.Duration

	// ShutdownGrace bounds how long Close waits for the send loop to drain.
	ShutdownGrace time.Duration

	// Logger receives diagnostic records. Defaults to a no-op logger.
	Logger log.Logger
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.Logger == nil {
		c.Logger = log.NewNoopLogger()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", domain.ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	return nil
}

// Shipper is the sending side of the transport. Callers enqueue records
// without ever blocking; a single background send loop drains the queue,
// (re)establishing the connection through the ConnManager as needed.
//
// Delivery is at most once per record: a record consumed from the queue is
// not re-enqueued if its write fails. That loss boundary is deliberate; the
// alternative would be duplicates after every reconnect.
type Shipper struct {
	cfg    Config
	logger log.Logger
	lc     *lifecycle.Manager
	queue  *Queue
	mgr    *ConnManager
}

// New creates a shipper in the Stopped state.
func New(cfg Config) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	return &Shipper{
		cfg:    cfg,
		logger: cfg.Logger,
		lc:     lifecycle.NewManager(cfg.Logger, nil),
		queue:  NewQueue(),
		mgr:    NewConnManager(addr, cfg.RetryDelay, dialer, cfg.Logger),
	}, nil
}

// Start launches the send loop. The connection itself is established lazily
// when the first record is dequeued. Returns domain.ErrAlreadyRunning if
// the shipper has already been started.
func (s *Shipper) Start(ctx context.Context) error {
	if !s.lc.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lc.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return domain.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lc.SetCancel(cancel)

	s.lc.AddWorker()
	go s.sendLoop(runCtx)

	_ = s.lc.TransitionTo(lifecycle.StateRunning, "send loop started")
	return nil
}

// Enqueue queues a plain message for transmission. It never blocks and,
// after Close, is a silent no-op.
func (s *Shipper) Enqueue(text string) {
	s.queue.Enqueue(text)
}

// EnqueueEntry formats a structured entry into one line and queues it.
func (s *Shipper) EnqueueEntry(e Entry) {
	s.queue.Enqueue(e.Format())
}

// ConnState returns the state of the outbound connection.
func (s *Shipper) ConnState() ConnState {
	return s.mgr.State()
}

// State returns the lifecycle state of the shipper.
func (s *Shipper) State() lifecycle.State {
	return s.lc.State()
}

// Pending returns the number of queued records not yet handed to the send loop.
func (s *Shipper) Pending() int {
	return s.queue.Len()
}

// Close shuts the shipper down: the queue stops accepting records, the send
// loop gets a grace period to drain, then any remaining wait (such as an
// in-flight retry delay) is cancelled and the socket is closed. Close is
// idempotent. When the send loop cannot drain within the grace period the
// queued remainder is abandoned and Close returns domain.ErrShutdownTimeout;
// the shipper is fully closed either way.
func (s *Shipper) Close() error {
	if err := s.lc.TransitionTo(lifecycle.StateStopping, "Close() called"); err != nil {
		// Never started, or already closed. The queue must stop
		// accepting records regardless of lifecycle history.
		s.queue.Close()
		return nil
	}

	s.queue.Close()

	var drainErr error
	if err := s.lc.WaitWithTimeout(s.cfg.ShutdownGrace); err != nil {
		s.logger.Warn("send loop did not drain, abandoning queue",
			log.Int("pending", s.queue.Len()),
		)
		s.lc.Cancel()
		_ = s.lc.WaitWithTimeout(time.Second)
		drainErr = domain.ErrShutdownTimeout
	} else {
		s.lc.Cancel()
	}

	s.mgr.Close()
	_ = s.lc.TransitionTo(lifecycle.StateStopped, "closed")
	s.logger.Info("shipper closed")
	return drainErr
}

// sendLoop is the single queue consumer. For each record it ensures the
// connection is up (suspending inside the retry loop when it is not) and
// writes the record. A failed write demotes the connection and drops the
// record; the next iteration reconnects.
func (s *Shipper) sendLoop(ctx context.Context) {
	defer s.lc.WorkerDone()

	for {
		text, ok := s.queue.Dequeue(ctx)
		if !ok {
			return
		}

		if s.mgr.State() != Connected {
			if err := s.mgr.ConnectWithRetry(ctx); err != nil {
				// Cancelled during connect; the dequeued record is dropped
				// along with the rest of the abandoned queue.
				return
			}
		}

		if err := s.mgr.Write(text); err != nil {
			s.logger.Warn("send failed, record dropped", log.Err(err))
		}
	}
}
