package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/linetap/linetap/internal/domain"
	"github.com/linetap/linetap/internal/framing"
	"github.com/linetap/linetap/pkg/lifecycle"
	"github.com/linetap/linetap/pkg/log"
)

// Default tuning values for the receiving side.
const (
	DefaultFlushWindow   = 500 * time.Millisecond
	DefaultReadBuffer    = 4096
	DefaultShutdownGrace = 5 * time.Second
)

// Config holds the configuration for the receiving server.
type Config struct {
	// Port is the TCP port to listen on. 0 binds an ephemeral port
	// (use Addr to discover it).
	Port int

	// FlushWindow is the debounce window between the first accumulated
	// record and its delivery to the sink.
	FlushWindow time.Duration

	// ReadBufferSize is the per-connection read buffer size in bytes.
	ReadBufferSize int

	// ShutdownGrace bounds how long Stop waits for connection readers.
	ShutdownGrace time.Duration

	// Sink receives every flushed batch. Required.
	Sink Sink

	// Logger receives diagnostic records. Defaults to a no-op logger.
	Logger log.Logger
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.FlushWindow <= 0 {
		c.FlushWindow = DefaultFlushWindow
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = DefaultReadBuffer
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
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.Sink == nil {
		return fmt.Errorf("%w: sink is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Server is the receiving side of the transport: it accepts producer
// connections, reassembles their byte streams into records, batches them on
// a debounce window and delivers each batch to the configured sink.
//
// The zero value is not usable; create instances with New.
type Server struct {
	cfg      Config
	logger   log.Logger
	lc       *lifecycle.Manager
	registry *Registry

	agg *Aggregator
	ln  net.Listener
}

// New creates a server in the Stopped state.
func New(cfg Config) (*Server, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		lc:       lifecycle.NewManager(cfg.Logger, nil),
		registry: NewRegistry(),
	}, nil
}

// Start binds the listen port and begins accepting producers.
//
// A bind failure (port in use) is returned synchronously and leaves the
// server fully stopped. A cancelled ctx is rejected before the port is
// bound. Returns domain.ErrAlreadyRunning if the server is running and
// domain.ErrAlreadyStopping while a previous Stop is draining.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.lc.CanStart() {
		if s.lc.State() == lifecycle.StateStopping {
			return domain.ErrAlreadyStopping
		}
		return domain.ErrAlreadyRunning
	}
	if err := s.lc.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		// Lost a race with a concurrent Start.
		return domain.ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		_ = s.lc.TransitionTo(lifecycle.StateStopped, "bind failed")
		return fmt.Errorf("bind port %d: %w", s.cfg.Port, err)
	}
	s.ln = ln

	s.agg = NewAggregator(s.cfg.FlushWindow, s.cfg.Sink, s.logger)
	s.agg.Start()

	s.lc.AddWorker()
	go s.acceptLoop(ln)

	_ = s.lc.TransitionTo(lifecycle.StateRunning, "listener bound")
	s.logger.Info("listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Stop closes the listener and every open connection, delivers any pending
// batch, and releases the port. Stopping an already-stopped server succeeds
// with no side effects.
func (s *Server) Stop() error {
	if err := s.lc.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		// Already stopped or another Stop is in flight.
		return nil
	}

	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.registry.CloseAll()

	if err := s.lc.WaitWithTimeout(s.cfg.ShutdownGrace); err != nil {
		s.logger.Warn("connection readers did not drain", log.Err(err))
	}
	if s.agg != nil {
		s.agg.Stop()
	}

	_ = s.lc.TransitionTo(lifecycle.StateStopped, "shutdown complete")
	s.logger.Info("stopped")
	return nil
}

// Inject feeds a locally produced record directly into the batch
// aggregator, bypassing the network path. The record is subject to the same
// whitespace policy as decoded lines. Returns domain.ErrNotRunning if the
// server is not running.
func (s *Server) Inject(text string) error {
	if s.lc.State() != lifecycle.StateRunning {
		return domain.ErrNotRunning
	}
	if line := strings.TrimSpace(text); line != "" {
		s.agg.Append([]string{line})
	}
	return nil
}

// State returns the lifecycle state of the server.
func (s *Server) State() lifecycle.State {
	return s.lc.State()
}

// Addr returns the bound listen address, or nil before a successful Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Connections returns the number of currently open producer connections.
func (s *Server) Connections() int {
	return s.registry.Len()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.lc.WorkerDone()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Error("accept failed", log.Err(err))
			}
			return
		}
		s.registry.Add(conn)
		s.logger.Info("producer connected", log.String("remote", conn.RemoteAddr().String()))

		s.lc.AddWorker()
		go s.readConn(conn)
	}
}

// readConn owns one connection: it feeds every read into the connection's
// decoder and forwards complete records to the aggregator. On close or
// error the residual buffer is flushed as a final record and the connection
// is deregistered. Faults here are contained; they never affect the
// listener or other connections.
func (s *Server) readConn(conn net.Conn) {
	defer s.lc.WorkerDone()

	remote := conn.RemoteAddr().String()
	dec := framing.NewDecoder()
	buf := make([]byte, s.cfg.ReadBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if records := dec.Feed(buf[:n]); len(records) > 0 {
				s.agg.Append(records)
			}
		}
		if err != nil {
			if rec, ok := dec.Flush(); ok {
				s.agg.Append([]string{rec})
			}
			s.registry.Remove(remote)
			_ = conn.Close()

			switch {
			case errors.Is(err, io.EOF):
				s.logger.Info("producer disconnected", log.String("remote", remote))
			case errors.Is(err, net.ErrClosed):
				s.logger.Info("connection closed", log.String("remote", remote))
			default:
				s.logger.Warn("connection error",
					log.String("remote", remote),
					log.Err(err),
				)
			}
			return
		}
	}
}
