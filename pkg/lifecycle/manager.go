package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linetap/linetap/pkg/log"
)

// ErrShutdownTimeout is returned when workers do not finish within the
// shutdown grace period.
var ErrShutdownTimeout = errors.New("lifecycle: shutdown timeout")

// Manager implements the lifecycle state machine for a component.
//
// Valid transitions:
//
//	Stopped  -> Starting
//	Starting -> Running | Stopped   (Stopped covers a failed start)
//	Running  -> Stopping
//	Stopping -> Stopped
type Manager struct {
	mu      sync.RWMutex
	state   State
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  log.Logger
	emitter EventEmitter
}

// NewManager creates a manager in StateStopped.
func NewManager(logger log.Logger, emitter EventEmitter) *Manager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Manager{state: StateStopped, logger: logger, emitter: emitter}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanStart returns true if the component may transition to Starting.
func (m *Manager) CanStart() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateStopped
}

// CanStop returns true if the component may transition to Stopping.
func (m *Manager) CanStop() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateRunning || m.state == StateStarting
}

// TransitionTo attempts to move to a new state.
// Returns an error if the transition is not valid from the current state.
func (m *Manager) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state

	valid := false
	switch oldState {
	case StateStopped:
		valid = newState == StateStarting
	case StateStarting:
		valid = newState == StateRunning || newState == StateStopped || newState == StateStopping
	case StateRunning:
		valid = newState == StateStopping
	case StateStopping:
		valid = newState == StateStopped
	}
	if !valid {
		m.mu.Unlock()
		return fmt.Errorf("lifecycle: invalid transition %s -> %s", oldState, newState)
	}

	m.state = newState
	m.mu.Unlock()

	// Emit outside the lock so handlers can query state.
	if m.emitter != nil {
		m.emitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

// SetCancel stores the cancel function used to interrupt workers on shutdown.
func (m *Manager) SetCancel(cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel = cancel
}

// Cancel invokes the stored cancel function, if any.
func (m *Manager) Cancel() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (m *Manager) AddWorker() {
	m.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (m *Manager) WorkerDone() {
	m.wg.Done()
}

// WaitWithTimeout waits for all workers to finish, up to timeout.
// Returns ErrShutdownTimeout if the timeout expires first.
func (m *Manager) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		m.logger.Warn("workers did not finish before grace period",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
