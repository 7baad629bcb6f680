package lifecycle

import (
	"sync"
	"testing"
	"time"
)

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewManager(t *testing.T) {
	m := NewManager(nil, nil)

	if m.State() != StateStopped {
		t.Errorf("initial state = %v, want StateStopped", m.State())
	}
	if !m.CanStart() {
		t.Error("CanStart() = false for a stopped manager, want true")
	}
	if m.CanStop() {
		t.Error("CanStop() = true for a stopped manager, want false")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestManager_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"stopped to starting", StateStopped, StateStarting, false},
		{"starting to running", StateStarting, StateRunning, false},
		{"starting to stopped", StateStarting, StateStopped, false}, // failed start
		{"starting to stopping", StateStarting, StateStopping, false},
		{"running to stopping", StateRunning, StateStopping, false},
		{"stopping to stopped", StateStopping, StateStopped, false},
		{"stopped to running", StateStopped, StateRunning, true},
		{"stopped to stopping", StateStopped, StateStopping, true},
		{"running to starting", StateRunning, StateStarting, true},
		{"stopping to running", StateStopping, StateRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")

			if (err != nil) != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", m.State(), tt.to)
			}
			if err != nil && m.State() != tt.from {
				t.Errorf("state = %v after rejected transition, want %v", m.State(), tt.from)
			}
		})
	}
}

func TestManager_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	m := NewManager(nil, emitter)

	if err := m.TransitionTo(StateStarting, "start requested"); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}

	events := emitter.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.previous != StateStopped || e.current != StateStarting || e.reason != "start requested" {
		t.Errorf("event = %+v, want Stopped -> Starting / start requested", e)
	}
}

func TestManager_WaitWithTimeout(t *testing.T) {
	m := NewManager(nil, nil)

	m.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		m.WorkerDone()
	}()

	if err := m.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() error = %v, want nil", err)
	}
}

func TestManager_WaitWithTimeout_Expires(t *testing.T) {
	m := NewManager(nil, nil)

	m.AddWorker()
	defer m.WorkerDone()

	if err := m.WaitWithTimeout(20 * time.Millisecond); err != ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() error = %v, want ErrShutdownTimeout", err)
	}
}
