package session

import (
	"sync"
	"time"
)

// State is the call lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// StateChange represents a lifecycle transition event.
type StateChange struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes call state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// stateMachine validates call lifecycle transitions. ENDED is terminal;
// a finished call never comes back.
type stateMachine struct {
	currentState State
	mu           sync.RWMutex

	activeSince time.Time
	endedAt     time.Time

	stateChangeListeners []StateListener
}

func newStateMachine() *stateMachine {
	return &stateMachine{currentState: StateConnecting}
}

func (m *stateMachine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

func (m *stateMachine) transitionValid(from, to State) bool {
	validTransitions := map[State][]State{
		StateConnecting: {StateActive, StateEnded},
		StateActive:     {StateEnded},
	}

	allowedStates, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, allowed := range allowedStates {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (m *stateMachine) Transition(state State, reason string) error {
	m.mu.Lock()

	if !m.transitionValid(m.currentState, state) {
		from := m.currentState
		m.mu.Unlock()
		return &InvalidTransitionError{From: from, To: state}
	}

	oldState := m.currentState
	m.currentState = state

	switch state {
	case StateActive:
		m.activeSince = time.Now()
	case StateEnded:
		m.endedAt = time.Now()
	}

	event := StateChange{
		FromState: oldState,
		ToState:   state,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	listeners := make([]StateListener, len(m.stateChangeListeners))
	copy(listeners, m.stateChangeListeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener.OnStateChange(event)
	}
	return nil
}

func (m *stateMachine) AddListener(listener StateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateChangeListeners = append(m.stateChangeListeners, listener)
}

// InvalidTransitionError represents an invalid lifecycle transition.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid call state transition from " + e.From.String() + " to " + e.To.String()
}
