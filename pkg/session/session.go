// Package session tracks per-call state: lifecycle, caller identity
// verification, and call metadata. One CallSession lives for exactly
// one websocket connection.
package session

import (
	"sync"
	"time"
)

// CallSession is the per-call state shared by the transport and the
// call controller. Identity verification is monotonic: once verified,
// the flag never clears for the remainder of the call.
type CallSession struct {
	id       string
	agentID  string
	tenantID string

	fsm *stateMachine

	mu          sync.RWMutex
	callerPhone string
	direction   string
	startedAt   time.Time
	metadata    map[string]any

	verified    bool
	patientID   string
	patientName string
}

func New(callID, agentID, tenantID string) *CallSession {
	return &CallSession{
		id:        callID,
		agentID:   agentID,
		tenantID:  tenantID,
		fsm:       newStateMachine(),
		startedAt: time.Now(),
		metadata:  make(map[string]any),
	}
}

func (s *CallSession) CallID() string   { return s.id }
func (s *CallSession) TenantID() string { return s.tenantID }

func (s *CallSession) AgentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentID
}

// SetAgentID records the agent once call details arrive. A value set
// at creation wins.
func (s *CallSession) SetAgentID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agentID == "" {
		s.agentID = id
	}
}

func (s *CallSession) State() State { return s.fsm.State() }

func (s *CallSession) Transition(state State, reason string) error {
	return s.fsm.Transition(state, reason)
}

func (s *CallSession) AddListener(l StateListener) { s.fsm.AddListener(l) }

// Activate marks the session live once call details arrive.
func (s *CallSession) Activate(reason string) error {
	return s.fsm.Transition(StateActive, reason)
}

// End is idempotent; a second call is a no-op.
func (s *CallSession) End(reason string) {
	_ = s.fsm.Transition(StateEnded, reason)
}

func (s *CallSession) Ended() bool { return s.fsm.State() == StateEnded }

func (s *CallSession) SetCallDetails(phone, direction string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callerPhone = phone
	s.direction = direction
	for k, v := range metadata {
		s.metadata[k] = v
	}
}

func (s *CallSession) CallerPhone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callerPhone
}

func (s *CallSession) Direction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.direction
}

func (s *CallSession) StartedAt() time.Time { return s.startedAt }

func (s *CallSession) Metadata() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.metadata))
	for k, v := range s.metadata {
		out[k] = v
	}
	return out
}

// MarkVerified records a successful identity check.
func (s *CallSession) MarkVerified(patientID, patientName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = true
	s.patientID = patientID
	s.patientName = patientName
}

func (s *CallSession) Verified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verified
}

func (s *CallSession) PatientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patientID
}

func (s *CallSession) PatientName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patientName
}
