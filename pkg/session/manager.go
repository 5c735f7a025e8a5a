package session

import "sync"

// Manager indexes live sessions by call ID. Sessions are removed when
// the connection closes; webhook handlers may briefly outlive them and
// must tolerate a nil lookup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*CallSession)}
}

// Create registers a new session. The tenant is resolved exactly once
// here; later events reuse it even if routing configuration changes
// mid-call.
func (m *Manager) Create(callID, agentID, tenantID string) *CallSession {
	s := New(callID, agentID, tenantID)
	m.mu.Lock()
	m.sessions[callID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(callID string) *CallSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[callID]
}

func (m *Manager) Remove(callID string) {
	m.mu.Lock()
	delete(m.sessions, callID)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
