// Package session keeps short-lived per-user conversation data, such as a
// pending confirmation awaiting an inline keyboard answer.
package session

import "sync"

// Session stores temporary data for one user.
type Session struct {
	TempData map[string]any
}

// Manager hands out per-user sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewManager constructs an empty in-memory manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// SetTemp stores a temporary key/value pair for the given user.
func (m *Manager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		session = &Session{TempData: make(map[string]any)}
		m.sessions[userID] = session
	}
	session.TempData[key] = value
}

// GetTemp retrieves a temporary value by key for the given user.
func (m *Manager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	val, ok := session.TempData[key]
	return val, ok
}

// GetTempInt64 retrieves a temporary value by key and asserts it as int64.
func (m *Manager) GetTempInt64(userID int64, key string) (int64, bool) {
	val, found := m.GetTemp(userID, key)
	if !found {
		return 0, false
	}
	n, ok := val.(int64)
	return n, ok
}

// GetTempString retrieves a temporary value by key and asserts it as string.
func (m *Manager) GetTempString(userID int64, key string) (string, bool) {
	val, found := m.GetTemp(userID, key)
	if !found {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// ClearTemp removes one temporary key for the given user.
func (m *Manager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[userID]; ok {
		delete(session.TempData, key)
	}
}

// Clear drops the whole session for a user.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
