package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live recording sessions by ID. Stopped sessions stay
// registered until Cleanup so their actions can still be saved.
type Manager struct {
	mutex    sync.RWMutex
	sessions map[string]*Session
	opts     SessionOptions
	flush    FlushFunc
	starter  func(s *Session, targetURL string) error
}

func NewManager(opts SessionOptions, flush FlushFunc) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		flush:    flush,
		starter:  (*Session).start,
	}
}

// StartRecording opens a browser on targetURL. An empty sessionID gets a
// generated one; an empty device uses the manager default.
func (m *Manager) StartRecording(sessionID, targetURL, device string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[sessionID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	}

	opts := m.opts
	if device != "" {
		opts.Device = device
	}
	s := newSession(sessionID, opts, m.flush)
	if err := m.starter(s, targetURL); err != nil {
		return nil, err
	}

	m.sessions[sessionID] = s
	return s, nil
}

func (m *Manager) StopRecording(ctx context.Context, sessionID string) (*Session, error) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err := s.stop(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *Manager) GetRecordingStatus(sessionID string) (SessionStatus, error) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return SessionStatus{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s.Status(), nil
}

func (m *Manager) CleanupRecording(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

// StopAll stops every live session; used on shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mutex.RUnlock()

	for _, s := range sessions {
		if s.IsRecording() {
			_ = s.stop(ctx)
		}
	}
}
