package session

import (
	"encoding/json"
	"log/slog"

	"inkwell/internal/models"
	"inkwell/internal/storage"
)

// persistedState is the subset of session state that survives restarts.
// IsLoading and IsInitialized are deliberately absent: they are transient
// and recomputed on every boot.
type persistedState struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	RememberMe      bool         `json:"remember_me"`
	LoginTime       int64        `json:"login_time"`
}

// persistState maps the full in-memory state to the persisted subset.
func persistState(s State) persistedState {
	return persistedState{
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated,
		RememberMe:      s.RememberMe,
		LoginTime:       s.LoginTime,
	}
}

// applyPersisted restores the persisted subset into the in-memory state.
func applyPersisted(p persistedState, s *State) {
	s.User = p.User
	s.IsAuthenticated = p.IsAuthenticated
	s.RememberMe = p.RememberMe
	s.LoginTime = p.LoginTime
}

// persistLocked flushes the persisted subset to storage. Persistence
// failures are logged, not fatal: the in-memory session stays usable and
// the worst case is an anonymous state after the next restart.
func (m *Manager) persistLocked() {
	data, err := json.Marshal(persistState(m.state))
	if err != nil {
		m.logger.Warn("failed to encode session state", slog.String("error", err.Error()))
		return
	}
	if err := m.storage.Set(storage.SessionKey, string(data)); err != nil {
		m.logger.Warn("failed to persist session state", slog.String("error", err.Error()))
	}
}

// restoreLocked loads the persisted subset, if any, into memory.
func (m *Manager) restoreLocked() {
	raw, ok := m.storage.Get(storage.SessionKey)
	if !ok {
		return
	}
	var p persistedState
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.logger.Warn("discarding unreadable session state", slog.String("error", err.Error()))
		return
	}
	applyPersisted(p, &m.state)
}
