package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/storage"
	"inkwell/internal/validation"
)

const (
	// SessionDuration is how long a session without "remember me" stays
	// valid after login.
	SessionDuration = 8 * time.Hour

	// expiryCheckInterval is how often the background watcher re-evaluates
	// the expiry policy.
	expiryCheckInterval = 5 * time.Minute
)

// AuthAPI exchanges credentials for bearer tokens at the remote API.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
}

// UserAPI serves and updates user profiles at the remote API.
type UserAPI interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error)
}

// State is a snapshot of the client-visible session.
//
// Invariant: IsAuthenticated implies User != nil and a non-expired bearer
// token in storage. The manager self-heals violations by forcing logout.
type State struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	IsInitialized   bool         `json:"is_initialized"`
	RememberMe      bool         `json:"remember_me"`
	LoginTime       int64        `json:"login_time"` // unix milliseconds; 0 when logged out
}

// Manager is the single, process-wide owner of the session. All mutation
// goes through its methods; UI-facing handlers only ever see State copies.
type Manager struct {
	mu      sync.Mutex
	auth    AuthAPI
	users   UserAPI
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time
	state   State
}

// NewManager creates a session manager over the given collaborators.
func NewManager(auth AuthAPI, users UserAPI, st storage.Storage) *Manager {
	return &Manager{
		auth:    auth,
		users:   users,
		storage: st,
		logger:  middleware.Logger,
		now:     time.Now,
	}
}

// State returns a copy of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Initialize restores the persisted session, applies the expiry policy, and
// attempts to re-authenticate from the stored token. It is idempotent and
// always lands in exactly one of two states: authenticated with a loaded
// profile, or fully anonymous. Either way IsInitialized ends up true.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsInitialized {
		return m.snapshotLocked()
	}

	m.restoreLocked()
	m.checkExpiryLocked()

	if m.state.IsAuthenticated {
		if err := m.loadUserFromTokenLocked(ctx); err != nil {
			m.logger.Info("session reset during initialize",
				slog.String("reason", err.Error()))
		}
	} else {
		// Not authenticated: discard any stray token left behind.
		m.resetLocked()
	}

	m.state.IsInitialized = true
	return m.snapshotLocked()
}

// Login exchanges credentials for a bearer token, stores the token, records
// the login timestamp and remember-me choice, then loads the user profile
// from the decoded token. A credential rejection surfaces as an
// AUTHENTICATION_ERROR for the login form to display.
func (m *Manager) Login(ctx context.Context, creds models.Credentials, rememberMe bool) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx, rememberMe, func() (string, error) {
		return m.auth.Login(ctx, creds)
	})
}

// Register validates the signup form, creates the account, and logs into
// it. Registration never opts in to remember-me; the user can do that on
// their next explicit login.
func (m *Manager) Register(ctx context.Context, reg models.Registration) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateRegistration(reg); err != nil {
		return m.snapshotLocked(), err
	}

	return m.loginLocked(ctx, false, func() (string, error) {
		return m.auth.Register(ctx, reg)
	})
}

// validateRegistration rejects bad signup input before it goes over the
// wire. The server re-validates; this keeps the round trip off the form's
// hot path.
func validateRegistration(reg models.Registration) error {
	if err := validation.ValidateUsername(reg.Username); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(reg.Email); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(reg.Password); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

func (m *Manager) loginLocked(ctx context.Context, rememberMe bool, mint func() (string, error)) (State, error) {
	m.state.IsLoading = true

	token, err := mint()
	if err != nil {
		m.state.IsLoading = false
		return m.snapshotLocked(), err
	}

	// Token is stored immediately upon response; everything after this
	// point reads it back through the normal path.
	if err := m.storage.Set(storage.TokenKey, token); err != nil {
		m.state.IsLoading = false
		return m.snapshotLocked(), models.NewInternalError(err)
	}

	m.state.RememberMe = rememberMe
	m.state.LoginTime = m.now().UnixMilli()

	if err := m.loadUserFromTokenLocked(ctx); err != nil {
		return m.snapshotLocked(), err
	}
	m.state.IsInitialized = true
	return m.snapshotLocked(), nil
}

// Logout discards the stored token and clears the session. It never fails.
func (m *Manager) Logout() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked()
	return m.snapshotLocked()
}

func (m *Manager) logoutLocked() {
	m.resetLocked()
	m.state.IsInitialized = true
}

// resetLocked clears every session field and discards both storage keys.
func (m *Manager) resetLocked() {
	if err := m.storage.Delete(storage.TokenKey); err != nil {
		m.logger.Warn("failed to discard stored token", slog.String("error", err.Error()))
	}
	if err := m.storage.Delete(storage.SessionKey); err != nil {
		m.logger.Warn("failed to discard session state", slog.String("error", err.Error()))
	}
	m.state.User = nil
	m.state.IsAuthenticated = false
	m.state.IsLoading = false
	m.state.RememberMe = false
	m.state.LoginTime = 0
}

// LoadUserFromToken decodes the stored token and fetches the profile it
// identifies. Any failure (missing token, undecodable claims, expiry, no
// usable subject, profile fetch error) resets the session to anonymous.
func (m *Manager) LoadUserFromToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadUserFromTokenLocked(ctx)
}

func (m *Manager) loadUserFromTokenLocked(ctx context.Context) error {
	raw, ok := m.storage.Get(storage.TokenKey)
	if !ok {
		m.resetLocked()
		return models.NewAuthenticationError("no stored token")
	}

	claims, err := DecodeToken(raw)
	if err != nil {
		m.resetLocked()
		return err
	}
	if claims.Expired(m.now()) {
		m.resetLocked()
		return models.NewAuthenticationError("stored token is expired")
	}

	id, err := claims.UserID()
	if err != nil {
		m.resetLocked()
		return err
	}

	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		// A token whose profile cannot be loaded is unusable; treat it
		// exactly like an invalid token.
		m.resetLocked()
		return err
	}

	m.state.User = user
	m.state.IsAuthenticated = true
	m.state.IsLoading = false
	m.persistLocked()
	return nil
}

// CheckSessionExpiry enforces the rolling expiry policy and reports whether
// it forced a logout. It is a no-op for remember-me sessions, anonymous
// sessions, and sessions without a recorded login time.
func (m *Manager) CheckSessionExpiry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkExpiryLocked()
}

func (m *Manager) checkExpiryLocked() bool {
	// Self-heal: authenticated with no user means the state machine was
	// violated somewhere; force a clean logout.
	if m.state.IsAuthenticated && m.state.IsInitialized && m.state.User == nil {
		m.logger.Warn("authenticated session without a user, forcing logout")
		m.logoutLocked()
		return true
	}

	if m.state.RememberMe || !m.state.IsAuthenticated || m.state.LoginTime == 0 {
		return false
	}

	elapsed := m.now().UnixMilli() - m.state.LoginTime
	if elapsed > SessionDuration.Milliseconds() {
		m.logger.Info("session expired, forcing logout",
			slog.Int64("elapsed_ms", elapsed))
		m.logoutLocked()
		return true
	}
	return false
}

// UpdateProfile pushes profile changes to the remote API and replaces the
// local user with the returned record.
func (m *Manager) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsAuthenticated {
		return m.snapshotLocked(), models.NewUnauthorizedError("not logged in")
	}

	m.state.IsLoading = true
	user, err := m.users.UpdateProfile(ctx, in)
	if err != nil {
		m.state.IsLoading = false
		return m.snapshotLocked(), err
	}

	m.state.User = user
	m.state.IsLoading = false
	m.persistLocked()
	return m.snapshotLocked(), nil
}

// StartExpiryWatcher runs CheckSessionExpiry every five minutes until ctx is
// cancelled. The main process ties ctx to its shutdown sequence.
func (m *Manager) StartExpiryWatcher(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(expiryCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckSessionExpiry()
			}
		}
	}()
}

// snapshotLocked copies the state, cloning User so callers can't reach back
// into the manager's memory.
func (m *Manager) snapshotLocked() State {
	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
