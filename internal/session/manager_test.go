package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authAPIStub is a stub for AuthAPI.
type authAPIStub struct {
	loginFn    func(context.Context, models.Credentials) (string, error)
	registerFn func(context.Context, models.Registration) (string, error)
}

func (s *authAPIStub) Login(ctx context.Context, creds models.Credentials) (string, error) {
	return s.loginFn(ctx, creds)
}
func (s *authAPIStub) Register(ctx context.Context, reg models.Registration) (string, error) {
	return s.registerFn(ctx, reg)
}

// userAPIStub is a stub for UserAPI.
type userAPIStub struct {
	getUserFn func(context.Context, uint) (*models.User, error)
	updateFn  func(context.Context, models.ProfileUpdate) (*models.User, error)
}

func (s *userAPIStub) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.getUserFn(ctx, id)
}
func (s *userAPIStub) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	return s.updateFn(ctx, in)
}

func testUser(id uint) *models.User {
	return &models.User{ID: id, Username: "ada", DisplayName: "Ada", Role: models.RoleUser}
}

func noopAuth() *authAPIStub {
	return &authAPIStub{
		loginFn:    func(context.Context, models.Credentials) (string, error) { return "", nil },
		registerFn: func(context.Context, models.Registration) (string, error) { return "", nil },
	}
}

func noopUsers() *userAPIStub {
	return &userAPIStub{
		getUserFn: func(_ context.Context, id uint) (*models.User, error) { return testUser(id), nil },
		updateFn:  func(context.Context, models.ProfileUpdate) (*models.User, error) { return testUser(1), nil },
	}
}

// newTestManager wires a manager over in-memory storage with a fixed clock.
func newTestManager(auth *authAPIStub, users *userAPIStub, st storage.Storage, at time.Time) *Manager {
	m := NewManager(auth, users, st)
	m.now = func() time.Time { return at }
	return m
}

// seedAuthenticated writes a token and a persisted authenticated session
// into storage, as a previous process run would have left them.
func seedAuthenticated(t *testing.T, st storage.Storage, userID uint, tokenExp time.Time, rememberMe bool, loginAt time.Time) {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"nameid": "7",
		"exp":    tokenExp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, st.Set(storage.TokenKey, token))

	persisted, err := json.Marshal(persistedState{
		User:            testUser(userID),
		IsAuthenticated: true,
		RememberMe:      rememberMe,
		LoginTime:       loginAt.UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, st.Set(storage.SessionKey, string(persisted)))
}

func assertAnonymous(t *testing.T, s State) {
	t.Helper()
	assert.Nil(t, s.User)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.RememberMe)
	assert.Zero(t, s.LoginTime)
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestInitialize_ValidTokenLoadsProfile(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(time.Hour), false, base.Add(-time.Hour))

	var fetched uint
	users := noopUsers()
	users.getUserFn = func(_ context.Context, id uint) (*models.User, error) {
		fetched = id
		return testUser(id), nil
	}

	m := newTestManager(noopAuth(), users, st, base)
	s := m.Initialize(context.Background())

	assert.True(t, s.IsInitialized)
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.User)
	assert.Equal(t, uint(7), s.User.ID)
	assert.Equal(t, uint(7), fetched, "profile must be fetched by the token's subject claim")
}

func TestInitialize_ExpiredTokenResets(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(-time.Minute), false, base.Add(-time.Hour))

	m := newTestManager(noopAuth(), noopUsers(), st, base)
	s := m.Initialize(context.Background())

	assert.True(t, s.IsInitialized)
	assertAnonymous(t, s)
	_, ok := st.Get(storage.TokenKey)
	assert.False(t, ok, "expired token must be removed from storage")
}

func TestInitialize_NoToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
	s := m.Initialize(context.Background())

	assert.True(t, s.IsInitialized)
	assertAnonymous(t, s)
}

func TestInitialize_ProfileFetchFailureResets(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(time.Hour), false, base.Add(-time.Hour))

	users := noopUsers()
	users.getUserFn = func(context.Context, uint) (*models.User, error) {
		return nil, models.NewUnavailableError(context.DeadlineExceeded)
	}

	m := newTestManager(noopAuth(), users, st, base)
	s := m.Initialize(context.Background())

	assert.True(t, s.IsInitialized)
	assertAnonymous(t, s)
	_, ok := st.Get(storage.TokenKey)
	assert.False(t, ok, "unusable token must be discarded")
}

func TestInitialize_Idempotent(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(time.Hour), false, base.Add(-time.Hour))

	calls := 0
	users := noopUsers()
	users.getUserFn = func(_ context.Context, id uint) (*models.User, error) {
		calls++
		return testUser(id), nil
	}

	m := newTestManager(noopAuth(), users, st, base)
	m.Initialize(context.Background())
	m.Initialize(context.Background())

	assert.Equal(t, 1, calls, "second Initialize must be a no-op")
}

func TestInitialize_ExpiredPolicyRunsBeforeProfileLoad(t *testing.T) {
	t.Parallel()

	// Token still valid, but the non-remembered session is 9h old.
	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(24*time.Hour), false, base.Add(-9*time.Hour))

	calls := 0
	users := noopUsers()
	users.getUserFn = func(_ context.Context, id uint) (*models.User, error) {
		calls++
		return testUser(id), nil
	}

	m := newTestManager(noopAuth(), users, st, base)
	s := m.Initialize(context.Background())

	assertAnonymous(t, s)
	assert.Zero(t, calls, "an expired session must not load a profile")
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": base.Add(7 * 24 * time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	auth := noopAuth()
	auth.loginFn = func(_ context.Context, creds models.Credentials) (string, error) {
		assert.Equal(t, "ada", creds.UsernameOrEmail)
		return token, nil
	}

	m := newTestManager(auth, noopUsers(), st, base)
	s, err := m.Login(context.Background(), models.Credentials{UsernameOrEmail: "ada", Password: "pw"}, true)
	require.NoError(t, err)

	assert.True(t, s.IsAuthenticated)
	assert.True(t, s.RememberMe)
	assert.False(t, s.IsLoading)
	assert.Equal(t, base.UnixMilli(), s.LoginTime)
	require.NotNil(t, s.User)
	assert.Equal(t, uint(7), s.User.ID)

	stored, ok := st.Get(storage.TokenKey)
	require.True(t, ok)
	assert.Equal(t, token, stored)
}

func TestLogin_CredentialRejection(t *testing.T) {
	t.Parallel()

	auth := noopAuth()
	auth.loginFn = func(context.Context, models.Credentials) (string, error) {
		return "", models.NewAuthenticationError("invalid credentials")
	}

	m := newTestManager(auth, noopUsers(), storage.NewMemoryStorage(), base)
	s, err := m.Login(context.Background(), models.Credentials{}, false)

	assert.True(t, models.IsAuthenticationError(err), "rejection must be rethrown for the form")
	assert.False(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
}

func TestRegister_NeverRemembers(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "9",
		"exp": base.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	auth := noopAuth()
	auth.registerFn = func(context.Context, models.Registration) (string, error) { return token, nil }

	m := newTestManager(auth, noopUsers(), storage.NewMemoryStorage(), base)
	s, err := m.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.RememberMe)
}

func validRegistration() models.Registration {
	return models.Registration{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "SecurePass12!@",
	}
}

func TestRegister_RejectsBadInputBeforeNetworkCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.Registration)
	}{
		{"short username", func(r *models.Registration) { r.Username = "ab" }},
		{"invalid email", func(r *models.Registration) { r.Email = "not-an-email" }},
		{"weak password", func(r *models.Registration) { r.Password = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			auth := noopAuth()
			auth.registerFn = func(context.Context, models.Registration) (string, error) {
				called = true
				return "", nil
			}

			reg := validRegistration()
			tt.mutate(&reg)

			m := newTestManager(auth, noopUsers(), storage.NewMemoryStorage(), base)
			s, err := m.Register(context.Background(), reg)

			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.False(t, called, "invalid forms must not reach the remote API")
			assert.False(t, s.IsAuthenticated)
			assert.False(t, s.IsLoading)
		})
	}
}

func TestLogout_AlwaysClears(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(time.Hour), true, base)

	m := newTestManager(noopAuth(), noopUsers(), st, base)
	m.Initialize(context.Background())

	s := m.Logout()
	assert.True(t, s.IsInitialized)
	assertAnonymous(t, s)

	_, ok := st.Get(storage.TokenKey)
	assert.False(t, ok)
	_, ok = st.Get(storage.SessionKey)
	assert.False(t, ok)

	// Logging out twice is fine.
	assertAnonymous(t, m.Logout())
}

func TestCheckSessionExpiry(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, m *Manager, rememberMe bool) {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "7",
			"exp": base.Add(30 * 24 * time.Hour).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		auth := noopAuth()
		auth.loginFn = func(context.Context, models.Credentials) (string, error) { return token, nil }
		m.auth = auth
		_, err = m.Login(context.Background(), models.Credentials{}, rememberMe)
		require.NoError(t, err)
	}

	t.Run("remember me never expires", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
		login(t, m, true)

		m.now = func() time.Time { return base.Add(1000 * time.Hour) }
		assert.False(t, m.CheckSessionExpiry())
		assert.True(t, m.State().IsAuthenticated)
	})

	t.Run("no-op when anonymous", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
		assert.False(t, m.CheckSessionExpiry())
	})

	t.Run("exactly eight hours is still valid", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
		login(t, m, false)

		m.now = func() time.Time { return base.Add(SessionDuration) }
		assert.False(t, m.CheckSessionExpiry())
		assert.True(t, m.State().IsAuthenticated)
	})

	t.Run("one millisecond past forces logout", func(t *testing.T) {
		t.Parallel()
		st := storage.NewMemoryStorage()
		m := newTestManager(noopAuth(), noopUsers(), st, base)
		login(t, m, false)

		m.now = func() time.Time { return base.Add(SessionDuration + time.Millisecond) }
		assert.True(t, m.CheckSessionExpiry())

		s := m.State()
		assertAnonymous(t, s)
		_, ok := st.Get(storage.TokenKey)
		assert.False(t, ok)
	})

	t.Run("self-heals authenticated state without a user", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
		m.state = State{IsAuthenticated: true, IsInitialized: true}

		assert.True(t, m.CheckSessionExpiry())
		assertAnonymous(t, m.State())
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, users *userAPIStub) *Manager {
		t.Helper()
		st := storage.NewMemoryStorage()
		seedAuthenticated(t, st, 7, base.Add(time.Hour), true, base)
		m := newTestManager(noopAuth(), users, st, base)
		m.Initialize(context.Background())
		return m
	}

	t.Run("replaces user with returned record", func(t *testing.T) {
		t.Parallel()
		users := noopUsers()
		users.updateFn = func(_ context.Context, in models.ProfileUpdate) (*models.User, error) {
			u := testUser(7)
			u.DisplayName = *in.DisplayName
			return u, nil
		}
		m := setup(t, users)

		name := "Ada L."
		s, err := m.UpdateProfile(context.Background(), models.ProfileUpdate{DisplayName: &name})
		require.NoError(t, err)
		assert.False(t, s.IsLoading)
		assert.Equal(t, "Ada L.", s.User.DisplayName)
	})

	t.Run("failure keeps previous user and rethrows", func(t *testing.T) {
		t.Parallel()
		users := noopUsers()
		users.updateFn = func(context.Context, models.ProfileUpdate) (*models.User, error) {
			return nil, models.NewValidationError("display name too long")
		}
		m := setup(t, users)

		s, err := m.UpdateProfile(context.Background(), models.ProfileUpdate{})
		assert.Error(t, err)
		assert.False(t, s.IsLoading)
		assert.True(t, s.IsAuthenticated)
		require.NotNil(t, s.User)
	})

	t.Run("rejected when anonymous", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(noopAuth(), noopUsers(), storage.NewMemoryStorage(), base)
		_, err := m.UpdateProfile(context.Background(), models.ProfileUpdate{})
		assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	})
}

func TestSessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": base.Add(7 * 24 * time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	auth := noopAuth()
	auth.loginFn = func(context.Context, models.Credentials) (string, error) { return token, nil }

	first := newTestManager(auth, noopUsers(), st, base)
	_, err = first.Login(context.Background(), models.Credentials{}, true)
	require.NoError(t, err)

	// A new manager over the same storage models a process restart.
	second := newTestManager(noopAuth(), noopUsers(), st, base.Add(time.Hour))
	s := second.Initialize(context.Background())

	assert.True(t, s.IsAuthenticated)
	assert.True(t, s.RememberMe)
	assert.Equal(t, base.UnixMilli(), s.LoginTime)
	require.NotNil(t, s.User)
	assert.Equal(t, uint(7), s.User.ID)
}

func TestStateSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	st := storage.NewMemoryStorage()
	seedAuthenticated(t, st, 7, base.Add(time.Hour), true, base)

	m := newTestManager(noopAuth(), noopUsers(), st, base)
	m.Initialize(context.Background())

	s := m.State()
	s.User.DisplayName = "mutated"
	assert.NotEqual(t, "mutated", m.State().User.DisplayName)
}
