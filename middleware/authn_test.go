package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopd-io/shopd/cache"
	"github.com/shopd-io/shopd/domain"
	"github.com/shopd-io/shopd/internal/auth"
	"github.com/shopd-io/shopd/internal/crypto"
	"github.com/shopd-io/shopd/internal/metrics"
	"github.com/shopd-io/shopd/services"
)

func TestMain(m *testing.M) {
	metrics.InitCustomMetrics(prometheus.NewRegistry())
	os.Exit(m.Run())
}

// In-memory repositories, enough to drive the refresh path.

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
}

func (r *fakeSessionRepo) StoreSession(_ context.Context, session *domain.Session) error {
	session.ID = "session-1"
	session.Valid = true
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetSessionByID(_ context.Context, id string) (*domain.Session, error) {
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) ListActiveByUserID(_ context.Context, userID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Valid {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Invalidate(_ context.Context, id string) error {
	if s, ok := r.sessions[id]; ok {
		s.Valid = false
	}
	return nil
}

type authnFixture struct {
	authenticator *Authenticator
	tokens        *services.TokenService
	sessions      *fakeSessionRepo
	user          *domain.User
}

func newAuthnFixture(t *testing.T) *authnFixture {
	t.Helper()
	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	tokens := services.NewTokenService(keys, "shopd-test", 0)

	user := &domain.User{ID: "user-1", Email: "jane.doe@example.com", Name: "Jane Doe"}
	userRepo := &fakeUserRepo{users: map[string]*domain.User{user.ID: user}}
	sessionRepo := &fakeSessionRepo{sessions: map[string]*domain.Session{
		"session-1": {ID: "session-1", UserID: user.ID, Valid: true},
	}}

	attempts := cache.NewMemoryAttemptStore()
	t.Cleanup(func() { _ = attempts.Close() })

	authService := services.NewAuthService(
		userRepo, sessionRepo, tokens,
		auth.NewBcryptPasswordHasher(bcrypt.MinCost), attempts,
		15*time.Minute, 24*time.Hour, 5, 15*time.Minute,
	)

	return &authnFixture{
		authenticator: NewAuthenticator(tokens, authService),
		tokens:        tokens,
		sessions:      sessionRepo,
		user:          user,
	}
}

func (f *authnFixture) accessToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, err := f.tokens.Issue(map[string]any{
		"sub":               f.user.ID,
		services.ClaimEmail: f.user.Email,
		services.ClaimName:  f.user.Name,
	}, ttl)
	require.NoError(t, err)
	return token
}

func (f *authnFixture) refreshToken(t *testing.T, sessionID string) string {
	t.Helper()
	token, err := f.tokens.Issue(map[string]any{services.ClaimSessionID: sessionID}, time.Hour)
	require.NoError(t, err)
	return token
}

func TestResolve_NoToken(t *testing.T) {
	f := newAuthnFixture(t)

	identity, fresh := f.authenticator.Resolve(context.Background(), "", "")
	assert.Nil(t, identity)
	assert.Empty(t, fresh)
}

func TestResolve_ValidAccessToken(t *testing.T) {
	f := newAuthnFixture(t)

	identity, fresh := f.authenticator.Resolve(context.Background(), f.accessToken(t, time.Minute), "")
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "jane.doe@example.com", identity.Email)
	assert.Empty(t, fresh)
}

func TestResolve_BadSignature(t *testing.T) {
	f := newAuthnFixture(t)

	otherKeys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	forged, err := services.NewTokenService(otherKeys, "shopd-test", 0).
		Issue(map[string]any{"sub": "user-1"}, time.Minute)
	require.NoError(t, err)

	// A forged token must not reach the refresh path even when a refresh
	// token is supplied.
	identity, fresh := f.authenticator.Resolve(context.Background(), forged, f.refreshToken(t, "session-1"))
	assert.Nil(t, identity)
	assert.Empty(t, fresh)
}

func TestResolve_ExpiredWithRefresh(t *testing.T) {
	f := newAuthnFixture(t)

	identity, fresh := f.authenticator.Resolve(
		context.Background(),
		f.accessToken(t, -time.Minute),
		f.refreshToken(t, "session-1"),
	)
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	require.NotEmpty(t, fresh)

	res := f.tokens.Verify(fresh)
	assert.True(t, res.Valid)
	assert.Equal(t, "user-1", res.Claims["sub"])
}

func TestResolve_ExpiredWithoutRefresh(t *testing.T) {
	f := newAuthnFixture(t)

	identity, fresh := f.authenticator.Resolve(context.Background(), f.accessToken(t, -time.Minute), "")
	assert.Nil(t, identity)
	assert.Empty(t, fresh)
}

func TestResolve_ExpiredWithRevokedSession(t *testing.T) {
	f := newAuthnFixture(t)
	f.sessions.sessions["session-1"].Valid = false

	identity, fresh := f.authenticator.Resolve(
		context.Background(),
		f.accessToken(t, -time.Minute),
		f.refreshToken(t, "session-1"),
	)
	assert.Nil(t, identity)
	assert.Empty(t, fresh)
}

func echoHandlerIdentity(c echo.Context) error {
	identity, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "userID": identity.UserID})
}

func TestAuthenticate_SetsAccessTokenHeader(t *testing.T) {
	f := newAuthnFixture(t)
	e := echo.New()
	e.GET("/probe", echoHandlerIdentity, f.authenticator.Authenticate())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.accessToken(t, -time.Minute))
	req.Header.Set(RefreshTokenHeader, f.refreshToken(t, "session-1"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	fresh := rec.Header().Get(AccessTokenHeader)
	require.NotEmpty(t, fresh)
	assert.True(t, f.tokens.Verify(fresh).Valid)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestAuthenticate_ValidTokenNoHeader(t *testing.T) {
	f := newAuthnFixture(t)
	e := echo.New()
	e.GET("/probe", echoHandlerIdentity, f.authenticator.Authenticate())

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.accessToken(t, time.Minute))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// No refresh happened, so no side-channel header.
	assert.Empty(t, rec.Header().Get(AccessTokenHeader))
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	f := newAuthnFixture(t)
	e := echo.New()
	e.GET("/protected", echoHandlerIdentity, f.authenticator.Authenticate(), RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"Basic dXNlcjpwYXNz", ""},
		{"abc.def.ghi", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), "header %q", tt.header)
	}
}
