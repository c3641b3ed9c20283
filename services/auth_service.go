package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/cache"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"github.com/shopd-io/shopd/internal/metrics"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService orchestrates the session lifecycle: login mints a session and
// a token pair, logout revokes the session, and refresh exchanges a live
// refresh token for a fresh access token as long as the session is valid.
type AuthService struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	tokens      *TokenService
	hasher      PasswordHasher
	attempts    cache.AttemptStore

	accessTTL     time.Duration
	refreshTTL    time.Duration
	attemptLimit  int64
	attemptWindow time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	tokens *TokenService,
	hasher PasswordHasher,
	attempts cache.AttemptStore,
	accessTTL, refreshTTL time.Duration,
	attemptLimit int64,
	attemptWindow time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		tokens:        tokens,
		hasher:        hasher,
		attempts:      attempts,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		attemptLimit:  attemptLimit,
		attemptWindow: attemptWindow,
	}
}

// Login authenticates the credentials, creates a session and returns an
// access/refresh token pair. Unknown email and wrong password both map to
// ErrInvalidCredentials so the response cannot be used for account
// enumeration. Neither token value is ever persisted.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent string) (*TokenPair, error) {
	log.Debug().Str("email", email).Msg("Login attempt")

	count, err := s.attempts.Count(ctx, email)
	if err != nil {
		// Throttle store trouble must not block logins.
		log.Warn().Err(err).Msg("Login: attempt store unavailable, skipping throttle check")
	} else if count >= s.attemptLimit {
		log.Warn().Str("email", email).Int64("attempts", count).Msg("Login: throttled")
		metrics.LoginThrottledTotal.Inc()
		return nil, serrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		s.recordFailure(ctx, email)
		return nil, serrors.ErrInvalidCredentials
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		log.Warn().Str("userID", user.ID).Msg("Login: incorrect password")
		s.recordFailure(ctx, email)
		return nil, serrors.ErrInvalidCredentials
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		log.Warn().Err(err).Msg("Login: failed to reset attempt counter")
	}

	session := &domain.Session{
		UserID:    user.ID,
		UserAgent: userAgent,
	}
	if err := s.sessionRepo.StoreSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.tokens.Issue(map[string]any{ClaimSessionID: session.ID}, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	metrics.LoginSuccessTotal.Inc()
	metrics.ActiveSessionsGauge.Inc()
	metrics.TokensIssuedTotal.Add(2)

	log.Info().Str("userID", user.ID).Str("sessionID", session.ID).Msg("Login successful")
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout invalidates a session. It is declarative: revoking an unknown or
// already-revoked session succeeds silently, because the caller's intent
// ("this session must not be usable") is already satisfied.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.sessionRepo.Invalidate(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if session != nil && session.Valid {
		metrics.ActiveSessionsGauge.Dec()
		log.Info().Str("sessionID", sessionID).Msg("Session revoked")
	}
	return nil
}

// RevokeByRefreshToken revokes the session referenced by a refresh token.
// Used by the logout endpoint, where the client identifies its session only
// through the refresh token it holds. An unusable token is a no-op, not an
// error: logout always succeeds.
func (s *AuthService) RevokeByRefreshToken(ctx context.Context, refreshToken string) error {
	res := s.tokens.Verify(refreshToken)
	if !res.Valid {
		return nil
	}
	sessionID, _ := res.Claims[ClaimSessionID].(string)
	if sessionID == "" {
		return nil
	}
	return s.Logout(ctx, sessionID)
}

// ReissueAccessToken exchanges a refresh token for a fresh access token.
// Every failure mode short of a storage error yields ("", nil, nil): a bad
// or expired refresh token, a missing or revoked session (the revocation
// enforcement point), or a user deleted since login. The user snapshot is
// re-read so profile changes propagate on refresh, not just on re-login.
//
// The refresh token itself is never rotated here; it stays usable until its
// own expiry or the session's revocation.
func (s *AuthService) ReissueAccessToken(ctx context.Context, refreshToken string) (string, *domain.Identity, error) {
	res := s.tokens.Verify(refreshToken)
	if !res.Valid {
		log.Debug().Bool("expired", res.Expired).Msg("Reissue: refresh token unusable")
		return "", nil, nil
	}

	sessionID, _ := res.Claims[ClaimSessionID].(string)
	if sessionID == "" {
		log.Debug().Msg("Reissue: refresh token carries no session identifier")
		return "", nil, nil
	}

	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil || !session.Valid {
		log.Debug().Str("sessionID", sessionID).Msg("Reissue: session missing or revoked")
		return "", nil, nil
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		log.Warn().Str("sessionID", sessionID).Str("userID", session.UserID).Msg("Reissue: session owner no longer exists")
		return "", nil, nil
	}

	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	metrics.TokensRefreshedTotal.Inc()
	identity := &domain.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}
	return accessToken, identity, nil
}

// ListSessions returns the caller's active sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessions, err := s.sessionRepo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// RevokeOwnedSession revokes one of the caller's sessions by ID. Returns
// ErrNotFound when the session does not exist or belongs to another user.
func (s *AuthService) RevokeOwnedSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return serrors.ErrNotFound
	}
	return s.Logout(ctx, sessionID)
}

// issueAccessToken mints a short-lived access token carrying a denormalized
// user snapshot. Access tokens are deliberately not traceable to a session:
// they cannot be revoked individually, they simply expire.
func (s *AuthService) issueAccessToken(user *domain.User) (string, error) {
	return s.tokens.Issue(map[string]any{
		"sub":      user.ID,
		ClaimEmail: user.Email,
		ClaimName:  user.Name,
	}, s.accessTTL)
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	metrics.LoginFailureTotal.Inc()
	if _, err := s.attempts.Incr(ctx, email, s.attemptWindow); err != nil {
		log.Warn().Err(err).Msg("Login: failed to record attempt")
	}
}
