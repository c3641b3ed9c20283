package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"github.com/shopd-io/shopd/internal/metrics"
)

const minPasswordLength = 8

// UserService handles user registration and profile lookup.
type UserService struct {
	userRepo domain.UserRepository
	hasher   PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo domain.UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Register creates a new user account. The email's uniqueness is enforced by
// the storage layer; a duplicate surfaces as ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, serrors.NewInvalidRequest("a valid email address is required")
	}
	if len(password) < minPasswordLength {
		return nil, serrors.NewInvalidRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	metrics.UserRegisteredTotal.Inc()
	log.Info().Str("userID", user.ID).Msg("User registered")
	return user, nil
}

// GetProfile returns the user for the given ID, or ErrNotFound.
func (s *UserService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, serrors.ErrNotFound
	}
	return user, nil
}
