package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tribu-app/tribu/internal/auth"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// ErrInvalidCredentials is returned by Login for a wrong email or password.
// The two cases are indistinguishable on purpose; the handler maps this to
// 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration, login and identity lookups.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account. Email format and password length are
// validated up front; email uniqueness is enforced by the store and
// surfaces as Conflict.
func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := policy.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := policy.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login verifies credentials and issues an access token. A wrong email and
// a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return token, user, nil
}

// GetUserByID returns the account for an internal ID. Used by /auth/me
// after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}
