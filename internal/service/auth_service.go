package service

import (
	"context"
	"errors"
	"fmt"

	"blogpost-api/internal/auth"
	"blogpost-api/internal/domain"
	"blogpost-api/internal/repository"
)

// AuthService registers users and logs them in.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	ListUsers(ctx context.Context, caller *auth.Identity) ([]domain.User, error)
}

// TokenCreator issues a signed token for a verified user.
type TokenCreator interface {
	CreateToken(user *domain.User) (string, error)
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens TokenCreator
}

func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenCreator) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
	}
	// the unique index catches a concurrent registration that passed the check above
	if _, err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrWrongPassword
	}

	token, err := s.tokens.CreateToken(user)
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

// ListUsers returns every stored user as-is, password hashes included.
func (s *authService) ListUsers(ctx context.Context, caller *auth.Identity) ([]domain.User, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.users.GetAll(ctx)
}
