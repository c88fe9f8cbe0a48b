package repository

import (
	"context"

	"blogpost-api/internal/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	Repository[domain.User]
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
