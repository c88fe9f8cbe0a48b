package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"blogpost-api/internal/domain"
	"blogpost-api/internal/repository"
)

type UserRepository struct {
	*Repository[domain.User]
	db *bun.DB
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.PostRepository = (*Repository[domain.BlogPost])(nil)
)

func NewUserRepository(db *bun.DB) repository.UserRepository {
	return &UserRepository{
		Repository: NewRepository[domain.User](db),
		db:         db,
	}
}

func NewPostRepository(db *bun.DB) repository.PostRepository {
	return NewRepository[domain.BlogPost](db)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.NewSelect().
		Model(&user).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user by username: %w", err)
	}
	return &user, nil
}
