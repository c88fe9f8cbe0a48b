package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"

	"blogpost-api/internal/repository"
)

// Repository implements repository.Repository for any bun model type.
type Repository[T any] struct {
	db *bun.DB
}

func NewRepository[T any](db *bun.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*T)(nil)).
		IfNotExists().
		WithForeignKeys().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create %s table: %w", r.tableName(), err)
	}
	return nil
}

func (r *Repository[T]) GetAll(ctx context.Context, expansions ...string) ([]T, error) {
	var rows []T
	q := r.db.NewSelect().Model(&rows)
	for _, name := range expansions {
		q = q.Relation(name)
	}
	// joined relations share column names, so order by the qualified key
	for _, pk := range r.db.Table(reflect.TypeOf((*T)(nil)).Elem()).PKs {
		q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk.Name))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName(), err)
	}
	return rows, nil
}

func (r *Repository[T]) GetByID(ctx context.Context, id any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().
		Model(entity).
		Where("?PKs = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select %s by id: %w", r.tableName(), err)
	}
	return entity, nil
}

func (r *Repository[T]) Insert(ctx context.Context, entity *T) (*T, error) {
	if _, err := r.db.NewInsert().Model(entity).Returning("*").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %s: %w", r.tableName(), repository.ErrConflict)
		}
		return nil, fmt.Errorf("insert %s: %w", r.tableName(), err)
	}
	return entity, nil
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) (*T, error) {
	res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update %s: %w", r.tableName(), repository.ErrConflict)
		}
		return nil, fmt.Errorf("update %s: %w", r.tableName(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s rows affected: %w", r.tableName(), err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}
	return entity, nil
}

func (r *Repository[T]) tableName() string {
	return r.db.Table(reflect.TypeOf((*T)(nil)).Elem()).Name
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
