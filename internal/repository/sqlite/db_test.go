package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpost-api/internal/domain"
)

func TestOpenEnablesForeignKeysOnEveryConnection(t *testing.T) {
	sqldb, err := Open(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	// no idle connections: each query dials a fresh one
	sqldb.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, sqldb.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}

	db := NewDB(sqldb)
	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewPostRepository(db).Init(ctx))

	_, err = NewPostRepository(db).Insert(ctx, &domain.BlogPost{Text: "orphan", AuthorID: 42})
	assert.Error(t, err)
}
