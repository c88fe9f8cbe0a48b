package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blogpost-api/internal/auth"
	"blogpost-api/internal/domain"
	"blogpost-api/internal/repository"
	"blogpost-api/internal/repository/sqlite"
)

const testKey = "test-signing-key-0123456789abcdef0123456789"

type fixture struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	issuer   *auth.TokenIssuer
	accounts AuthService
	blog     PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sqldb, err := sqlite.Open(filepath.Join(t.TempDir(), "blogpost.db"))
	require.NoError(t, err)
	db := sqlite.NewDB(sqldb)
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	posts := sqlite.NewPostRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(testKey, 24*time.Hour)
	require.NoError(t, err)

	return &fixture{
		users:    users,
		posts:    posts,
		issuer:   issuer,
		accounts: NewAuthService(users, hasher, issuer),
		blog:     NewPostService(posts),
	}
}

func (f *fixture) identity(t *testing.T, username, password string) *auth.Identity {
	t.Helper()
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, username, password)
	require.NoError(t, err)
	token, err := f.accounts.Login(ctx, username, password)
	require.NoError(t, err)
	id, err := f.issuer.Verify(token)
	require.NoError(t, err)
	return id
}

func TestRegisterTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.accounts.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	_, err = f.accounts.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	all, err := f.users.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Login(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := f.accounts.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrWrongPassword)

	token, err := f.accounts.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	id, err := f.issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.ListUsers(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	caller := f.identity(t, "alice", "pw1")
	users, err := f.accounts.ListUsers(ctx, caller)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEmpty(t, users[0].PasswordHash)
}

func TestCreatePostIgnoresSuppliedAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.blog.CreatePost(ctx, nil, PostPatch{Text: "hi"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	alice := f.identity(t, "alice", "pw1")
	bob := f.identity(t, "bob", "pw2")

	post, err := f.blog.CreatePost(ctx, alice, PostPatch{Text: "hello", AuthorID: bob.UserID})
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, post.AuthorID)

	stored, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, stored.AuthorID)
	assert.Equal(t, "hello", stored.Text)
}

func TestUpdatePostPartialPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice", "pw1")
	bob := f.identity(t, "bob", "pw2")

	post, err := f.blog.CreatePost(ctx, alice, PostPatch{Text: "original"})
	require.NoError(t, err)

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := f.blog.UpdatePost(ctx, nil, post.ID, PostPatch{Text: "x"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.blog.UpdatePost(ctx, alice, post.ID+1000, PostPatch{Text: "x"})
		assert.ErrorIs(t, err, ErrPostNotFound)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		updated, err := f.blog.UpdatePost(ctx, alice, post.ID, PostPatch{})
		require.NoError(t, err)
		assert.Equal(t, "original", updated.Text)
		assert.Equal(t, alice.UserID, updated.AuthorID)
	})

	t.Run("text only", func(t *testing.T) {
		updated, err := f.blog.UpdatePost(ctx, alice, post.ID, PostPatch{Text: "edited"})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Text)
		assert.Equal(t, alice.UserID, updated.AuthorID)
	})

	t.Run("author only", func(t *testing.T) {
		updated, err := f.blog.UpdatePost(ctx, alice, post.ID, PostPatch{AuthorID: bob.UserID})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Text)
		assert.Equal(t, bob.UserID, updated.AuthorID)

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", stored.Text)
		assert.Equal(t, bob.UserID, stored.AuthorID)
	})
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.blog.ListPosts(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	alice := f.identity(t, "alice", "pw1")
	posts, err := f.blog.ListPosts(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, posts)

	for i := 0; i < 3; i++ {
		_, err := f.blog.CreatePost(ctx, alice, PostPatch{Text: "p"})
		require.NoError(t, err)
	}
	posts, err = f.blog.ListPosts(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

// staleLookup simulates a concurrent registration slipping past the existence check.
type staleLookup struct {
	repository.UserRepository
}

func (staleLookup) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func TestRegisterRaceFallsBackToConstraint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	racing := NewAuthService(staleLookup{f.users}, hasher, f.issuer)

	_, err = racing.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}
