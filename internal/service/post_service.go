package service

import (
	"context"
	"errors"

	"blogpost-api/internal/auth"
	"blogpost-api/internal/domain"
	"blogpost-api/internal/repository"
)

// PostPatch carries post fields supplied by a caller. Empty text and a zero
// author id mean "leave unchanged" on update.
type PostPatch struct {
	Text     string
	AuthorID int64
}

// PostService implements post operations for authenticated callers.
type PostService interface {
	CreatePost(ctx context.Context, caller *auth.Identity, in PostPatch) (*domain.BlogPost, error)
	UpdatePost(ctx context.Context, caller *auth.Identity, id int64, patch PostPatch) (*domain.BlogPost, error)
	ListPosts(ctx context.Context, caller *auth.Identity) ([]domain.BlogPost, error)
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

// CreatePost stores a post authored by the caller. in.AuthorID is not applied.
func (s *postService) CreatePost(ctx context.Context, caller *auth.Identity, in PostPatch) (*domain.BlogPost, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	post := &domain.BlogPost{
		Text:     in.Text,
		AuthorID: caller.UserID,
	}
	return s.posts.Insert(ctx, post)
}

func (s *postService) UpdatePost(ctx context.Context, caller *auth.Identity, id int64, patch PostPatch) (*domain.BlogPost, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if patch.Text != "" {
		post.Text = patch.Text
	}
	if patch.AuthorID != 0 {
		post.AuthorID = patch.AuthorID
	}

	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *postService) ListPosts(ctx context.Context, caller *auth.Identity) ([]domain.BlogPost, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.posts.GetAll(ctx)
}
