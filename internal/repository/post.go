package repository

import "blogpost-api/internal/domain"

// PostRepository persists blog posts.
type PostRepository = Repository[domain.BlogPost]
