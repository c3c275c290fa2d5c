package repository

import (
	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	BlogPosts   BlogPostRepository
	Images      ImageRepository
	CuratedSets CuratedSetRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	posts := NewBlogPostRepository(db)

	return &Repository{
		BlogPosts:   posts,
		Images:      NewImageRepository(db),
		CuratedSets: NewCuratedSetRepository(db, posts),
	}
}
