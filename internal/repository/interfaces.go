package repository

import (
	"context"

	"techblog/internal/domain/models"

	"github.com/google/uuid"
)

type BlogPostRepository interface {
	// Find возвращает агрегат только для опубликованных постов.
	Find(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	// FindAdmin возвращает агрегат независимо от статуса публикации.
	FindAdmin(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	ListLatest(ctx context.Context, limit int) ([]models.BlogPost, error)
	ListAdminAll(ctx context.Context) ([]models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, post *models.BlogPost) error
}

type ImageRepository interface {
	Save(ctx context.Context, image models.Image) (models.Image, error)
	FindAll(ctx context.Context) ([]models.Image, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.Image, error)
	FindByPath(ctx context.Context, path string) (models.Image, error)
}

type CuratedSetRepository interface {
	ReadPickUp(ctx context.Context) ([]models.BlogPost, error)
	ReadPopular(ctx context.Context) ([]models.BlogPost, error)
	ReadTopTechPick(ctx context.Context) (*models.BlogPost, error)
	ReplacePickUp(ctx context.Context, ids []uuid.UUID) error
	ReplacePopular(ctx context.Context, ids []uuid.UUID) error
	SetTopTechPick(ctx context.Context, id uuid.UUID) error
}
