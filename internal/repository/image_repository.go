package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"techblog/internal/domain/models"
	"techblog/internal/storage"
)

// код ошибки postgres для нарушения уникального ограничения
const uniqueViolationCode = "23505"

type ImageRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewImageRepository(db *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save вставляет изображение; повтор id или file_path — ошибка,
// апсерта здесь нет намеренно, дедупликация делается через FindByPath.
func (r *ImageRepo) Save(ctx context.Context, image models.Image) (models.Image, error) {
	const op = "repository.image_repository.Save"

	query, args, err := r.sb.Insert("images").
		Columns("id", "file_path").
		Values(image.ID, image.Path).
		ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.Image{}, fmt.Errorf("%s: %w", op, storage.ErrImageExists)
		}
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	return image, nil
}

func (r *ImageRepo) FindAll(ctx context.Context) ([]models.Image, error) {
	const op = "repository.image_repository.FindAll"

	query, args, err := r.sb.Select("id", "file_path").
		From("images").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var image models.Image
		if err := rows.Scan(&image.ID, &image.Path); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		images = append(images, image)
	}

	return images, nil
}

func (r *ImageRepo) FindByID(ctx context.Context, id uuid.UUID) (models.Image, error) {
	const op = "repository.image_repository.FindByID"

	return r.findOne(ctx, op, sq.Eq{"id": id})
}

func (r *ImageRepo) FindByPath(ctx context.Context, path string) (models.Image, error) {
	const op = "repository.image_repository.FindByPath"

	return r.findOne(ctx, op, sq.Eq{"file_path": path})
}

func (r *ImageRepo) findOne(ctx context.Context, op string, where sq.Eq) (models.Image, error) {
	query, args, err := r.sb.Select("id", "file_path").
		From("images").
		Where(where).
		ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var image models.Image
	err = r.db.QueryRow(ctx, query, args...).Scan(&image.ID, &image.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	return image, nil
}
