package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"techblog/internal/domain/models"
	"techblog/internal/storage"
)

const (
	pickUpTable      = "pickup_posts"
	popularTable     = "popular_posts"
	topTechPickTable = "top_tech_pick_post"
)

type CuratedSetRepo struct {
	db    *pgxpool.Pool
	sb    sq.StatementBuilderType
	posts *BlogPostRepo
}

func NewCuratedSetRepository(db *pgxpool.Pool, posts *BlogPostRepo) *CuratedSetRepo {
	return &CuratedSetRepo{
		db:    db,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		posts: posts,
	}
}

func (r *CuratedSetRepo) ReadPickUp(ctx context.Context) ([]models.BlogPost, error) {
	return r.readSet(ctx, pickUpTable)
}

func (r *CuratedSetRepo) ReadPopular(ctx context.Context) ([]models.BlogPost, error) {
	return r.readSet(ctx, popularTable)
}

// readSet возвращает посты набора в порядке записи (updated_at ASC);
// неопубликованные на момент чтения молча пропускаются, сам набор
// чтение не изменяет.
func (r *CuratedSetRepo) readSet(ctx context.Context, table string) ([]models.BlogPost, error) {
	const op = "repository.curated_repository.readSet"

	query, args, err := r.sb.Select("post_id").
		From(table).
		OrderBy("updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	posts := make([]models.BlogPost, 0, len(ids))
	for _, id := range ids {
		post, err := r.posts.Find(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrPostNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, *post)
	}

	return posts, nil
}

func (r *CuratedSetRepo) ReadTopTechPick(ctx context.Context) (*models.BlogPost, error) {
	const op = "repository.curated_repository.ReadTopTechPick"

	query, args, err := r.sb.Select("post_id").
		From(topTechPickTable).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTopTechPickNotSet)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := r.posts.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (r *CuratedSetRepo) ReplacePickUp(ctx context.Context, ids []uuid.UUID) error {
	return r.replaceSet(ctx, pickUpTable, ids)
}

func (r *CuratedSetRepo) ReplacePopular(ctx context.Context, ids []uuid.UUID) error {
	return r.replaceSet(ctx, popularTable, ids)
}

// replaceSet переписывает набор атомарно: удалить все строки, вставить
// новые id по порядку. Порядок кодируется возрастающим updated_at,
// чтение сортирует по нему же.
func (r *CuratedSetRepo) replaceSet(ctx context.Context, table string, ids []uuid.UUID) error {
	const op = "repository.curated_repository.replaceSet"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Delete(table).ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	base := time.Now().UTC()
	for i, id := range ids {
		query, args, err := r.sb.Insert(table).
			Columns("post_id", "updated_at").
			Values(id, base.Add(time.Duration(i)*time.Millisecond)).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func (r *CuratedSetRepo) SetTopTechPick(ctx context.Context, id uuid.UUID) error {
	const op = "repository.curated_repository.SetTopTechPick"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Update(topTechPickTable).
		Set("post_id", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		query, args, err := r.sb.Insert(topTechPickTable).
			Columns("post_id").
			Values(id).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
