package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"techblog/internal/domain/models"
	"techblog/internal/storage"
)

// querier выполняет запрос и на пуле, и внутри открытой транзакции,
// поэтому сборка агрегата работает в обоих контекстах.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type BlogPostRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewBlogPostRepository(db *pgxpool.Pool) *BlogPostRepo {
	return &BlogPostRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (b *BlogPostRepo) Find(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	return b.get(ctx, b.db, id, true)
}

func (b *BlogPostRepo) FindAdmin(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	return b.get(ctx, b.db, id, false)
}

func (b *BlogPostRepo) ListLatest(ctx context.Context, limit int) ([]models.BlogPost, error) {
	const op = "repository.blog_repository.ListLatest"

	qb := b.sb.Select("id").
		From("blog_posts").
		Where(sq.Expr("published_at <= now()")).
		OrderBy("post_date DESC", "id ASC")
	if limit > 0 {
		qb = qb.Limit(uint64(limit))
	}

	return b.listPosts(ctx, op, qb, true)
}

func (b *BlogPostRepo) ListAdminAll(ctx context.Context) ([]models.BlogPost, error) {
	const op = "repository.blog_repository.ListAdminAll"

	qb := b.sb.Select("id").
		From("blog_posts").
		OrderBy("post_date DESC", "id ASC")

	return b.listPosts(ctx, op, qb, false)
}

func (b *BlogPostRepo) listPosts(ctx context.Context, op string, qb sq.SelectBuilder, publicOnly bool) ([]models.BlogPost, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := b.db.Query(ctx, query, args...)
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
		post, err := b.get(ctx, b.db, id, publicOnly)
		if err != nil {
			// пост мог быть переопубликован между двумя запросами
			if errors.Is(err, storage.ErrPostNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, *post)
	}

	return posts, nil
}

func (b *BlogPostRepo) Create(ctx context.Context, post *models.BlogPost) error {
	const op = "repository.blog_repository.Create"

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if err := b.ensureImage(ctx, tx, post.Thumbnail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := b.sb.Insert("blog_posts").
		Columns(
			"id",
			"title",
			"thumbnail_image_id",
			"post_date",
			"last_update_date",
			"published_at",
		).
		Values(
			post.ID,
			post.Title,
			post.Thumbnail.ID,
			post.PostDate,
			post.LastUpdateDate,
			post.PublishedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := b.insertContents(ctx, tx, post.ID, post.Contents); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// Update переписывает шапку поста и полностью заменяет список блоков:
// строки post_contents удаляются, каскад убирает вариантные таблицы
// и rich-text дерево, затем новый список вставляется в порядке входа.
func (b *BlogPostRepo) Update(ctx context.Context, post *models.BlogPost) error {
	const op = "repository.blog_repository.Update"

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if err := b.ensureImage(ctx, tx, post.Thumbnail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := b.sb.Update("blog_posts").
		Set("title", post.Title).
		Set("thumbnail_image_id", post.Thumbnail.ID).
		Set("post_date", post.PostDate).
		Set("last_update_date", post.LastUpdateDate).
		Set("published_at", post.PublishedAt).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": post.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	query, args, err = b.sb.Delete("post_contents").
		Where(sq.Eq{"post_id": post.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := b.insertContents(ctx, tx, post.ID, post.Contents); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// get собирает агрегат: шапка поста, миниатюра, затем блоки по sort_order.
// publicOnly добавляет предикат публикации к первому запросу, так что
// неопубликованный пост неотличим от отсутствующего.
func (b *BlogPostRepo) get(ctx context.Context, q querier, id uuid.UUID, publicOnly bool) (*models.BlogPost, error) {
	const op = "repository.blog_repository.get"

	qb := b.sb.Select(
		"id",
		"title",
		"thumbnail_image_id",
		"post_date",
		"last_update_date",
		"published_at",
	).
		From("blog_posts").
		Where(sq.Eq{"id": id})
	if publicOnly {
		qb = qb.Where(sq.Expr("published_at <= now()"))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var row struct {
		id             uuid.UUID
		title          string
		thumbnailID    uuid.UUID
		postDate       time.Time
		lastUpdateDate time.Time
		publishedAt    time.Time
	}
	err = q.QueryRow(ctx, query, args...).Scan(
		&row.id,
		&row.title,
		&row.thumbnailID,
		&row.postDate,
		&row.lastUpdateDate,
		&row.publishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	thumbnail, err := b.image(ctx, q, row.thumbnailID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contents, err := b.loadContents(ctx, q, row.id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := models.AssembleBlogPost(
		row.id,
		row.title,
		thumbnail,
		row.postDate,
		row.lastUpdateDate,
		row.publishedAt,
		contents,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (b *BlogPostRepo) image(ctx context.Context, q querier, id uuid.UUID) (models.Image, error) {
	const op = "repository.blog_repository.image"

	query, args, err := b.sb.Select("id", "file_path").
		From("images").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var image models.Image
	err = q.QueryRow(ctx, query, args...).Scan(&image.ID, &image.Path)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return models.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	return image, nil
}

func (b *BlogPostRepo) loadContents(ctx context.Context, q querier, postID uuid.UUID) ([]models.ContentBlock, error) {
	const op = "repository.blog_repository.loadContents"

	query, args, err := b.sb.Select("id", "content_type").
		From("post_contents").
		Where(sq.Eq{"post_id": postID}).
		OrderBy("sort_order ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	type contentRow struct {
		id    uuid.UUID
		ctype string
	}

	// Строки вычитываются полностью до вариантных запросов: внутри
	// транзакции все идет через одно соединение.
	var contentRows []contentRow
	for rows.Next() {
		var cr contentRow
		if err := rows.Scan(&cr.id, &cr.ctype); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		contentRows = append(contentRows, cr)
	}
	rows.Close()

	contents := make([]models.ContentBlock, 0, len(contentRows))
	for _, cr := range contentRows {
		block, err := b.loadBlock(ctx, q, cr.id, models.ContentType(cr.ctype))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		contents = append(contents, block)
	}

	return contents, nil
}

func (b *BlogPostRepo) loadBlock(ctx context.Context, q querier, id uuid.UUID, ctype models.ContentType) (models.ContentBlock, error) {
	const op = "repository.blog_repository.loadBlock"

	switch ctype {
	case models.ContentTypeH2, models.ContentTypeH3:
		query, args, err := b.sb.Select("heading_level", "text_content").
			From("heading_blocks").
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
		}

		var level int
		var text string
		if err := q.QueryRow(ctx, query, args...).Scan(&level, &text); err != nil {
			return nil, b.variantErr(op, id, err)
		}
		if level == 3 {
			return models.H3Block{ID: id, Text: text}, nil
		}
		return models.H2Block{ID: id, Text: text}, nil

	case models.ContentTypeParagraph:
		text, err := b.loadRichText(ctx, q, id)
		if err != nil {
			return nil, err
		}
		return models.ParagraphBlock{ID: id, Text: text}, nil

	case models.ContentTypeImage:
		query, args, err := b.sb.Select("image_id").
			From("image_blocks").
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
		}

		var imageID uuid.UUID
		if err := q.QueryRow(ctx, query, args...).Scan(&imageID); err != nil {
			return nil, b.variantErr(op, id, err)
		}

		image, err := b.image(ctx, q, imageID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return models.ImageBlock{ID: id, Image: image}, nil

	case models.ContentTypeCode:
		query, args, err := b.sb.Select("title", "code", "lang").
			From("code_blocks").
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
		}

		var block models.CodeBlock
		block.ID = id
		if err := q.QueryRow(ctx, query, args...).Scan(&block.Title, &block.Code, &block.Language); err != nil {
			return nil, b.variantErr(op, id, err)
		}
		return block, nil

	default:
		return nil, fmt.Errorf("%s: unknown content type %q", op, ctype)
	}
}

func (b *BlogPostRepo) variantErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: block %s: %w", op, id, storage.ErrMalformedPost)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (b *BlogPostRepo) loadRichText(ctx context.Context, q querier, paragraphID uuid.UUID) (models.RichText, error) {
	const op = "repository.blog_repository.loadRichText"

	query, args, err := b.sb.Select("id", "text").
		From("rich_texts").
		Where(sq.Eq{"paragraph_block_id": paragraphID}).
		OrderBy("sort_order ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	type runRow struct {
		id   uuid.UUID
		text string
	}

	var runRows []runRow
	for rows.Next() {
		var rr runRow
		if err := rows.Scan(&rr.id, &rr.text); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		runRows = append(runRows, rr)
	}
	rows.Close()

	runs := make([]models.RichTextRun, 0, len(runRows))
	for _, rr := range runRows {
		run := models.RichTextRun{Text: rr.text}

		styles, err := b.loadRunStyles(ctx, q, rr.id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		run.Styles = styles

		link, err := b.loadRunLink(ctx, q, rr.id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		run.Link = link

		runs = append(runs, run)
	}

	return models.RichText(runs), nil
}

func (b *BlogPostRepo) loadRunStyles(ctx context.Context, q querier, runID uuid.UUID) (models.TextStyles, error) {
	const op = "repository.blog_repository.loadRunStyles"

	query, args, err := b.sb.Select("ts.style_type").
		From("rich_text_styles rts").
		Join("text_styles ts ON ts.id = rts.style_id").
		Where(sq.Eq{"rts.rich_text_id": runID}).
		ToSql()
	if err != nil {
		return models.TextStyles{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return models.TextStyles{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var styles models.TextStyles
	for rows.Next() {
		var styleType string
		if err := rows.Scan(&styleType); err != nil {
			return models.TextStyles{}, fmt.Errorf("%s: %w", op, err)
		}
		switch styleType {
		case styleBold:
			styles.Bold = true
		case styleInlineCode:
			styles.InlineCode = true
		}
	}

	return styles, nil
}

func (b *BlogPostRepo) loadRunLink(ctx context.Context, q querier, runID uuid.UUID) (*models.Link, error) {
	const op = "repository.blog_repository.loadRunLink"

	query, args, err := b.sb.Select("url").
		From("rich_text_links").
		Where(sq.Eq{"rich_text_id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var url string
	err = q.QueryRow(ctx, query, args...).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Link{URL: url}, nil
}

const (
	styleBold       = "bold"
	styleInlineCode = "inline_code"
)

// ensureImage вставляет строку изображения, если ее еще нет: миниатюра
// и блоки-изображения могут прийти вместе с постом до регистрации ассета.
// Совпадение id безвредно, занятый чужим id file_path — конфликт.
func (b *BlogPostRepo) ensureImage(ctx context.Context, q querier, image models.Image) error {
	const op = "repository.blog_repository.ensureImage"

	query, args, err := b.sb.Insert("images").
		Columns("id", "file_path").
		Values(image.ID, image.Path).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if _, err := q.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%s: %w", op, storage.ErrImageExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *BlogPostRepo) insertContents(ctx context.Context, q querier, postID uuid.UUID, contents []models.ContentBlock) error {
	const op = "repository.blog_repository.insertContents"

	for i, block := range contents {
		query, args, err := b.sb.Insert("post_contents").
			Columns("id", "post_id", "content_type", "sort_order").
			Values(block.BlockID(), postID, string(block.Type()), i).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := b.insertVariant(ctx, q, block); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (b *BlogPostRepo) insertVariant(ctx context.Context, q querier, block models.ContentBlock) error {
	const op = "repository.blog_repository.insertVariant"

	var (
		query string
		args  []interface{}
		err   error
	)

	switch blk := block.(type) {
	case models.H2Block:
		query, args, err = b.sb.Insert("heading_blocks").
			Columns("id", "heading_level", "text_content").
			Values(blk.ID, 2, blk.Text).
			ToSql()

	case models.H3Block:
		query, args, err = b.sb.Insert("heading_blocks").
			Columns("id", "heading_level", "text_content").
			Values(blk.ID, 3, blk.Text).
			ToSql()

	case models.ParagraphBlock:
		query, args, err = b.sb.Insert("paragraph_blocks").
			Columns("id", "text_content").
			Values(blk.ID, blk.Text.PlainText()).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return b.insertRuns(ctx, q, blk.ID, blk.Text)

	case models.ImageBlock:
		if err := b.ensureImage(ctx, q, blk.Image); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		query, args, err = b.sb.Insert("image_blocks").
			Columns("id", "image_id").
			Values(blk.ID, blk.Image.ID).
			ToSql()

	case models.CodeBlock:
		query, args, err = b.sb.Insert("code_blocks").
			Columns("id", "title", "code", "lang").
			Values(blk.ID, blk.Title, blk.Code, blk.Language).
			ToSql()

	default:
		return fmt.Errorf("%s: unknown content block %T", op, block)
	}

	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *BlogPostRepo) insertRuns(ctx context.Context, q querier, paragraphID uuid.UUID, runs models.RichText) error {
	const op = "repository.blog_repository.insertRuns"

	for j, run := range runs {
		runID := uuid.New()

		query, args, err := b.sb.Insert("rich_texts").
			Columns("id", "paragraph_block_id", "sort_order", "text").
			Values(runID, paragraphID, j, run.Text).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if run.Styles.Bold {
			if err := b.attachStyle(ctx, q, runID, styleBold); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		if run.Styles.InlineCode {
			if err := b.attachStyle(ctx, q, runID, styleInlineCode); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if run.Link != nil {
			query, args, err := b.sb.Insert("rich_text_links").
				Columns("rich_text_id", "url").
				Values(runID, run.Link.URL).
				ToSql()
			if err != nil {
				return fmt.Errorf("%s: can't build sql: %w", op, err)
			}
			if _, err := q.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	return nil
}

// Справочник text_styles заполняется миграцией, поэтому id стиля
// подставляется подзапросом.
func (b *BlogPostRepo) attachStyle(ctx context.Context, q querier, runID uuid.UUID, styleType string) error {
	const op = "repository.blog_repository.attachStyle"

	_, err := q.Exec(ctx,
		`INSERT INTO rich_text_styles (rich_text_id, style_id)
		 SELECT $1, id FROM text_styles WHERE style_type = $2`,
		runID, styleType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
