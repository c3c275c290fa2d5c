package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"techblog/internal/domain/models"
	"techblog/internal/lib/logger/sl"
	"techblog/internal/repository"
	"techblog/internal/storage"
	"techblog/internal/transport/http/dto"
)

var (
	ErrUnknownBlockType  = errors.New("unknown content block type")
	ErrMissingBlockImage = errors.New("image block must carry an image")
)

const maxLatestLimit = 100

type BlogService struct {
	log  *slog.Logger
	repo repository.BlogPostRepository
}

func NewBlogService(log *slog.Logger, repo repository.BlogPostRepository) *BlogService {
	return &BlogService{log: log, repo: repo}
}

// CreatePost собирает агрегат из запроса и сохраняет его одной
// транзакцией. Блокам без id сервер присваивает новые UUID.
func (s *BlogService) CreatePost(ctx context.Context, req dto.CreateBlogPostRequest) (*dto.BlogPostResponse, error) {
	const op = "blog_service.CreatePost"
	log := s.log.With(slog.String("op", op))

	log.Info("creating blog post", slog.String("title", req.Title))

	post, err := buildPost(uuid.New(), req.Title, req.Thumbnail, req.PostDate, req.LastUpdateDate, req.PublishedAt, req.Contents)
	if err != nil {
		log.Warn("invalid blog post payload", sl.Err(err))
		return nil, err
	}

	if err := s.repo.Create(ctx, post); err != nil {
		log.Error("failed to create post", sl.Err(err))
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	log.Info("post created", slog.String("post_id", post.ID.String()))
	return s.adminResponse(ctx, post.ID)
}

// UpdatePost полностью заменяет шапку поста и список блоков.
func (s *BlogService) UpdatePost(ctx context.Context, postID uuid.UUID, req dto.UpdateBlogPostRequest) (*dto.BlogPostResponse, error) {
	const op = "blog_service.UpdatePost"
	log := s.log.With(slog.String("op", op), slog.String("post_id", postID.String()))

	log.Info("updating blog post")

	post, err := buildPost(postID, req.Title, req.Thumbnail, req.PostDate, req.LastUpdateDate, req.PublishedAt, req.Contents)
	if err != nil {
		log.Warn("invalid blog post payload", sl.Err(err))
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			log.Warn("post not found")
			return nil, err
		}
		log.Error("failed to update post", sl.Err(err))
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	log.Info("post updated")
	return s.adminResponse(ctx, postID)
}

// GetPostByID — публичное чтение: неопубликованный пост для клиента
// неотличим от отсутствующего, но в логах различается.
func (s *BlogService) GetPostByID(ctx context.Context, id uuid.UUID) (*dto.BlogPostResponse, error) {
	const op = "blog_service.GetPostByID"
	log := s.log.With(slog.String("op", op), slog.String("post_id", id.String()))

	post, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			if admin, adminErr := s.repo.FindAdmin(ctx, id); adminErr == nil {
				log.Warn("unpublished post requested publicly", slog.String("title", admin.Title))
				return nil, &models.UnpublishedPostError{Title: admin.Title}
			}
			log.Warn("post not found")
			return nil, err
		}
		log.Error("failed to get post", sl.Err(err))
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return dto.NewBlogPostResponse(post), nil
}

func (s *BlogService) GetAdminPostByID(ctx context.Context, id uuid.UUID) (*dto.BlogPostResponse, error) {
	const op = "blog_service.GetAdminPostByID"
	log := s.log.With(slog.String("op", op), slog.String("post_id", id.String()))

	post, err := s.repo.FindAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			log.Warn("post not found")
			return nil, err
		}
		log.Error("failed to get post", sl.Err(err))
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return dto.NewBlogPostResponse(post), nil
}

// ListLatestPosts возвращает опубликованные посты, новые сверху.
// limit <= 0 означает без ограничения.
func (s *BlogService) ListLatestPosts(ctx context.Context, limit int) ([]dto.BlogPostResponse, error) {
	const op = "blog_service.ListLatestPosts"
	log := s.log.With(slog.String("op", op), slog.Int("limit", limit))

	if limit > maxLatestLimit {
		limit = maxLatestLimit
	}

	posts, err := s.repo.ListLatest(ctx, limit)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	log.Info("posts listed", slog.Int("count", len(posts)))
	return dto.NewBlogPostResponses(posts), nil
}

func (s *BlogService) ListAllPosts(ctx context.Context) ([]dto.BlogPostResponse, error) {
	const op = "blog_service.ListAllPosts"
	log := s.log.With(slog.String("op", op))

	posts, err := s.repo.ListAdminAll(ctx)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	log.Info("posts listed", slog.Int("count", len(posts)))
	return dto.NewBlogPostResponses(posts), nil
}

func (s *BlogService) adminResponse(ctx context.Context, postID uuid.UUID) (*dto.BlogPostResponse, error) {
	post, err := s.repo.FindAdmin(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back post: %w", err)
	}
	return dto.NewBlogPostResponse(post), nil
}

func buildPost(
	id uuid.UUID,
	title string,
	thumbnail dto.ImageRef,
	postDate dto.Date,
	lastUpdateDate dto.Date,
	publishedAt time.Time,
	blocks []dto.ContentBlock,
) (*models.BlogPost, error) {
	thumbID := thumbnail.ID
	if thumbID == uuid.Nil {
		thumbID = uuid.New()
	}
	thumb, err := models.AssembleImage(thumbID, thumbnail.Path)
	if err != nil {
		return nil, err
	}

	contents := make([]models.ContentBlock, 0, len(blocks))
	for _, cb := range blocks {
		block, err := buildBlock(cb)
		if err != nil {
			return nil, err
		}
		contents = append(contents, block)
	}

	return models.AssembleBlogPost(id, title, thumb, postDate.Time(), lastUpdateDate.Time(), publishedAt.UTC(), contents)
}

func buildBlock(cb dto.ContentBlock) (models.ContentBlock, error) {
	id := cb.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	switch models.ContentType(cb.Type) {
	case models.ContentTypeH2:
		return models.H2Block{ID: id, Text: cb.Text}, nil

	case models.ContentTypeH3:
		return models.H3Block{ID: id, Text: cb.Text}, nil

	case models.ContentTypeParagraph:
		runs := make([]models.RichTextRun, 0, len(cb.Runs))
		for _, run := range cb.Runs {
			r := models.RichTextRun{
				Text: run.Text,
				Styles: models.TextStyles{
					Bold:       run.Styles.Bold,
					InlineCode: run.Styles.InlineCode,
				},
			}
			if run.Link != nil {
				r.Link = &models.Link{URL: run.Link.URL}
			}
			runs = append(runs, r)
		}
		return models.ParagraphBlock{ID: id, Text: models.NewRichText(runs)}, nil

	case models.ContentTypeImage:
		if cb.Image == nil {
			return nil, ErrMissingBlockImage
		}
		imageID := cb.Image.ID
		if imageID == uuid.Nil {
			imageID = uuid.New()
		}
		image, err := models.AssembleImage(imageID, cb.Image.Path)
		if err != nil {
			return nil, err
		}
		return models.ImageBlock{ID: id, Image: image}, nil

	case models.ContentTypeCode:
		return models.NewCodeBlock(id, cb.Title, cb.Code, cb.Language)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, cb.Type)
	}
}
