package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"techblog/internal/lib/logger/sl"
	"techblog/internal/repository"
	"techblog/internal/storage"
	"techblog/internal/transport/http/dto"
)

var (
	ErrTooManyPosts   = errors.New("curated set accepts at most three posts")
	ErrDuplicatePosts = errors.New("curated set ids must be unique")
	ErrUnknownPost    = errors.New("unknown blog post id")
)

const maxSetSize = 3

// CuratedService управляет тремя редакционными наборами: pick-up,
// popular и top tech pick.
type CuratedService struct {
	log   *slog.Logger
	sets  repository.CuratedSetRepository
	posts repository.BlogPostRepository
}

func NewCuratedService(log *slog.Logger, sets repository.CuratedSetRepository, posts repository.BlogPostRepository) *CuratedService {
	return &CuratedService{log: log, sets: sets, posts: posts}
}

func (s *CuratedService) GetPickUp(ctx context.Context) ([]dto.BlogPostResponse, error) {
	const op = "curated_service.GetPickUp"

	posts, err := s.sets.ReadPickUp(ctx)
	if err != nil {
		s.log.Error("failed to read pick-up posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("failed to read pick-up posts: %w", err)
	}

	return dto.NewBlogPostResponses(posts), nil
}

func (s *CuratedService) GetPopular(ctx context.Context) ([]dto.BlogPostResponse, error) {
	const op = "curated_service.GetPopular"

	posts, err := s.sets.ReadPopular(ctx)
	if err != nil {
		s.log.Error("failed to read popular posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("failed to read popular posts: %w", err)
	}

	return dto.NewBlogPostResponses(posts), nil
}

func (s *CuratedService) GetTopTechPick(ctx context.Context) (*dto.BlogPostResponse, error) {
	const op = "curated_service.GetTopTechPick"
	log := s.log.With(slog.String("op", op))

	post, err := s.sets.ReadTopTechPick(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrTopTechPickNotSet) || errors.Is(err, storage.ErrPostNotFound) {
			log.Warn("top tech pick unavailable", sl.Err(err))
			return nil, err
		}
		log.Error("failed to read top tech pick", sl.Err(err))
		return nil, fmt.Errorf("failed to read top tech pick: %w", err)
	}

	return dto.NewBlogPostResponse(post), nil
}

// SelectPickUp переписывает набор pick-up целиком, порядок входного
// списка сохраняется при чтении.
func (s *CuratedService) SelectPickUp(ctx context.Context, ids []uuid.UUID) error {
	const op = "curated_service.SelectPickUp"
	log := s.log.With(slog.String("op", op))

	if err := s.validateSelection(ctx, ids); err != nil {
		log.Warn("invalid pick-up selection", sl.Err(err))
		return err
	}

	if err := s.sets.ReplacePickUp(ctx, ids); err != nil {
		log.Error("failed to replace pick-up posts", sl.Err(err))
		return fmt.Errorf("failed to replace pick-up posts: %w", err)
	}

	log.Info("pick-up posts replaced", slog.Int("count", len(ids)))
	return nil
}

func (s *CuratedService) SelectPopular(ctx context.Context, ids []uuid.UUID) error {
	const op = "curated_service.SelectPopular"
	log := s.log.With(slog.String("op", op))

	if err := s.validateSelection(ctx, ids); err != nil {
		log.Warn("invalid popular selection", sl.Err(err))
		return err
	}

	if err := s.sets.ReplacePopular(ctx, ids); err != nil {
		log.Error("failed to replace popular posts", sl.Err(err))
		return fmt.Errorf("failed to replace popular posts: %w", err)
	}

	log.Info("popular posts replaced", slog.Int("count", len(ids)))
	return nil
}

func (s *CuratedService) SelectTopTechPick(ctx context.Context, id uuid.UUID) error {
	const op = "curated_service.SelectTopTechPick"
	log := s.log.With(slog.String("op", op), slog.String("post_id", id.String()))

	if err := s.ensureExists(ctx, id); err != nil {
		log.Warn("invalid top tech pick selection", sl.Err(err))
		return err
	}

	if err := s.sets.SetTopTechPick(ctx, id); err != nil {
		log.Error("failed to set top tech pick", sl.Err(err))
		return fmt.Errorf("failed to set top tech pick: %w", err)
	}

	log.Info("top tech pick set")
	return nil
}

// validateSelection: не больше трех, без повторов, каждый id существует.
// Статус публикации не важен — набор можно собрать заранее.
func (s *CuratedService) validateSelection(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) > maxSetSize {
		return ErrTooManyPosts
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePosts, id)
		}
		seen[id] = struct{}{}
	}

	for _, id := range ids {
		if err := s.ensureExists(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func (s *CuratedService) ensureExists(ctx context.Context, id uuid.UUID) error {
	if _, err := s.posts.FindAdmin(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownPost, id)
		}
		return fmt.Errorf("failed to check post existence: %w", err)
	}
	return nil
}
