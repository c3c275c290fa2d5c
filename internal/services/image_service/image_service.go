package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"techblog/internal/domain/models"
	"techblog/internal/lib/logger/sl"
	"techblog/internal/repository"
	"techblog/internal/storage"
	"techblog/internal/transport/http/dto"
)

type ImageService struct {
	log  *slog.Logger
	repo repository.ImageRepository
}

func NewImageService(log *slog.Logger, repo repository.ImageRepository) *ImageService {
	return &ImageService{log: log, repo: repo}
}

// RegisterImage регистрирует путь ассета. Повторная регистрация того же
// пути возвращает уже существующее изображение.
func (s *ImageService) RegisterImage(ctx context.Context, path string) (*dto.ImageResponse, error) {
	const op = "image_service.RegisterImage"
	log := s.log.With(slog.String("op", op), slog.String("path", path))

	existing, err := s.repo.FindByPath(ctx, path)
	if err == nil {
		log.Info("image already registered", slog.String("image_id", existing.ID.String()))
		resp := dto.NewImageResponse(existing)
		return &resp, nil
	}
	if !errors.Is(err, storage.ErrImageNotFound) {
		log.Error("failed to look up image", sl.Err(err))
		return nil, fmt.Errorf("failed to look up image: %w", err)
	}

	image, err := models.NewImage(path)
	if err != nil {
		log.Warn("invalid image payload", sl.Err(err))
		return nil, err
	}

	saved, err := s.repo.Save(ctx, image)
	if err != nil {
		log.Error("failed to save image", sl.Err(err))
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	log.Info("image registered", slog.String("image_id", saved.ID.String()))
	resp := dto.NewImageResponse(saved)
	return &resp, nil
}

func (s *ImageService) ListImages(ctx context.Context) ([]dto.ImageResponse, error) {
	const op = "image_service.ListImages"

	images, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("failed to list images", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	responses := make([]dto.ImageResponse, 0, len(images))
	for _, image := range images {
		responses = append(responses, dto.NewImageResponse(image))
	}

	return responses, nil
}
