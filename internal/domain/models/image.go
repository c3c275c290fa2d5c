package models

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidImagePath = errors.New("image path must not be empty")

// Image — разделяемый ассет. На него ссылаются и миниатюры постов,
// и блоки-изображения; временем жизни поста он не ограничен.
type Image struct {
	ID   uuid.UUID
	Path string
}

// NewImage создает изображение с новым id.
func NewImage(path string) (Image, error) {
	return AssembleImage(uuid.New(), path)
}

func AssembleImage(id uuid.UUID, path string) (Image, error) {
	if path == "" {
		return Image{}, ErrInvalidImagePath
	}

	return Image{ID: id, Path: path}, nil
}
