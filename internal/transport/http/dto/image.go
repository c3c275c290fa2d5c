package dto

import (
	"github.com/google/uuid"
)

type RegisterImageRequest struct {
	Path string `json:"path" validate:"required"`
}

type ImageResponse struct {
	ID   uuid.UUID `json:"id" swaggertype:"string" format:"uuid"`
	Path string    `json:"path"`
}
