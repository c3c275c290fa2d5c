package dto

import (
	"github.com/google/uuid"
)

// SelectPostsRequest — новый состав набора pick-up или popular.
type SelectPostsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,max=3,unique"`
}

type SelectPostRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}
