package storage

import "errors"

var (
	ErrPostNotFound      = errors.New("blog post not found")
	ErrMalformedPost     = errors.New("blog post content row has no variant row")
	ErrImageNotFound     = errors.New("image not found")
	ErrImageExists       = errors.New("image already exists")
	ErrTopTechPickNotSet = errors.New("top tech pick is not set")
)
