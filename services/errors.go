package services

import "errors"

var (
	ErrInvalidSlug         = errors.New("invalid slug")
	ErrInvalidResourceType = errors.New("invalid resource type")
	ErrInvalidAction       = errors.New("invalid tracking action")
	ErrPageNotFound        = errors.New("page not found")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrLocationUnknown     = errors.New("location unknown")
)
