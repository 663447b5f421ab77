package edgeblog

import (
	"errors"
	"strings"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrSlugConflict  = errors.New("a post with this title already exists")
	ErrMalformedPost = errors.New("malformed post record")
	ErrInvalidSlug   = errors.New("invalid slug")
)

// ValidationError carries one message per failed field. Handlers render it as
// 400 {"error":"Validation failed","details":[...]}.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// ConflictError is returned when a write would overwrite another post.
type ConflictError struct {
	Slug string
}

func (e *ConflictError) Error() string {
	return ErrSlugConflict.Error() + ": " + e.Slug
}

func (e *ConflictError) Unwrap() error { return ErrSlugConflict }
