package edgeblog

import "time"

// Post is a blog post as stored under its slug in the key-value store.
type Post struct {
	ID        string     `json:"id"` // creation time in unix milliseconds
	Title     string     `json:"title"`
	Content   string     `json:"content"` // HTML, sanitized on render
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// PostInput is the body of create and update requests.
type PostInput struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Content string `json:"content" validate:"notblank"`
}
