// Package entity defines the core domain entities and validation logic for the
// news portal: posts, categories, subscriptions, authors, and activation tokens.
package entity

import "time"

// PostType distinguishes time-sensitive news items from long-form articles.
type PostType string

const (
	// News posts are rate-limited per author per calendar day.
	News PostType = "NW"
	// Article posts are included in weekly digests.
	Article PostType = "AR"
)

// PreviewLength is the number of characters included in a notification preview.
const PreviewLength = 124

// Post represents a published content item. A post belongs to exactly one
// author and to one or more categories via the post_categories join table.
//
// NotificationsSent is monotonic: it starts false and is flipped to true once
// the subscriber fan-out for the post has fully completed. It is never reset.
type Post struct {
	ID                int64
	AuthorID          int64
	Type              PostType
	Title             string
	Content           string
	Rating            int
	NotificationsSent bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	return t == News || t == Article
}

// Preview returns the first PreviewLength characters of the post content,
// with an ellipsis appended when the content is longer.
func (p *Post) Preview() string {
	runes := []rune(p.Content)
	if len(runes) <= PreviewLength {
		return p.Content
	}
	return string(runes[:PreviewLength]) + "..."
}

// Validate checks the post fields that must hold before persistence.
func (p *Post) Validate() error {
	if p.AuthorID <= 0 {
		return &ValidationError{Field: "authorID", Message: "must be positive"}
	}
	if p.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "postType", Message: "must be NW or AR"}
	}
	return nil
}
