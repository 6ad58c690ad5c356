package entity

import "time"

// Comment is a user comment on a post. Comment ratings contribute to the
// author rating recomputation.
type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Text      string
	Rating    int
	CreatedAt time.Time
}
