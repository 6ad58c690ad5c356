package entity

// Author wraps a single user identity for publishing. Rating is a derived
// value recomputed on demand from the author's posts and related comments;
// the stored value is a cache of the last recomputation.
type Author struct {
	ID     int64
	UserID int64
	Rating int
}
