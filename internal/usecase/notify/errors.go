// Package notify implements the subscriber notification path: a bus
// consumer that turns post events into dispatch jobs, and the job handler
// that fans a post out to every subscriber of its categories.
package notify

import "errors"

// Sentinel errors for notification dispatch.
var (
	// ErrPostNotFound indicates that the post referenced by a dispatch job
	// no longer exists. Dispatch jobs for vanished posts fail terminally.
	ErrPostNotFound = errors.New("post not found")

	// ErrAuthorNotFound indicates that the post's author record (or its
	// backing user) is missing, so the notification context cannot be built.
	ErrAuthorNotFound = errors.New("author not found")
)
