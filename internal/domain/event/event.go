// Package event defines the typed domain events raised on the mutation path
// and the buffering emitter that releases them only after the enclosing unit
// of work has committed.
package event

// Kind identifies an event type for handler registration.
type Kind string

// Event kinds raised by the mutation path.
const (
	KindPostCreated         Kind = "post.created"
	KindCategoriesAttached  Kind = "post.categories_attached"
	KindUserRegistered      Kind = "user.registered"
	KindAccountActivated    Kind = "account.activated"
	KindSubscriptionCreated Kind = "subscription.created"
	KindSubscriptionRemoved Kind = "subscription.removed"
	KindCommentCreated      Kind = "comment.created"
)

// Event is a domain event carrying entity ids only. Consumers must re-fetch
// current entity state; by the emitter contract the referenced entities are
// durably visible once the event is delivered.
type Event interface {
	Kind() Kind
}

// PostCreated is raised when a new post has been persisted, including the
// categories attached at creation time.
type PostCreated struct {
	PostID      int64
	CategoryIDs []int64
}

// CategoriesAttached is raised when categories are added to an existing post.
type CategoriesAttached struct {
	PostID      int64
	CategoryIDs []int64
}

// UserRegistered is raised when a new user account has been persisted.
type UserRegistered struct {
	UserID int64
}

// AccountActivated is raised when an activation token flips from pending to
// activated.
type AccountActivated struct {
	UserID int64
}

// SubscriptionCreated is raised when a user subscribes to a category.
type SubscriptionCreated struct {
	UserID     int64
	CategoryID int64
}

// SubscriptionRemoved is raised when a subscription is deleted.
type SubscriptionRemoved struct {
	UserID     int64
	CategoryID int64
}

// CommentCreated is raised when a comment has been persisted.
type CommentCreated struct {
	PostID int64
}

func (PostCreated) Kind() Kind         { return KindPostCreated }
func (CategoriesAttached) Kind() Kind  { return KindCategoriesAttached }
func (UserRegistered) Kind() Kind      { return KindUserRegistered }
func (AccountActivated) Kind() Kind    { return KindAccountActivated }
func (SubscriptionCreated) Kind() Kind { return KindSubscriptionCreated }
func (SubscriptionRemoved) Kind() Kind { return KindSubscriptionRemoved }
func (CommentCreated) Kind() Kind      { return KindCommentCreated }
