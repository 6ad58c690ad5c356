package entity

// Category is a named grouping of posts. Users subscribe to categories via
// Subscription; posts are attached via the post_categories join table.
type Category struct {
	ID   int64
	Name string
}
