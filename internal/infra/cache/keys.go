package cache

import "fmt"

// Key builders for the fragments the portal caches. Keeping them in one
// place means the pages that write fragments and the invalidator that
// evicts them can never drift apart on naming.

// PostDetailKey caches the rendered detail page of a single post.
func PostDetailKey(postID int64) string {
	return fmt.Sprintf("post:detail:%d", postID)
}

// PostListKey caches the front-page listing.
func PostListKey() string {
	return "post:list"
}

// PostSearchKey caches the filtered search listing.
func PostSearchKey() string {
	return "post:search"
}

// CategoryListingKey caches the per-category listing page.
func CategoryListingKey(categoryID int64) string {
	return fmt.Sprintf("category:listing:%d", categoryID)
}

// PostCommentsKey caches the comment thread under a post.
func PostCommentsKey(postID int64) string {
	return fmt.Sprintf("post:comments:%d", postID)
}

// UserSubscriptionsKey caches the subscription list shown on a user's
// profile page.
func UserSubscriptionsKey(userID int64) string {
	return fmt.Sprintf("user:subscriptions:%d", userID)
}

// CategorySubscriberCountKey caches the subscriber counter shown on
// category pages.
func CategorySubscriberCountKey(categoryID int64) string {
	return fmt.Sprintf("category:subscribers:%d", categoryID)
}
