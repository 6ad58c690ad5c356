package entity

import "time"

// DigestInterval is the minimum time between weekly digests for one
// subscription, and also the lookback window for digest content.
const DigestInterval = 7 * 24 * time.Hour

// Subscription links a user to a category. The (UserID, CategoryID) pair is
// unique in the store.
//
// LastWeeklySent is the digest cursor: the dispatch time of the last weekly
// digest sent for this subscription, or nil if none was ever sent. The cursor
// advances only on runs that actually sent a digest.
type Subscription struct {
	ID             int64
	UserID         int64
	CategoryID     int64
	SubscribedAt   time.Time
	LastWeeklySent *time.Time
}

// NeedsWeeklyDigest reports whether the subscription is due for a digest at
// the given time: no digest was ever sent, or the last one is older than the
// digest interval.
func (s *Subscription) NeedsWeeklyDigest(now time.Time) bool {
	if s.LastWeeklySent == nil {
		return true
	}
	return now.Sub(*s.LastWeeklySent) > DigestInterval
}
