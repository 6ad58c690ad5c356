package entity_test

import (
	"testing"
	"time"

	"newsportal/internal/domain/entity"
)

func TestSubscription_NeedsWeeklyDigest(t *testing.T) {
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)

	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{name: "never sent", last: nil, want: true},
		{name: "sent three days ago", last: ago(3 * 24 * time.Hour), want: false},
		{name: "sent exactly seven days ago", last: ago(entity.DigestInterval), want: false},
		{name: "sent over seven days ago", last: ago(entity.DigestInterval + time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &entity.Subscription{UserID: 1, CategoryID: 2, LastWeeklySent: tt.last}
			if got := sub.NeedsWeeklyDigest(now); got != tt.want {
				t.Errorf("NeedsWeeklyDigest() = %v, want %v", got, tt.want)
			}
		})
	}
}
