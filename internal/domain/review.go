package domain

import "time"

// Review is a single user's rating and comment on a watchlist item. Reviewer
// holds the owning user's username; at most one review exists per
// (watchlist item, reviewer) pair.
type Review struct {
	ID          string
	WatchlistID string
	Reviewer    string
	Rating      int
	Body        string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
