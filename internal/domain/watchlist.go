package domain

import "time"

// WatchlistItem is a movie/show entry belonging to a platform. AvgRating and
// RatingCount are derived fields owned by the rating workflow; no other code
// path writes them.
type WatchlistItem struct {
	ID           string
	Title        string
	Storyline    *string
	Active       bool
	AvgRating    float64
	RatingCount  int64
	PlatformID   string
	PlatformName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
