package domain

import "time"

// Platform represents a streaming service hosting watchlist items.
type Platform struct {
	ID        string
	Name      string
	About     *string
	Website   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
