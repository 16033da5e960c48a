package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamwatch/watchlist-api/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrAlreadyReviewed indicates the caller already holds a review for the
// watchlist item. The uniqueness constraint on (watchlist_id, reviewer)
// raises this atomically, so concurrent submissions cannot both pass.
var ErrAlreadyReviewed = errors.New("repository: already reviewed")

// ErrConflict indicates a transaction lost a race and may be retried by the
// caller.
var ErrConflict = errors.New("repository: transaction conflict")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Platforms *PlatformsRepository
	Watchlist *WatchlistRepository
	Reviews   *ReviewsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Platforms: &PlatformsRepository{pool: pool},
		Watchlist: &WatchlistRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
	}
}

// mapPgError translates driver-level failures into the repository's sentinel
// errors. Unrecognized errors pass through unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrAlreadyReviewed
		case "23503": // foreign_key_violation
			return ErrNotFound
		case "22P02": // invalid_text_representation (malformed uuid)
			return ErrNotFound
		case "40001": // serialization_failure
			return ErrConflict
		}
	}
	return err
}
