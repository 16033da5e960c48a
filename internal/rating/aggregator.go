package rating

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/streamwatch/watchlist-api/internal/domain"
)

// Submission is the payload for creating a review against a watchlist item.
type Submission struct {
	WatchlistID string
	Reviewer    string
	Rating      int
	Body        string
}

// ReviewStore persists a review together with the watchlist item's updated
// aggregate in one atomic write. Implementations return the repository's
// sentinel errors for missing items and duplicate reviews.
type ReviewStore interface {
	SubmitReview(ctx context.Context, sub Submission) (domain.Review, error)
}

// ValidationError reports a rejected field on a submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rating: invalid %s: %s", e.Field, e.Reason)
}

// Aggregator owns the review-and-rating workflow: validate the submission,
// then hand it to the store, which folds the rating into the item's
// aggregate inside the same transaction as the review insert.
type Aggregator struct {
	store  ReviewStore
	logger zerolog.Logger
}

// NewAggregator wires an Aggregator over the given store.
func NewAggregator(store ReviewStore, logger zerolog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// SubmitReview validates and persists a review for the caller.
func (a *Aggregator) SubmitReview(ctx context.Context, sub Submission) (domain.Review, error) {
	if sub.Rating < Min || sub.Rating > Max {
		return domain.Review{}, &ValidationError{
			Field:  "rating",
			Reason: fmt.Sprintf("must be between %d and %d", Min, Max),
		}
	}
	if strings.TrimSpace(sub.Body) == "" {
		return domain.Review{}, &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if strings.TrimSpace(sub.Reviewer) == "" {
		return domain.Review{}, &ValidationError{Field: "reviewer", Reason: "must not be empty"}
	}

	review, err := a.store.SubmitReview(ctx, sub)
	if err != nil {
		return domain.Review{}, err
	}

	a.logger.Info().
		Str("watchlist_id", review.WatchlistID).
		Str("reviewer", review.Reviewer).
		Int("rating", review.Rating).
		Msg("rating: review submitted")
	return review, nil
}
