package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamwatch/watchlist-api/internal/domain"
	"github.com/streamwatch/watchlist-api/internal/rating"
)

// ReviewsRepository provides persistence helpers for reviews and the
// composed review+aggregate write.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `
    id,
    watchlist_id,
    reviewer,
    rating,
    body,
    active,
    created_at,
    updated_at
`

// ReviewFilters narrows review listings. Both filters are equality matches.
type ReviewFilters struct {
	Reviewer *string
	Active   *bool
}

// ReviewUpdateParams bundles the writable fields of a review.
type ReviewUpdateParams struct {
	Rating int
	Body   string
	Active bool
}

// SubmitReview inserts a review and folds its rating into the watchlist
// item's aggregate in one transaction. The item row is locked for the
// duration so concurrent submissions serialize; the uniqueness constraint
// turns a duplicate into ErrAlreadyReviewed without a racy pre-check.
func (r *ReviewsRepository) SubmitReview(ctx context.Context, sub rating.Submission) (domain.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("begin submit review: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		avg   float64
		count int64
	)
	err = tx.QueryRow(ctx,
		`SELECT avg_rating, rating_count FROM watchlist WHERE id = $1 FOR UPDATE`,
		sub.WatchlistID,
	).Scan(&avg, &count)
	if err != nil {
		return domain.Review{}, mapPgError(err)
	}

	insertQuery := fmt.Sprintf(`
        INSERT INTO reviews (id, watchlist_id, reviewer, rating, body)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(tx.QueryRow(ctx, insertQuery,
		uuid.NewString(), sub.WatchlistID, sub.Reviewer, sub.Rating, sub.Body))
	if err != nil {
		return domain.Review{}, mapPgError(err)
	}

	newAvg, newCount := rating.Fold(avg, count, sub.Rating)
	_, err = tx.Exec(ctx,
		`UPDATE watchlist SET avg_rating = $2, rating_count = $3, updated_at = now() WHERE id = $1`,
		sub.WatchlistID, newAvg, newCount,
	)
	if err != nil {
		return domain.Review{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Review{}, mapPgError(err)
	}
	return review, nil
}

// ListForItem returns the reviews for a watchlist item in stored order,
// optionally filtered by reviewer and active flag.
func (r *ReviewsRepository) ListForItem(ctx context.Context, watchlistID string, filters ReviewFilters) ([]domain.Review, error) {
	where := []string{"watchlist_id = $1"}
	args := []interface{}{watchlistID}
	if filters.Reviewer != nil {
		where = append(where, fmt.Sprintf("reviewer = $%d", len(args)+1))
		args = append(args, *filters.Reviewer)
	}
	if filters.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filters.Active)
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE %s ORDER BY created_at, id`,
		reviewColumns, strings.Join(where, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

// ListByReviewer returns all reviews owned by a username in stored order.
func (r *ReviewsRepository) ListByReviewer(ctx context.Context, username string) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE reviewer = $1 ORDER BY created_at, id`, reviewColumns)

	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Review{}, mapPgError(err)
	}
	return review, nil
}

// Update replaces the writable fields of a review. The watchlist item's
// aggregate is written only on submission; edits leave it untouched, which
// is the historical behaviour of the workflow.
func (r *ReviewsRepository) Update(ctx context.Context, id string, params ReviewUpdateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        UPDATE reviews
        SET rating = $2, body = $3, active = $4, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, params.Rating, params.Body, params.Active))
	if err != nil {
		return domain.Review{}, mapPgError(err)
	}
	return review, nil
}

// Delete removes a review. Aggregates are deliberately not recomputed.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.WatchlistID,
		&review.Reviewer,
		&review.Rating,
		&review.Body,
		&review.Active,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
