package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/streamwatch/watchlist-api/internal/rating"
)

func submission(watchlistID, reviewer string, value int) rating.Submission {
	return rating.Submission{
		WatchlistID: watchlistID,
		Reviewer:    reviewer,
		Rating:      value,
		Body:        fmt.Sprintf("%s gives it a %d", reviewer, value),
	}
}

func TestSubmitReviewFoldSequence(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Dark", platform.ID)

	// Ratings [4, 2] fold to 3.0, then 5 folds to 4.0. The pairwise average
	// overweights the latest rating and that behaviour is load-bearing.
	steps := []struct {
		reviewer  string
		value     int
		wantAvg   float64
		wantCount int64
	}{
		{"alice", 4, 4.0, 1},
		{"bob", 2, 3.0, 2},
		{"carol", 5, 4.0, 3},
	}

	for _, step := range steps {
		if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, step.reviewer, step.value)); err != nil {
			t.Fatalf("submit %s: %v", step.reviewer, err)
		}
		got, err := env.repository.Watchlist.GetByID(env.ctx, item.ID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if got.AvgRating != step.wantAvg || got.RatingCount != step.wantCount {
			t.Fatalf("after %s: avg=%v count=%d, want avg=%v count=%d",
				step.reviewer, got.AvgRating, got.RatingCount, step.wantAvg, step.wantCount)
		}
	}
}

func TestSubmitReviewCountMatchesSubmitters(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Ozark", platform.ID)

	const n = 7
	for i := 0; i < n; i++ {
		reviewer := fmt.Sprintf("user-%d", i)
		if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, reviewer, 1+i%5)); err != nil {
			t.Fatalf("submit %s: %v", reviewer, err)
		}
	}

	got, err := env.repository.Watchlist.GetByID(env.ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RatingCount != n {
		t.Fatalf("rating_count = %d, want %d", got.RatingCount, n)
	}
}

func TestSubmitReviewDuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Mindhunter", platform.ID)

	if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, "alice", 4)); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, "alice", 1))
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second submit = %v, want ErrAlreadyReviewed", err)
	}

	got, err := env.repository.Watchlist.GetByID(env.ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RatingCount != 1 || got.AvgRating != 4.0 {
		t.Fatalf("aggregate changed by rejected duplicate: avg=%v count=%d", got.AvgRating, got.RatingCount)
	}
}

func TestSubmitReviewConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Chernobyl", platform.ID)

	const attempts = 8
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, "alice", 5))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var succeeded, duplicates int
	for err := range errCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyReviewed):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || duplicates != attempts-1 {
		t.Fatalf("succeeded=%d duplicates=%d, want 1/%d", succeeded, duplicates, attempts-1)
	}

	got, err := env.repository.Watchlist.GetByID(env.ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.RatingCount != 1 {
		t.Fatalf("rating_count = %d, want 1", got.RatingCount)
	}
}

func TestSubmitReviewUnknownItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.repository.Reviews.SubmitReview(env.ctx,
		submission("00000000-0000-0000-0000-000000000000", "alice", 3))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("submit = %v, want ErrNotFound", err)
	}
}

func TestReviewFilters(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Narcos", platform.ID)

	reviewers := []string{"alice", "bob", "carol"}
	for _, reviewer := range reviewers {
		if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, reviewer, 3)); err != nil {
			t.Fatalf("submit %s: %v", reviewer, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Deactivate bob's review.
	bobs, err := env.repository.Reviews.ListForItem(env.ctx, item.ID, ReviewFilters{Reviewer: strPtr("bob")})
	if err != nil || len(bobs) != 1 {
		t.Fatalf("list bob: %v (%d)", err, len(bobs))
	}
	if _, err := env.repository.Reviews.Update(env.ctx, bobs[0].ID, ReviewUpdateParams{
		Rating: bobs[0].Rating,
		Body:   bobs[0].Body,
		Active: false,
	}); err != nil {
		t.Fatalf("deactivate bob: %v", err)
	}

	all, err := env.repository.Reviews.ListForItem(env.ctx, item.ID, ReviewFilters{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for i, reviewer := range reviewers {
		if all[i].Reviewer != reviewer {
			t.Fatalf("stored order broken: all[%d] = %s, want %s", i, all[i].Reviewer, reviewer)
		}
	}

	active, err := env.repository.Reviews.ListForItem(env.ctx, item.ID, ReviewFilters{Active: boolPtr(true)})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}

	alice, err := env.repository.Reviews.ListForItem(env.ctx, item.ID, ReviewFilters{Reviewer: strPtr("alice")})
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(alice) != 1 || alice[0].Reviewer != "alice" {
		t.Fatalf("alice filter = %+v", alice)
	}
}

func TestListByReviewerAcrossItems(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	first := env.createItem(t, "Dark", platform.ID)
	second := env.createItem(t, "1899", platform.ID)

	if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(first.ID, "alice", 5)); err != nil {
		t.Fatalf("submit first: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(second.ID, "alice", 2)); err != nil {
		t.Fatalf("submit second: %v", err)
	}
	if _, err := env.repository.Reviews.SubmitReview(env.ctx, submission(second.ID, "bob", 4)); err != nil {
		t.Fatalf("submit bob: %v", err)
	}

	reviews, err := env.repository.Reviews.ListByReviewer(env.ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("len = %d, want 2", len(reviews))
	}
	if reviews[0].WatchlistID != first.ID || reviews[1].WatchlistID != second.ID {
		t.Fatalf("stored order broken: %+v", reviews)
	}
}

func TestReviewUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	platform := env.createPlatform(t, "Netflix")
	item := env.createItem(t, "Dark", platform.ID)

	review, err := env.repository.Reviews.SubmitReview(env.ctx, submission(item.ID, "alice", 4))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := env.repository.Reviews.Update(env.ctx, review.ID, ReviewUpdateParams{
		Rating: 2,
		Body:   "changed my mind",
		Active: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Rating != 2 || updated.Body != "changed my mind" {
		t.Fatalf("updated = %+v", updated)
	}

	// Editing a review does not touch the item's aggregate.
	got, err := env.repository.Watchlist.GetByID(env.ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.AvgRating != 4.0 || got.RatingCount != 1 {
		t.Fatalf("aggregate changed by edit: avg=%v count=%d", got.AvgRating, got.RatingCount)
	}

	if err := env.repository.Reviews.Delete(env.ctx, review.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.repository.Reviews.GetByID(env.ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
	if err := env.repository.Reviews.Delete(env.ctx, review.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
