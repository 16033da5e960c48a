package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/streamwatch/watchlist-api/internal/domain"
	"github.com/streamwatch/watchlist-api/internal/policy"
	"github.com/streamwatch/watchlist-api/internal/ratelimit"
	"github.com/streamwatch/watchlist-api/internal/rating"
	"github.com/streamwatch/watchlist-api/internal/repository"
)

type reviewCreateRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"required"`
}

type reviewUpdateRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"required"`
	Active *bool  `json:"active"`
}

type reviewResponse struct {
	ID          string    `json:"id"`
	WatchlistID string    `json:"watchlistId"`
	Reviewer    string    `json:"reviewer"`
	Rating      int       `json:"rating"`
	Body        string    `json:"body"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:          review.ID,
		WatchlistID: review.WatchlistID,
		Reviewer:    review.Reviewer,
		Rating:      review.Rating,
		Body:        review.Body,
		Active:      review.Active,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}
}

func toReviewListResponse(reviews []domain.Review) []reviewResponse {
	resp := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp = append(resp, toReviewResponse(review))
	}
	return resp
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, caller, ratelimit.ScopeReviewCreate) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req reviewCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	review, err := s.agg.SubmitReview(r.Context(), rating.Submission{
		WatchlistID: id,
		Reviewer:    caller.Username,
		Rating:      req.Rating,
		Body:        req.Body,
	})
	if err != nil {
		s.respondRatingError(w, err, "create review")
		return
	}
	s.respondJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (s *Server) handleListItemReviews(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	scope := ratelimit.ScopeReviewListAnon
	if caller != nil {
		scope = ratelimit.ScopeReviewList
	}
	if !s.allow(w, r, caller, scope) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	filters := repository.ReviewFilters{}
	if username := strings.TrimSpace(r.URL.Query().Get("username")); username != "" {
		filters.Reviewer = &username
	}
	if val := strings.TrimSpace(r.URL.Query().Get("active")); val != "" {
		active, err := strconv.ParseBool(val)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid active value")
			return
		}
		filters.Active = &active
	}

	reviews, err := s.repo.Reviews.ListForItem(r.Context(), id, filters)
	if err != nil {
		s.respondRepoError(w, err, "list item reviews")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (s *Server) handleListUserReviews(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		s.respondFieldErrors(w, map[string]string{"username": "this field is required"})
		return
	}

	reviews, err := s.repo.Reviews.ListByReviewer(r.Context(), username)
	if err != nil {
		s.respondRepoError(w, err, "list user reviews")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, caller, ratelimit.ScopeReviewDetail) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	review, err := s.repo.Reviews.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, caller, ratelimit.ScopeReviewDetail) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	review, err := s.repo.Reviews.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get review for update")
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindReview, Owner: review.Reviewer}) {
		return
	}

	var req reviewUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	active := review.Active
	if req.Active != nil {
		active = *req.Active
	}
	updated, err := s.repo.Reviews.Update(r.Context(), id, repository.ReviewUpdateParams{
		Rating: req.Rating,
		Body:   req.Body,
		Active: active,
	})
	if err != nil {
		s.respondRepoError(w, err, "update review")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(updated))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, caller, ratelimit.ScopeReviewDetail) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	review, err := s.repo.Reviews.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get review for delete")
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindReview, Owner: review.Reviewer}) {
		return
	}

	if err := s.repo.Reviews.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
