package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/streamwatch/watchlist-api/internal/config"
	"github.com/streamwatch/watchlist-api/internal/domain"
	"github.com/streamwatch/watchlist-api/internal/policy"
	"github.com/streamwatch/watchlist-api/internal/repository"
)

type watchlistItemRequest struct {
	Title      string  `json:"title" validate:"required"`
	Storyline  *string `json:"storyline"`
	Active     *bool   `json:"active"`
	PlatformID string  `json:"platformId" validate:"required,uuid"`
}

type watchlistItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Storyline   *string   `json:"storyline,omitempty"`
	Active      bool      `json:"active"`
	AvgRating   float64   `json:"avgRating"`
	RatingCount int64     `json:"ratingCount"`
	Platform    string    `json:"platform"`
	PlatformID  string    `json:"platformId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type watchlistPageResponse struct {
	Count      *int64                  `json:"count,omitempty"`
	NextCursor *string                 `json:"nextCursor,omitempty"`
	Results    []watchlistItemResponse `json:"results"`
}

func toWatchlistItemResponse(item domain.WatchlistItem) watchlistItemResponse {
	return watchlistItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Storyline:   item.Storyline,
		Active:      item.Active,
		AvgRating:   item.AvgRating,
		RatingCount: item.RatingCount,
		Platform:    item.PlatformName,
		PlatformID:  item.PlatformID,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Watchlist.List(r.Context())
	if err != nil {
		s.respondRepoError(w, err, "list watchlist items")
		return
	}
	resp := make([]watchlistItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toWatchlistItemResponse(item))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindWatchlistItem}) {
		return
	}

	var req watchlistItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	item, err := s.repo.Watchlist.Create(r.Context(), repository.WatchlistItemParams{
		Title:      strings.TrimSpace(req.Title),
		Storyline:  req.Storyline,
		Active:     active,
		PlatformID: req.PlatformID,
	})
	if err != nil {
		s.respondRepoError(w, err, "create watchlist item")
		return
	}
	s.respondJSON(w, http.StatusCreated, toWatchlistItemResponse(item))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	item, err := s.repo.Watchlist.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get watchlist item")
		return
	}
	s.respondJSON(w, http.StatusOK, toWatchlistItemResponse(item))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindWatchlistItem}) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req watchlistItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	item, err := s.repo.Watchlist.Update(r.Context(), id, repository.WatchlistItemParams{
		Title:      strings.TrimSpace(req.Title),
		Storyline:  req.Storyline,
		Active:     active,
		PlatformID: req.PlatformID,
	})
	if err != nil {
		s.respondRepoError(w, err, "update watchlist item")
		return
	}
	s.respondJSON(w, http.StatusOK, toWatchlistItemResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindWatchlistItem}) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.repo.Watchlist.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete watchlist item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListItemsPaged(w http.ResponseWriter, r *http.Request) {
	params, err := s.buildPageParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.repo.Watchlist.ListPaged(r.Context(), params)
	if err != nil {
		s.respondRepoError(w, err, "list watchlist items paged")
		return
	}

	results := make([]watchlistItemResponse, 0, len(page.Items))
	for _, item := range page.Items {
		results = append(results, toWatchlistItemResponse(item))
	}

	resp := watchlistPageResponse{Results: results}
	switch params.Strategy {
	case repository.StrategyCursor:
		resp.NextCursor = page.NextCursor
	default:
		total := page.Total
		resp.Count = &total
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// buildPageParams reads the active strategy's inputs from the query string.
// The strategy itself comes from configuration, never from the caller.
func (s *Server) buildPageParams(query url.Values) (repository.WatchlistPageParams, error) {
	params := repository.WatchlistPageParams{
		Strategy: s.cfg.Pagination.Strategy,
		Limit:    s.cfg.Pagination.PageSize,
	}

	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit <= 0 {
			return params, fmt.Errorf("invalid limit value")
		}
		if limit > s.cfg.Pagination.MaxPageSize {
			limit = s.cfg.Pagination.MaxPageSize
		}
		params.Limit = limit
	}
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		params.Query = &q
	}
	if val := strings.TrimSpace(query.Get("ordering")); val != "" {
		if val != "avg_rating" && val != "-avg_rating" {
			return params, fmt.Errorf("invalid ordering value")
		}
		params.Ordering = &val
	}

	switch s.cfg.Pagination.Strategy {
	case config.PaginationPage:
		if val := strings.TrimSpace(query.Get("page")); val != "" {
			page, err := strconv.Atoi(val)
			if err != nil || page <= 0 {
				return params, fmt.Errorf("invalid page value")
			}
			params.Page = page
		}
	case config.PaginationOffset:
		if val := strings.TrimSpace(query.Get("offset")); val != "" {
			offset, err := strconv.Atoi(val)
			if err != nil || offset < 0 {
				return params, fmt.Errorf("invalid offset value")
			}
			params.Offset = offset
		}
	case config.PaginationCursor:
		if val := strings.TrimSpace(query.Get("cursor")); val != "" {
			cursor, err := repository.DecodeCursor(val)
			if err != nil {
				return params, fmt.Errorf("invalid cursor")
			}
			params.Cursor = cursor
		}
	}
	return params, nil
}
