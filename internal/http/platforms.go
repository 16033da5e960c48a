package httpserver

import (
	"net/http"
	"time"

	"github.com/streamwatch/watchlist-api/internal/domain"
	"github.com/streamwatch/watchlist-api/internal/policy"
	"github.com/streamwatch/watchlist-api/internal/repository"
)

type platformRequest struct {
	Name    string  `json:"name" validate:"required,min=2"`
	About   *string `json:"about"`
	Website *string `json:"website" validate:"omitempty,url"`
}

type platformResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	About     *string   `json:"about,omitempty"`
	Website   *string   `json:"website,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPlatformResponse(p domain.Platform) platformResponse {
	return platformResponse{
		ID:        p.ID,
		Name:      p.Name,
		About:     p.About,
		Website:   p.Website,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := s.repo.Platforms.List(r.Context())
	if err != nil {
		s.respondRepoError(w, err, "list platforms")
		return
	}
	items := make([]platformResponse, 0, len(platforms))
	for _, p := range platforms {
		items = append(items, toPlatformResponse(p))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreatePlatform(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindPlatform}) {
		return
	}

	var req platformRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	platform, err := s.repo.Platforms.Create(r.Context(), repository.PlatformParams{
		Name:    req.Name,
		About:   req.About,
		Website: req.Website,
	})
	if err != nil {
		s.respondRepoError(w, err, "create platform")
		return
	}
	s.respondJSON(w, http.StatusCreated, toPlatformResponse(platform))
}

func (s *Server) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	platform, err := s.repo.Platforms.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get platform")
		return
	}
	s.respondJSON(w, http.StatusOK, toPlatformResponse(platform))
}

func (s *Server) handleUpdatePlatform(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindPlatform}) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req platformRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !s.validateStruct(w, req) {
		return
	}

	platform, err := s.repo.Platforms.Update(r.Context(), id, repository.PlatformParams{
		Name:    req.Name,
		About:   req.About,
		Website: req.Website,
	})
	if err != nil {
		s.respondRepoError(w, err, "update platform")
		return
	}
	s.respondJSON(w, http.StatusOK, toPlatformResponse(platform))
}

func (s *Server) handleDeletePlatform(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, caller, policy.ActionWrite, policy.Resource{Kind: policy.KindPlatform}) {
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.repo.Platforms.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete platform")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
