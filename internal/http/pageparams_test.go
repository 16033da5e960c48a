package httpserver

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/streamwatch/watchlist-api/internal/auth"
	"github.com/streamwatch/watchlist-api/internal/config"
	"github.com/streamwatch/watchlist-api/internal/repository"
)

func pageTestServer(strategy string) *Server {
	return &Server{cfg: config.Config{
		Pagination: config.PaginationConfig{
			Strategy:    strategy,
			PageSize:    3,
			MaxPageSize: 10,
		},
	}}
}

func TestBuildPageParams_Defaults(t *testing.T) {
	srv := pageTestServer(config.PaginationCursor)

	params, err := srv.buildPageParams(url.Values{})
	if err != nil {
		t.Fatalf("buildPageParams: %v", err)
	}
	if params.Strategy != repository.StrategyCursor {
		t.Errorf("strategy = %q, want cursor", params.Strategy)
	}
	if params.Limit != 3 {
		t.Errorf("limit = %d, want page size default 3", params.Limit)
	}
	if params.Query != nil || params.Ordering != nil || params.Cursor != nil {
		t.Errorf("unexpected filters: %+v", params)
	}
}

func TestBuildPageParams_LimitAndOrdering(t *testing.T) {
	srv := pageTestServer(config.PaginationPage)

	params, err := srv.buildPageParams(url.Values{
		"limit":    {"50"},
		"q":        {"dark"},
		"ordering": {"-avg_rating"},
		"page":     {"2"},
	})
	if err != nil {
		t.Fatalf("buildPageParams: %v", err)
	}
	if params.Limit != 10 {
		t.Errorf("limit = %d, want capped at 10", params.Limit)
	}
	if params.Query == nil || *params.Query != "dark" {
		t.Errorf("query = %v, want dark", params.Query)
	}
	if params.Ordering == nil || *params.Ordering != "-avg_rating" {
		t.Errorf("ordering = %v, want -avg_rating", params.Ordering)
	}
	if params.Page != 2 {
		t.Errorf("page = %d, want 2", params.Page)
	}
}

func TestBuildPageParams_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		query    url.Values
	}{
		{"bad limit", config.PaginationCursor, url.Values{"limit": {"abc"}}},
		{"zero limit", config.PaginationCursor, url.Values{"limit": {"0"}}},
		{"bad ordering", config.PaginationCursor, url.Values{"ordering": {"title"}}},
		{"bad page", config.PaginationPage, url.Values{"page": {"-1"}}},
		{"bad offset", config.PaginationOffset, url.Values{"offset": {"x"}}},
		{"bad cursor", config.PaginationCursor, url.Values{"cursor": {"%%%"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := pageTestServer(tc.strategy)
			if _, err := srv.buildPageParams(tc.query); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildPageParams_OffsetStrategy(t *testing.T) {
	srv := pageTestServer(config.PaginationOffset)

	params, err := srv.buildPageParams(url.Values{"offset": {"6"}, "limit": {"2"}})
	if err != nil {
		t.Fatalf("buildPageParams: %v", err)
	}
	if params.Offset != 6 || params.Limit != 2 {
		t.Errorf("offset/limit = %d/%d, want 6/2", params.Offset, params.Limit)
	}
	// page is ignored under the offset strategy
	if params.Page != 0 {
		t.Errorf("page = %d, want 0", params.Page)
	}
}

func TestCallerKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/list/", nil)
	req.RemoteAddr = "10.1.2.3:55555"

	if got := callerKey(req, nil); got != "ip:10.1.2.3" {
		t.Errorf("anonymous key = %q, want ip:10.1.2.3", got)
	}

	caller := &auth.Identity{UserID: "u-1", Username: "alice"}
	if got := callerKey(req, caller); got != "user:u-1" {
		t.Errorf("authenticated key = %q, want user:u-1", got)
	}
}
