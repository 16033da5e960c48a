package httpserver

import (
	"net/url"
	"testing"

	"github.com/streamwatch/watchlist-api/internal/config"
)

func FuzzBuildPageParams(f *testing.F) {
	seeds := []string{
		"limit=2&q=dark&ordering=avg_rating",
		"limit=abc",
		"cursor=eyJmYWtlIjoxfQ==",
		"page=3&offset=9",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	srv := pageTestServer(config.PaginationCursor)
	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		params, err := srv.buildPageParams(values)
		if err != nil {
			return
		}
		if params.Limit <= 0 || params.Limit > srv.cfg.Pagination.MaxPageSize {
			t.Fatalf("limit %d out of bounds", params.Limit)
		}
	})
}
