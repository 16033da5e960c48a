package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func BenchmarkHandleCreateReview(b *testing.B) {
	srv := buildTestServer(b)
	platformID := seedPlatform(b, srv, "Benchmark TV")
	itemID := seedItem(b, srv, "Benchmark Show", platformID)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token := bearerToken(b, srv, fmt.Sprintf("bench-%d", i), false)
		payload := []byte(`{"rating":4,"body":"benchmarked"}`)
		req := httptest.NewRequest(http.MethodPost, "/"+itemID+"/review-create/", bytes.NewReader(payload))
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()

		srv.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
	}
}
