package policy

import (
	"errors"
	"testing"

	"github.com/streamwatch/watchlist-api/internal/auth"
)

func TestAuthorize(t *testing.T) {
	admin := &auth.Identity{UserID: "u-1", Username: "root", Admin: true}
	alice := &auth.Identity{UserID: "u-2", Username: "alice"}
	bob := &auth.Identity{UserID: "u-3", Username: "bob"}

	cases := []struct {
		name   string
		caller *auth.Identity
		action Action
		res    Resource
		allow  bool
	}{
		{"anonymous read platform", nil, ActionRead, Resource{Kind: KindPlatform}, true},
		{"anonymous read review", nil, ActionRead, Resource{Kind: KindReview, Owner: "alice"}, true},
		{"anonymous write platform", nil, ActionWrite, Resource{Kind: KindPlatform}, false},
		{"user read watchlist item", alice, ActionRead, Resource{Kind: KindWatchlistItem}, true},
		{"user write platform", alice, ActionWrite, Resource{Kind: KindPlatform}, false},
		{"user write watchlist item", alice, ActionWrite, Resource{Kind: KindWatchlistItem}, false},
		{"admin write platform", admin, ActionWrite, Resource{Kind: KindPlatform}, true},
		{"admin write watchlist item", admin, ActionWrite, Resource{Kind: KindWatchlistItem}, true},
		{"owner writes own review", alice, ActionWrite, Resource{Kind: KindReview, Owner: "alice"}, true},
		{"user writes another user's review", bob, ActionWrite, Resource{Kind: KindReview, Owner: "alice"}, false},
		{"admin writes any review", admin, ActionWrite, Resource{Kind: KindReview, Owner: "alice"}, true},
		{"anonymous write review", nil, ActionWrite, Resource{Kind: KindReview, Owner: "alice"}, false},
		{"ownerless review write by non-admin", alice, ActionWrite, Resource{Kind: KindReview}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.caller, tc.action, tc.res)
			if tc.allow && err != nil {
				t.Fatalf("Authorize = %v, want allow", err)
			}
			if !tc.allow {
				if err == nil {
					t.Fatalf("Authorize allowed, want deny")
				}
				if !errors.Is(err, ErrDenied) {
					t.Fatalf("Authorize = %v, want ErrDenied", err)
				}
			}
		})
	}
}
