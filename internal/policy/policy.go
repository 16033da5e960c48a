// Package policy decides whether a caller may perform an action on a
// resource. Decisions are pure: handlers pass the caller identity and a
// resource descriptor, and get back nil or ErrDenied.
package policy

import (
	"errors"

	"github.com/streamwatch/watchlist-api/internal/auth"
)

// ErrDenied is the single denial result; it deliberately carries no detail
// about why the caller was refused.
var ErrDenied = errors.New("policy: not permitted")

// Action is the capability being exercised.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// Kind tags the resource type under evaluation.
type Kind int

const (
	KindPlatform Kind = iota
	KindWatchlistItem
	KindReview
)

// Resource describes the target of a request. Owner is the owning username
// and is only meaningful for reviews.
type Resource struct {
	Kind  Kind
	Owner string
}

// Authorize applies the access rules:
//   - read is permitted to anyone, including anonymous callers;
//   - write on platforms and watchlist items requires an administrator;
//   - write on a review is permitted to an administrator or to the review's
//     owning user.
func Authorize(caller *auth.Identity, action Action, res Resource) error {
	if action == ActionRead {
		return nil
	}
	if caller == nil {
		return ErrDenied
	}
	if caller.Admin {
		return nil
	}
	if res.Kind == KindReview && res.Owner != "" && res.Owner == caller.Username {
		return nil
	}
	return ErrDenied
}
