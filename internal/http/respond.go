package httpserver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/streamwatch/watchlist-api/internal/auth"
	"github.com/streamwatch/watchlist-api/internal/policy"
	"github.com/streamwatch/watchlist-api/internal/ratelimit"
	"github.com/streamwatch/watchlist-api/internal/rating"
	"github.com/streamwatch/watchlist-api/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) respondFieldErrors(w http.ResponseWriter, details map[string]string) {
	s.respondJSON(w, http.StatusBadRequest, errorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request payload",
		Details: details,
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// validateStruct runs the configured validator and, on failure, writes a 400
// with a field-to-reason mapping. Returns false when the response was written.
func (s *Server) validateStruct(w http.ResponseWriter, payload interface{}) bool {
	err := s.validate.Struct(payload)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return false
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	s.respondFieldErrors(w, details)
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// identity resolves the caller from the Authorization header. A present but
// invalid token answers 401; a missing header is an anonymous caller.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	caller, err := s.auth.FromRequest(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return nil, false
	}
	return caller, true
}

// requireIdentity is identity for endpoints that reject anonymous callers.
func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	caller, ok := s.identity(w, r)
	if !ok {
		return nil, false
	}
	if caller == nil {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return nil, false
	}
	return caller, true
}

// authorize applies the access policy, answering 403 on denial.
func (s *Server) authorize(w http.ResponseWriter, caller *auth.Identity, action policy.Action, res policy.Resource) bool {
	if err := policy.Authorize(caller, action, res); err != nil {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
		return false
	}
	return true
}

// allow consults the scoped limiter, answering 429 with a Retry-After hint
// when the caller's ceiling is exhausted.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, caller *auth.Identity, scope ratelimit.Scope) bool {
	decision := s.limiter.Allow(callerKey(r, caller), scope)
	if decision.Allowed {
		return true
	}
	secs := int(math.Ceil(decision.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Request was throttled, try again later")
	return false
}

func callerKey(r *http.Request, caller *auth.Identity) string {
	if caller != nil {
		return "user:" + caller.UserID
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil || host == "" {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// pathID extracts and validates the {id} route parameter. Malformed ids are
// indistinguishable from missing entities.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		s.respondNotFound(w)
		return "", false
	}
	return raw, true
}

func (s *Server) respondNotFound(w http.ResponseWriter) {
	s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// respondRepoError maps repository sentinel errors onto the wire taxonomy.
func (s *Server) respondRepoError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondNotFound(w)
	case errors.Is(err, repository.ErrAlreadyReviewed):
		s.respondError(w, http.StatusConflict, "ALREADY_REVIEWED", "You have already reviewed this watchlist item")
	case errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", "The request conflicted with a concurrent update, retry")
	default:
		s.logger.Error().Err(err).Str("op", context).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}

// respondRatingError covers the aggregator's validation results on top of
// the repository mapping.
func (s *Server) respondRatingError(w http.ResponseWriter, err error, context string) {
	var verr *rating.ValidationError
	if errors.As(err, &verr) {
		s.respondFieldErrors(w, map[string]string{verr.Field: verr.Reason})
		return
	}
	s.respondRepoError(w, err, context)
}
