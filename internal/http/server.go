package httpserver

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/streamwatch/watchlist-api/internal/auth"
	"github.com/streamwatch/watchlist-api/internal/config"
	"github.com/streamwatch/watchlist-api/internal/ratelimit"
	"github.com/streamwatch/watchlist-api/internal/rating"
	"github.com/streamwatch/watchlist-api/internal/repository"
	"github.com/streamwatch/watchlist-api/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	repo     *repository.Repository
	agg      *rating.Aggregator
	auth     *auth.Manager
	limiter  *ratelimit.Limiter
	validate *validator.Validate
	logger   zerolog.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, agg *rating.Aggregator,
	authMgr *auth.Manager, limiter *ratelimit.Limiter, logger zerolog.Logger) *Server {

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RateLimit.GlobalPerMin > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit.GlobalPerMin, time.Minute))
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		repo:     repo,
		agg:      agg,
		auth:     authMgr,
		limiter:  limiter,
		validate: newValidator(),
		logger:   logger,
		router:   r,
	}
	r.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field errors under their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Get("/list/", s.handleListItems)
	s.router.Post("/list/", s.handleCreateItem)
	s.router.Get("/list2/", s.handleListItemsPaged)
	s.router.Get("/reviews/", s.handleListUserReviews)

	s.router.Route("/stream", func(r chi.Router) {
		r.Get("/", s.handleListPlatforms)
		r.Post("/", s.handleCreatePlatform)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPlatform)
			r.Put("/", s.handleUpdatePlatform)
			r.Delete("/", s.handleDeletePlatform)
		})
	})

	s.router.Route("/review/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetReview)
		r.Put("/", s.handleUpdateReview)
		r.Delete("/", s.handleDeleteReview)
	})

	s.router.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetItem)
		r.Put("/", s.handleUpdateItem)
		r.Delete("/", s.handleDeleteItem)
		r.Post("/review-create/", s.handleCreateReview)
		r.Get("/reviews/", s.handleListItemReviews)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// Start boots the HTTP server and blocks until it stops or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
