package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Pagination strategy names accepted by PAGINATION_STRATEGY.
const (
	PaginationPage   = "page"
	PaginationOffset = "offset"
	PaginationCursor = "cursor"
)

// ServerConfig groups HTTP listener settings.
type ServerConfig struct {
	Port             string `koanf:"port"`
	ReadTimeoutSecs  int    `koanf:"read_timeout_secs"`
	WriteTimeoutSecs int    `koanf:"write_timeout_secs"`
	IdleTimeoutSecs  int    `koanf:"idle_timeout_secs"`
}

// DBConfig groups PostgreSQL connectivity and pool sizing.
type DBConfig struct {
	URL             string `koanf:"url"`
	MaxConns        int    `koanf:"max_conns"`
	MinConns        int    `koanf:"min_conns"`
	MaxIdleSecs     int    `koanf:"max_conn_idle_secs"`
	MaxLifeSecs     int    `koanf:"max_conn_lifetime_secs"`
	ConnTimeoutSecs int    `koanf:"conn_timeout_secs"`
	StatementCache  int    `koanf:"statement_cache_capacity"`
}

// AuthConfig holds bearer-token settings.
type AuthConfig struct {
	JWTSecret    string `koanf:"jwt_secret"`
	TokenTTLMins int    `koanf:"token_ttl_mins"`
}

// RateLimitConfig holds per-minute ceilings. GlobalPerMin is a coarse per-IP
// ceiling applied before routing; the scoped ceilings key independent
// counters per caller.
type RateLimitConfig struct {
	GlobalPerMin         int `koanf:"global_per_min"`
	ReviewListAnonPerMin int `koanf:"review_list_anon_per_min"`
	ReviewListPerMin     int `koanf:"review_list_per_min"`
	ReviewCreatePerMin   int `koanf:"review_create_per_min"`
	ReviewDetailPerMin   int `koanf:"review_detail_per_min"`
}

// PaginationConfig selects the active listing strategy and its bounds.
type PaginationConfig struct {
	Strategy    string `koanf:"strategy"`
	PageSize    int    `koanf:"page_size"`
	MaxPageSize int    `koanf:"max_page_size"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Config captures all runtime configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	DB         DBConfig         `koanf:"db"`
	Auth       AuthConfig       `koanf:"auth"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Pagination PaginationConfig `koanf:"pagination"`
	Log        LogConfig        `koanf:"log"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:             "8080",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
		},
		DB: DBConfig{
			MaxConns:        20,
			MinConns:        2,
			MaxIdleSecs:     300,
			MaxLifeSecs:     3600,
			ConnTimeoutSecs: 10,
			StatementCache:  256,
		},
		Auth: AuthConfig{
			TokenTTLMins: 24 * 60,
		},
		RateLimit: RateLimitConfig{
			GlobalPerMin:         600,
			ReviewListAnonPerMin: 10,
			ReviewListPerMin:     60,
			ReviewCreatePerMin:   5,
			ReviewDetailPerMin:   20,
		},
		Pagination: PaginationConfig{
			Strategy:    PaginationCursor,
			PageSize:    20,
			MaxPageSize: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from struct defaults overridden by
// environment variables (SERVER_PORT -> server.port, DB_MAX_CONNS ->
// db.max_conns), then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	def := defaults()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	envProvider := env.Provider("", ".", func(key string) string {
		return strings.Replace(strings.ToLower(key), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects incomplete or contradictory configuration before startup.
func (c Config) Validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Auth.TokenTTLMins <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL_MINS must be positive")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DB.MinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DB.StatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch c.Pagination.Strategy {
	case PaginationPage, PaginationOffset, PaginationCursor:
	default:
		return fmt.Errorf("PAGINATION_STRATEGY must be one of page, offset, cursor")
	}
	if c.Pagination.PageSize <= 0 || c.Pagination.MaxPageSize <= 0 {
		return fmt.Errorf("pagination sizes must be positive")
	}
	if c.Pagination.PageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("PAGINATION_PAGE_SIZE cannot exceed PAGINATION_MAX_PAGE_SIZE")
	}
	rl := c.RateLimit
	if rl.ReviewListAnonPerMin <= 0 || rl.ReviewListPerMin <= 0 || rl.ReviewCreatePerMin <= 0 || rl.ReviewDetailPerMin <= 0 {
		return fmt.Errorf("rate limit ceilings must be positive")
	}
	// The relative strictness ordering is part of the throttling contract:
	// review creation is the tightest scope, anonymous listing never exceeds
	// authenticated listing.
	if rl.ReviewCreatePerMin > rl.ReviewListPerMin {
		return fmt.Errorf("RATELIMIT_REVIEW_CREATE_PER_MIN cannot exceed RATELIMIT_REVIEW_LIST_PER_MIN")
	}
	if rl.ReviewListAnonPerMin > rl.ReviewListPerMin {
		return fmt.Errorf("RATELIMIT_REVIEW_LIST_ANON_PER_MIN cannot exceed RATELIMIT_REVIEW_LIST_PER_MIN")
	}
	return nil
}
