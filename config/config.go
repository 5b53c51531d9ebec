package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/qs-lzh/movie-booking/internal/util"
)

type Config struct {
	DatabaseDSN string
	Addr        string
	Env         string
	CacheURL    string
	MQURL       string

	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Booking    BookingConfig
	Scheduler  SchedulerConfig
	Admin      AdminConfig
	ReqTimeout time.Duration
}

type JWTConfig struct {
	Secret        string
	Issuer        string
	Audience      string
	ExpiryMinutes int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

type BookingConfig struct {
	SeatLockTTL          time.Duration
	AvailabilityCacheTTL time.Duration
}

type SchedulerConfig struct {
	ShowtimeSweepSchedule string
}

// AdminConfig seeds an administrator account at startup when Email is set.
type AdminConfig struct {
	Email    string
	Username string
	Password string
}

var (
	ErrMissingDatabaseDSN = errors.New("DATABASE_DSN is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_ISSUER", "movie-booking")
	v.SetDefault("JWT_AUDIENCE", "movie-booking-clients")
	v.SetDefault("JWT_EXPIRY_MINUTES", 60)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("SEAT_LOCK_TTL", 30*time.Second)
	v.SetDefault("AVAILABILITY_CACHE_TTL", 5*time.Minute)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_CAPACITY", 60)
	v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
	v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", time.Second)
	v.SetDefault("RATE_LIMIT_TTL", 10*time.Minute)
	v.SetDefault("RATE_LIMIT_PREFIX", "rl")
	v.SetDefault("SHOWTIME_SWEEP_SCHEDULE", "*/5 * * * *")
	v.SetDefault("ADMIN_USERNAME", "admin")
}

func LoadConfig() (*Config, error) {
	if err := util.LoadEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return parseConfig(v)
}

func parseConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		Addr:        v.GetString("ADDR"),
		Env:         v.GetString("APP_ENV"),
		CacheURL:    v.GetString("CACHE_URL"),
		MQURL:       v.GetString("RABBIT_MQ_URL"),
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			Issuer:        v.GetString("JWT_ISSUER"),
			Audience:      v.GetString("JWT_AUDIENCE"),
			ExpiryMinutes: v.GetInt("JWT_EXPIRY_MINUTES"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
			Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
			RefillTokens:   v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
			RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
			TTL:            v.GetDuration("RATE_LIMIT_TTL"),
			Prefix:         v.GetString("RATE_LIMIT_PREFIX"),
		},
		Booking: BookingConfig{
			SeatLockTTL:          v.GetDuration("SEAT_LOCK_TTL"),
			AvailabilityCacheTTL: v.GetDuration("AVAILABILITY_CACHE_TTL"),
		},
		Scheduler: SchedulerConfig{
			ShowtimeSweepSchedule: v.GetString("SHOWTIME_SWEEP_SCHEDULE"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("ADMIN_EMAIL"),
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		ReqTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
	}

	if cfg.DatabaseDSN == "" {
		return nil, ErrMissingDatabaseDSN
	}
	if cfg.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.JWT.ExpiryMinutes <= 0 {
		cfg.JWT.ExpiryMinutes = 60
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
