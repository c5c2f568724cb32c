package config

import "time"

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type SecurityConfig interface {
	GetSessionSecret() string
	GetMaxSessionAge() time.Duration
	GetSessionStore() string
	GetRedisURL() string
	GetSecureCookies() bool
	GetRateLimit() (perSecond float64, burst int)
}

type Security struct {
	SessionSecret  string        `envconfig:"SESSION_SECRET" required:"true"`
	MaxSessionAge  time.Duration `envconfig:"SESSION_MAX_AGE" default:"8h"`
	SessionStore   string        `envconfig:"SESSION_STORE" default:"memory"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

func (s Security) GetSessionSecret() string {
	return s.SessionSecret
}

func (s Security) GetMaxSessionAge() time.Duration {
	return s.MaxSessionAge
}

func (s Security) GetSessionStore() string {
	return s.SessionStore
}

func (s Security) GetRedisURL() string {
	return s.RedisURL
}

// GetRateLimit returns the per-client token bucket for auth and removal routes.
// A non-positive rate disables limiting.
func (s Security) GetRateLimit() (float64, int) {
	return s.RateLimitRPS, s.RateLimitBurst
}
