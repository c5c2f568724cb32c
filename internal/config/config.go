package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const minSessionSecretLength = 16

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetListenAddr() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetMaxConcurrency() int
}

type mainConfig struct {
	EnvVars
	OAuth
	Security
}

var _ Config = mainConfig{}

// Load reads an optional .env file and then the process environment.
// A missing required variable is reported as an error so the caller can exit
// before serving anything.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	var c mainConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	c.EnvVars.BaseURL = strings.TrimRight(c.EnvVars.BaseURL, "/")
	return c, nil
}

func (c mainConfig) validate() error {
	// envconfig accepts a variable that is set but empty; these must carry a value.
	required := []struct {
		name  string
		value string
	}{
		{"GITHUB_CLIENT_ID", c.OAuth.ClientID},
		{"GITHUB_CLIENT_SECRET", c.OAuth.ClientSecret},
		{"SESSION_SECRET", c.Security.SessionSecret},
		{"BASE_URL", c.EnvVars.BaseURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("required key %s missing value", r.name)
		}
	}

	u, err := url.Parse(c.EnvVars.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q: must be an absolute http(s) URL", c.EnvVars.BaseURL)
	}

	if len(c.Security.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLength)
	}

	switch c.Security.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Security.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=%s", SessionStoreRedis)
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Security.SessionStore)
	}

	if c.EnvVars.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENCY must be positive")
	}
	return nil
}

// GetCallbackURL is the redirect URI registered with GitHub.
func (c mainConfig) GetCallbackURL() string {
	return c.EnvVars.BaseURL + "/auth/callback"
}

// GetSecureCookies reports whether cookies should carry the Secure flag.
func (c mainConfig) GetSecureCookies() bool {
	return strings.HasPrefix(c.EnvVars.BaseURL, "https://")
}
