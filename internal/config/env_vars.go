package config

import "time"

type EnvVars struct {
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:"0.0.0.0:3000"`
	AppName        string        `envconfig:"APP_NAME" default:"Collaborator Audit"`
	Env            string        `envconfig:"ENV" default:"DEV"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"console"`
	BaseURL        string        `envconfig:"BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"10"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetListenAddr() string {
	return e.ListenAddr
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetLogFormat() string {
	return e.LogFormat
}

// GetBaseURL returns the public base URL of the dashboard (e.g. "https://audit.example.com"),
// without a trailing slash.
func (e EnvVars) GetBaseURL() string {
	return e.BaseURL
}

// GetRequestTimeout bounds the upstream work done for a single request.
func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

// GetMaxConcurrency limits parallel GitHub calls per request.
func (e EnvVars) GetMaxConcurrency() int {
	return e.MaxConcurrency
}
