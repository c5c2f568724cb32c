package config

import "time"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetCallbackURL() string
	GetScopes() []string
	GetAuthURL() string
	GetTokenURL() string
	GetAPIURL() string
	GetAuthFlowTimeout() time.Duration
}

type OAuth struct {
	ClientID     string `envconfig:"GITHUB_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"GITHUB_CLIENT_SECRET" required:"true"`
	AuthURL      string `envconfig:"GITHUB_AUTH_URL" default:"https://github.com/login/oauth/authorize"`
	TokenURL     string `envconfig:"GITHUB_TOKEN_URL" default:"https://github.com/login/oauth/access_token"`
	APIURL       string `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
}

func (o OAuth) GetClientID() string {
	return o.ClientID
}

func (o OAuth) GetClientSecret() string {
	return o.ClientSecret
}

// GetScopes returns the scopes requested at authorization time.
// "repo" is needed to list and remove collaborators on private repositories.
func (OAuth) GetScopes() []string {
	return []string{"repo", "read:org"}
}

func (o OAuth) GetAuthURL() string {
	return o.AuthURL
}

func (o OAuth) GetTokenURL() string {
	return o.TokenURL
}

func (o OAuth) GetAPIURL() string {
	return o.APIURL
}

func (OAuth) GetAuthFlowTimeout() time.Duration {
	return 10 * time.Minute
}
