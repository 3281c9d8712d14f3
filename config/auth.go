package config

// AuthConfig contains the Google OAuth2 client configuration for the
// delegated Gmail sending grant.
type AuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// RedirectURL must match one of the authorized redirect URIs registered
	// for the OAuth2 client.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"http://localhost:8080/api/auth/google/callback"`
}

// Configured reports whether the OAuth2 client is usable.
func (a *AuthConfig) Configured() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.RedirectURL != ""
}
