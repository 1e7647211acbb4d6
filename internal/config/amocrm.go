package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// AmoCRM holds the integration-wide OAuth settings. Client credentials are
// per-company and live in amocrm_connections.
type AmoCRM struct {
	// StateSecret signs the OAuth state parameter so the global callback
	// can trust the company id embedded in it.
	StateSecret string
	// RedirectBase is the public base URL of this backend.
	RedirectBase string
	// RedirectURI overrides the computed callback URL when set.
	RedirectURI string
}

func AmoCRMFromEnv() AmoCRM {
	cfg := AmoCRM{
		StateSecret:  os.Getenv("AMO_STATE_SECRET"),
		RedirectBase: os.Getenv("AMO_REDIRECT_BASE"),
		RedirectURI:  os.Getenv("AMO_REDIRECT_URI"),
	}
	if cfg.StateSecret == "" {
		cfg.StateSecret = "dev_secret_change_me_please"
	}
	if cfg.RedirectBase == "" {
		cfg.RedirectBase = "http://localhost:8080"
	}
	return cfg
}

// CallbackURL is the single global OAuth callback shared by all companies.
func (a AmoCRM) CallbackURL() string {
	if a.RedirectURI != "" {
		return a.RedirectURI
	}
	return strings.TrimRight(a.RedirectBase, "/") + "/api/v1/crm/callback"
}

// OAuthConfig builds the per-connection oauth2 config. The authorization
// page always lives on www.amocrm.ru while the token endpoint is on the
// tenant's own domain.
func (a AmoCRM) OAuthConfig(clientID, clientSecret, baseDomain string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  a.CallbackURL(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.amocrm.ru/oauth",
			TokenURL:  fmt.Sprintf("https://%s/oauth2/access_token", baseDomain),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
