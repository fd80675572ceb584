package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const defaultDiscordAPI = "https://discord.com/api"

// Identity is the account an operator logged in with.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Authenticator runs the login flow of an identity provider.
type Authenticator interface {
	// AuthCodeURL is where the browser is sent to log in. The provider sends state back to the callback.
	AuthCodeURL(state string) string

	// Exchange turns the code from the callback into the identity that logged in.
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// DiscordAuth logs operators in with Discord OAuth2.
type DiscordAuth struct {
	cfg     *oauth2.Config
	apiBase string
}

// NewDiscordAuth creates the Discord login flow for the application.
func NewDiscordAuth(clientID, clientSecret, redirectURL string) *DiscordAuth {
	return newDiscordAuth(defaultDiscordAPI, clientID, clientSecret, redirectURL)
}

func newDiscordAuth(apiBase, clientID, clientSecret, redirectURL string) *DiscordAuth {
	apiBase = strings.TrimSuffix(apiBase, "/")
	return &DiscordAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds", "guilds.members.read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   apiBase + "/oauth2/authorize",
				TokenURL:  apiBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
	}
}

func (d *DiscordAuth) AuthCodeURL(state string) string {
	return d.cfg.AuthCodeURL(state)
}

func (d *DiscordAuth) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := d.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error exchanging code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating identity request: %w", err)
	}

	resp, err := d.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error getting identity: unexpected status %s", resp.Status)
	}

	id := new(Identity)
	if err := json.NewDecoder(resp.Body).Decode(id); err != nil {
		return nil, fmt.Errorf("error decoding identity: %w", err)
	}
	if id.ID == "" {
		return nil, fmt.Errorf("identity has no id")
	}
	return id, nil
}
