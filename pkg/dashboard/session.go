package dashboard

import (
	"encoding/base64"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionName = "v0bot_session"

	sessionUserID   = "user_id"
	sessionUsername = "username"
	sessionState    = "oauth_state"

	sessionMaxAge = 7 * 24 * 60 * 60
)

// NewCookieStore creates the session store the dashboard keeps logins in. Sessions last a week.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func newState() string {
	return base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}

// identity returns the operator logged in on the request.
func identity(sess *sessions.Session) (*Identity, bool) {
	id, _ := sess.Values[sessionUserID].(string)
	if id == "" {
		return nil, false
	}
	name, _ := sess.Values[sessionUsername].(string)
	return &Identity{ID: id, Username: name}, true
}
