package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// PreferencesCookie is the name of the signed cookie holding UI toggles.
const PreferencesCookie = "edu_settings"

const preferencesMaxAge = 365 * 24 * 60 * 60

// Preferences attaches a signed cookie session used by the preferences
// endpoints. Nothing in it is trusted for access control.
func Preferences(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   preferencesMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(PreferencesCookie, store)
}
