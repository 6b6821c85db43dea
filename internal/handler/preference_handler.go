package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/validator"
)

const (
	sessionKeyRole  = "role"
	sessionKeyTheme = "theme"
)

// PreferenceHandler reads and writes the role and theme toggles kept in the
// signed preferences cookie.
type PreferenceHandler struct {
	log zerolog.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(log zerolog.Logger) *PreferenceHandler {
	return &PreferenceHandler{log: log.With().Str("component", "preference_handler").Logger()}
}

// loadPreferences falls back to the defaults field by field, so a cookie
// holding an unknown value still yields a usable result.
func loadPreferences(session sessions.Session) model.Preferences {
	prefs := model.DefaultPreferences()
	if role, ok := session.Get(sessionKeyRole).(string); ok {
		switch model.Role(role) {
		case model.RoleAdmin, model.RoleViewer:
			prefs.Role = model.Role(role)
		}
	}
	if theme, ok := session.Get(sessionKeyTheme).(string); ok {
		switch model.Theme(theme) {
		case model.ThemeDark, model.ThemeLight:
			prefs.Theme = model.Theme(theme)
		}
	}
	return prefs
}

// Get godoc
// GET /api/preferences
// Returns {role, theme}; first-run clients get admin/dark.
func (h *PreferenceHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, loadPreferences(sessions.Default(c)))
}

// Update godoc
// PUT /api/preferences
// Stores both toggles. The role only changes what a front-end displays.
func (h *PreferenceHandler) Update(c *gin.Context) {
	var prefs model.Preferences
	if fields := validator.Bind(c, &prefs); fields != nil {
		failBind(c, fields)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyRole, string(prefs.Role))
	session.Set(sessionKeyTheme, string(prefs.Theme))
	if err := session.Save(); err != nil {
		h.log.Error().Err(err).Msg("failed to save preferences cookie")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, prefs)
}
