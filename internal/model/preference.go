package model

// Role is a display toggle. It hides admin-only controls in front-ends and
// is not checked by the server.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Theme is the front-end color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Preferences is the small per-client settings blob.
type Preferences struct {
	Role  Role  `json:"role" binding:"required,oneof=admin viewer"`
	Theme Theme `json:"theme" binding:"required,oneof=dark light"`
}

// DefaultPreferences returns the first-run settings.
func DefaultPreferences() Preferences {
	return Preferences{Role: RoleAdmin, Theme: ThemeDark}
}

// IsAdmin reports whether admin-only controls should be shown.
func (p Preferences) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ToggleTheme returns a copy with the other theme selected.
func (p Preferences) ToggleTheme() Preferences {
	if p.Theme == ThemeLight {
		p.Theme = ThemeDark
	} else {
		p.Theme = ThemeLight
	}
	return p
}
