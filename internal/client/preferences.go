package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stemsi/student-dashboard/internal/model"
)

// PreferenceStore keeps the role and theme toggles in a small JSON file
// (edu_settings.json by default).
type PreferenceStore struct {
	path string
}

// NewPreferenceStore creates a store backed by path.
func NewPreferenceStore(path string) *PreferenceStore {
	return &PreferenceStore{path: path}
}

// Path returns the backing file.
func (p *PreferenceStore) Path() string { return p.path }

// Load returns the saved preferences. A missing file yields the defaults;
// an unreadable or unknown value falls back to the default for that field.
func (p *PreferenceStore) Load() (model.Preferences, error) {
	prefs := model.DefaultPreferences()

	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("read preferences: %w", err)
	}

	var saved model.Preferences
	if err := json.Unmarshal(data, &saved); err != nil {
		return prefs, fmt.Errorf("parse %s: %w", p.path, err)
	}
	switch saved.Role {
	case model.RoleAdmin, model.RoleViewer:
		prefs.Role = saved.Role
	}
	switch saved.Theme {
	case model.ThemeDark, model.ThemeLight:
		prefs.Theme = saved.Theme
	}
	return prefs, nil
}

// Save writes prefs, replacing the file atomically.
func (p *PreferenceStore) Save(prefs model.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".edu_settings-*")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return os.Rename(tmp.Name(), p.path)
}
