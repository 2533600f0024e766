// Package settings handles minimetars display settings persistence.
// Settings are stored in ~/.config/minimetars/settings.toml.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Settings holds the optional display fields and the UI theme.
type Settings struct {
	ShowVatsimAtis bool   `toml:"show_vatsim_atis" json:"showVatsimAtis"`
	ShowAltimeter  bool   `toml:"show_altimeter" json:"showAltimeter"`
	ShowWind       bool   `toml:"show_wind" json:"showWind"`
	Theme          string `toml:"theme" json:"theme"`
}

const (
	defaultSettingsPath = "~/.config/minimetars/settings.toml"
	defaultTheme        = "Nightfox"
)

// Default returns settings with every field shown.
func Default() Settings {
	return Settings{
		ShowVatsimAtis: true,
		ShowAltimeter:  true,
		ShowWind:       true,
		Theme:          defaultTheme,
	}
}

// DefaultPath returns the default settings file path.
func DefaultPath() string {
	return defaultSettingsPath
}

// Load reads settings from the given path, falling back to defaults if the
// file is missing or unreadable.
func Load(path string) (Settings, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Default(), nil // Graceful degradation
	}

	// Start from defaults so keys absent from the file stay enabled.
	s := Default()
	if err := toml.Unmarshal(bytes, &s); err != nil {
		return Default(), nil // Graceful degradation
	}

	if strings.TrimSpace(s.Theme) == "" {
		s.Theme = defaultTheme
	}

	return s, nil
}

// Save writes settings to the given path, creating directories as needed.
func Save(path string, s Settings) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	bytes, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSettingsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
