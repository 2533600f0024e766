package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything minimetars reads from config.toml.
type Config struct {
	AWCBaseURL    string
	VatsimDataURL string
	LogDir        string
	LogLevel      string
	ProfileDir    string
	SettingsPath  string

	WeatherInterval time.Duration
	WeatherJitter   time.Duration
	AtisInterval    time.Duration
	AtisJitter      time.Duration

	AWCRequestsPerMinute int

	WindowChromeRows int
	WindowScale      float64

	MetricsBind string
}

const (
	defaultConfigPath    = "~/.config/minimetars/config.toml"
	defaultAWCBaseURL    = "https://aviationweather.gov"
	defaultVatsimDataURL = "https://data.vatsim.net/v3/vatsim-data.json"
	defaultLogDir        = "~/.local/share/minimetars/logs"
	defaultLogLevel      = "info"
	defaultProfileDir    = "~/.config/minimetars/profiles"
	defaultSettingsPath  = "~/.config/minimetars/settings.toml"

	defaultWeatherInterval = 120 * time.Second
	defaultWeatherJitter   = 10 * time.Second
	defaultAtisInterval    = 30 * time.Second
	defaultAtisJitter      = 5 * time.Second

	defaultAWCRequestsPerMinute = 60
	defaultWindowChromeRows     = 2
	defaultWindowScale          = 1.0
)

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		AWCBaseURL:           defaultAWCBaseURL,
		VatsimDataURL:        defaultVatsimDataURL,
		LogDir:               mustExpand(defaultLogDir),
		LogLevel:             defaultLogLevel,
		ProfileDir:           mustExpand(defaultProfileDir),
		SettingsPath:         mustExpand(defaultSettingsPath),
		WeatherInterval:      defaultWeatherInterval,
		WeatherJitter:        defaultWeatherJitter,
		AtisInterval:         defaultAtisInterval,
		AtisJitter:           defaultAtisJitter,
		AWCRequestsPerMinute: defaultAWCRequestsPerMinute,
		WindowChromeRows:     defaultWindowChromeRows,
		WindowScale:          defaultWindowScale,
	}
}

// Load locates and parses config.toml, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		AWCBaseURL           string   `toml:"awc_base_url"`
		VatsimDataURL        string   `toml:"vatsim_data_url"`
		LogDir               string   `toml:"log_dir"`
		LogLevel             string   `toml:"log_level"`
		ProfileDir           string   `toml:"profile_dir"`
		SettingsPath         string   `toml:"settings_path"`
		WeatherIntervalSecs  *int     `toml:"weather_interval_seconds"`
		WeatherJitterSecs    *int     `toml:"weather_jitter_seconds"`
		AtisIntervalSecs     *int     `toml:"atis_interval_seconds"`
		AtisJitterSecs       *int     `toml:"atis_jitter_seconds"`
		AWCRequestsPerMinute int      `toml:"awc_requests_per_minute"`
		WindowChromeRows     *int     `toml:"window_chrome_rows"`
		WindowScale          *float64 `toml:"window_scale"`
		MetricsBind          string   `toml:"metrics_bind"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.AWCBaseURL = orDefault(raw.AWCBaseURL, defaultAWCBaseURL)
	cfg.VatsimDataURL = orDefault(raw.VatsimDataURL, defaultVatsimDataURL)
	cfg.LogDir = mustExpand(orDefault(raw.LogDir, defaultLogDir))
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.ProfileDir = mustExpand(orDefault(raw.ProfileDir, defaultProfileDir))
	cfg.SettingsPath = mustExpand(orDefault(raw.SettingsPath, defaultSettingsPath))
	cfg.MetricsBind = strings.TrimSpace(raw.MetricsBind)

	// Intervals must be positive; jitter may be zero to disable it.
	if v := raw.WeatherIntervalSecs; v != nil && *v > 0 {
		cfg.WeatherInterval = time.Duration(*v) * time.Second
	}
	if v := raw.WeatherJitterSecs; v != nil && *v >= 0 {
		cfg.WeatherJitter = time.Duration(*v) * time.Second
	}
	if v := raw.AtisIntervalSecs; v != nil && *v > 0 {
		cfg.AtisInterval = time.Duration(*v) * time.Second
	}
	if v := raw.AtisJitterSecs; v != nil && *v >= 0 {
		cfg.AtisJitter = time.Duration(*v) * time.Second
	}
	if raw.AWCRequestsPerMinute > 0 {
		cfg.AWCRequestsPerMinute = raw.AWCRequestsPerMinute
	}
	if v := raw.WindowChromeRows; v != nil && *v >= 0 {
		cfg.WindowChromeRows = *v
	}
	if v := raw.WindowScale; v != nil && *v > 0 {
		cfg.WindowScale = *v
	}

	return cfg, nil
}

// LogPath returns the path of the minimetars log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/minimetars.log")
	}
	return filepath.Join(c.LogDir, "minimetars.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
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
