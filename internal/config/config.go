// Package config loads boardkit settings from the environment and an
// optional YAML settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/photostack/boardkit/internal/models"
)

const (
	defaultBundleID       = "com.adobe.Photoshop"
	defaultScriptTimeout  = 60 * time.Second
	defaultFetchLimit     = 8
	defaultSettingsFile   = "boardkit.yaml"
	defaultPhotoWidthCm   = 4
	defaultPhotoHeightCm  = 6
	defaultNameGapCm      = 0.3
	defaultNameBreakAfter = 1
	defaultDPI            = 200
)

// ImageSettings is the placed photo size and the resolution used when the
// document's own is unknown.
type ImageSettings struct {
	WidthCm  float64 `yaml:"width_cm"`
	HeightCm float64 `yaml:"height_cm"`
	DPI      float64 `yaml:"dpi"`
}

// Settings models the YAML settings file.
type Settings struct {
	Board  models.BoardSettings `yaml:"board"`
	Names  models.NameSettings  `yaml:"names"`
	Images ImageSettings        `yaml:"images"`
}

// Config is the resolved runtime configuration.
type Config struct {
	WorkDir       string
	FragmentsDir  string
	TempDir       string
	TemplatesDir  string
	BundleID      string
	HostApp       string
	ScriptTimeout time.Duration
	AllowedHosts  []string
	FetchLimit    int
	SettingsPath  string
	Settings      Settings
}

// PhotosDir is where downloaded photos are cached.
func (c *Config) PhotosDir() string {
	return filepath.Join(c.TempDir, "photos")
}

// WorkingFragments is the editable fragment directory: FragmentsDir, else
// WorkDir/fragments. Empty means only the bundled fragments are used.
func (c *Config) WorkingFragments() string {
	if c.FragmentsDir != "" {
		return c.FragmentsDir
	}
	if c.WorkDir != "" {
		return filepath.Join(c.WorkDir, "fragments")
	}
	return ""
}

// Load resolves configuration from BOARDKIT_* environment variables and the
// settings file at path. An empty path falls back to BOARDKIT_SETTINGS and
// then boardkit.yaml in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	timeout, err := envDuration("BOARDKIT_SCRIPT_TIMEOUT", defaultScriptTimeout)
	if err != nil {
		return nil, err
	}
	limit, err := envInt("BOARDKIT_FETCH_CONCURRENCY", defaultFetchLimit)
	if err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	defaultTemplates := filepath.Join(home, ".boardkit", "templates")

	cfg := &Config{
		WorkDir:       os.Getenv("BOARDKIT_WORK_DIR"),
		FragmentsDir:  os.Getenv("BOARDKIT_FRAGMENTS_DIR"),
		TempDir:       envOr("BOARDKIT_TEMP_DIR", filepath.Join(os.TempDir(), "boardkit")),
		TemplatesDir:  envOr("BOARDKIT_TEMPLATES_DIR", defaultTemplates),
		BundleID:      envOr("BOARDKIT_EDITOR_BUNDLE_ID", defaultBundleID),
		HostApp:       os.Getenv("BOARDKIT_HOST_APP"),
		ScriptTimeout: timeout,
		AllowedHosts:  splitList(os.Getenv("BOARDKIT_ALLOWED_HOSTS")),
		FetchLimit:    limit,
		Settings:      DefaultSettings(),
	}

	if path == "" {
		path = envOr("BOARDKIT_SETTINGS", defaultSettingsFile)
	}
	if err := cfg.loadSettings(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultSettings returns the settings used when no file overrides them.
func DefaultSettings() Settings {
	return Settings{
		Board: models.BoardSettings{
			WidthCm:   120,
			HeightCm:  80,
			MarginCm:  2,
			GapHCm:    1,
			GapVCm:    1,
			GridAlign: "center",
		},
		Names: models.NameSettings{
			NameGapCm:      defaultNameGapCm,
			TextAlign:      "center",
			NameBreakAfter: defaultNameBreakAfter,
		},
		Images: ImageSettings{
			WidthCm:  defaultPhotoWidthCm,
			HeightCm: defaultPhotoHeightCm,
			DPI:      defaultDPI,
		},
	}
}

func (c *Config) loadSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := DefaultSettings()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Settings = parsed
	c.SettingsPath = path
	return nil
}

// Validate checks lengths and alignment values.
func (s Settings) Validate() error {
	lengths := map[string]float64{
		"board.width_cm":   s.Board.WidthCm,
		"board.height_cm":  s.Board.HeightCm,
		"board.margin_cm":  s.Board.MarginCm,
		"board.gap_h_cm":   s.Board.GapHCm,
		"board.gap_v_cm":   s.Board.GapVCm,
		"names.gap_cm":     s.Names.NameGapCm,
		"images.width_cm":  s.Images.WidthCm,
		"images.height_cm": s.Images.HeightCm,
		"images.dpi":       s.Images.DPI,
	}
	for _, key := range slices.Sorted(maps.Keys(lengths)) {
		if lengths[key] < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if s.Board.MarginCm*2 >= s.Board.WidthCm && s.Board.WidthCm > 0 {
		return fmt.Errorf("board.margin_cm leaves no room on a %.1f cm board", s.Board.WidthCm)
	}
	if !validAlign(s.Board.GridAlign) {
		return fmt.Errorf("board.grid_align must be left, center or right, got %q", s.Board.GridAlign)
	}
	if !validAlign(s.Names.TextAlign) {
		return fmt.Errorf("names.text_align must be left, center or right, got %q", s.Names.TextAlign)
	}
	if s.Names.NameBreakAfter < 0 {
		return fmt.Errorf("names.break_after must not be negative")
	}
	return nil
}

func validAlign(a string) bool {
	switch a {
	case "left", "center", "right":
		return true
	}
	return false
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
