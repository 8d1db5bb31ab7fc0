package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOARDKIT_WORK_DIR", "BOARDKIT_FRAGMENTS_DIR", "BOARDKIT_TEMP_DIR",
		"BOARDKIT_TEMPLATES_DIR", "BOARDKIT_EDITOR_BUNDLE_ID", "BOARDKIT_HOST_APP",
		"BOARDKIT_SCRIPT_TIMEOUT", "BOARDKIT_ALLOWED_HOSTS", "BOARDKIT_FETCH_CONCURRENCY",
		"BOARDKIT_SETTINGS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BundleID != "com.adobe.Photoshop" {
		t.Errorf("Expected default bundle id, got %s", cfg.BundleID)
	}
	if cfg.ScriptTimeout != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %s", cfg.ScriptTimeout)
	}
	if cfg.FetchLimit != 8 {
		t.Errorf("Expected fetch limit 8, got %d", cfg.FetchLimit)
	}
	if cfg.SettingsPath != "" {
		t.Errorf("Expected no settings path for a missing file, got %s", cfg.SettingsPath)
	}
	if cfg.Settings.Images.DPI != 200 || cfg.Settings.Names.NameBreakAfter != 1 {
		t.Errorf("Unexpected default settings %+v", cfg.Settings)
	}
	if !strings.HasSuffix(cfg.PhotosDir(), filepath.Join("boardkit", "photos")) {
		t.Errorf("Unexpected photos dir %s", cfg.PhotosDir())
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOARDKIT_TEMP_DIR", "/var/tmp/bk")
	t.Setenv("BOARDKIT_EDITOR_BUNDLE_ID", "com.adobe.Photoshop.beta")
	t.Setenv("BOARDKIT_SCRIPT_TIMEOUT", "90s")
	t.Setenv("BOARDKIT_ALLOWED_HOSTS", " photos.school.example, ,cdn.example ")
	t.Setenv("BOARDKIT_FETCH_CONCURRENCY", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TempDir != "/var/tmp/bk" || cfg.PhotosDir() != "/var/tmp/bk/photos" {
		t.Errorf("Unexpected temp dir %s", cfg.TempDir)
	}
	if cfg.BundleID != "com.adobe.Photoshop.beta" {
		t.Errorf("Unexpected bundle id %s", cfg.BundleID)
	}
	if cfg.ScriptTimeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %s", cfg.ScriptTimeout)
	}
	if !slices.Equal(cfg.AllowedHosts, []string{"photos.school.example", "cdn.example"}) {
		t.Errorf("Unexpected allowed hosts %v", cfg.AllowedHosts)
	}
	if cfg.FetchLimit != 3 {
		t.Errorf("Expected fetch limit 3, got %d", cfg.FetchLimit)
	}
}

func TestLoadEnvironmentErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable timeout", "BOARDKIT_SCRIPT_TIMEOUT", "soon"},
		{"zero timeout", "BOARDKIT_SCRIPT_TIMEOUT", "0s"},
		{"unparsable limit", "BOARDKIT_FETCH_CONCURRENCY", "many"},
		{"negative limit", "BOARDKIT_FETCH_CONCURRENCY", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadSettingsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "boardkit.yaml")
	content := `board:
  width_cm: 100
  height_cm: 70
  grid_align: left
names:
  text_align: right
  break_after: 2
images:
  width_cm: 3.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	s := cfg.Settings
	if s.Board.WidthCm != 100 || s.Board.HeightCm != 70 || s.Board.GridAlign != "left" {
		t.Errorf("Unexpected board settings %+v", s.Board)
	}
	if s.Board.MarginCm != 2 {
		t.Errorf("Expected unset margin to keep its default, got %v", s.Board.MarginCm)
	}
	if s.Names.TextAlign != "right" || s.Names.NameBreakAfter != 2 {
		t.Errorf("Unexpected name settings %+v", s.Names)
	}
	if s.Images.WidthCm != 3.5 || s.Images.HeightCm != 6 {
		t.Errorf("Unexpected image settings %+v", s.Images)
	}
	if cfg.SettingsPath != path {
		t.Errorf("Expected settings path %s, got %s", path, cfg.SettingsPath)
	}
}

func TestLoadSettingsFromEnvPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("names:\n  gap_cm: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOARDKIT_SETTINGS", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Settings.Names.NameGapCm != 0.5 {
		t.Errorf("Expected name gap 0.5, got %v", cfg.Settings.Names.NameGapCm)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "board: [unclosed"},
		{"invalid alignment", "names:\n  text_align: justify\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "boardkit.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Expected error loading %q", tt.content)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		errMsg string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"negative width", func(s *Settings) { s.Board.WidthCm = -1 }, "board.width_cm must not be negative"},
		{"negative photo", func(s *Settings) { s.Images.HeightCm = -2 }, "images.height_cm must not be negative"},
		{"margin too wide", func(s *Settings) { s.Board.MarginCm = 60 }, "board.margin_cm leaves no room"},
		{"grid align", func(s *Settings) { s.Board.GridAlign = "top" }, "board.grid_align"},
		{"text align", func(s *Settings) { s.Names.TextAlign = "" }, "names.text_align"},
		{"break after", func(s *Settings) { s.Names.NameBreakAfter = -1 }, "names.break_after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestWorkingFragments(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"explicit dir", Config{FragmentsDir: "/frag", WorkDir: "/work"}, "/frag"},
		{"under work dir", Config{WorkDir: "/work"}, filepath.Join("/work", "fragments")},
		{"bundled only", Config{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.WorkingFragments(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
