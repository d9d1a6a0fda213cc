package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("REALSTREAM_API_URL", "")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Feed.Lookahead != 3 {
		t.Errorf("Lookahead = %d, want 3", cfg.Feed.Lookahead)
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Debounce())
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"api":{"base_url":"http://proxy:8080/api/"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REALSTREAM_API_URL", "")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.BaseURL != "http://proxy:8080/api" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.Feed.PageSize != 10 {
		t.Errorf("PageSize = %d, want default 10", cfg.Feed.PageSize)
	}
	if cfg.API.VideosPath != "/content/videos" {
		t.Errorf("VideosPath = %q, want default", cfg.API.VideosPath)
	}
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Player.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d, want 500", cfg.Player.DebounceMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REALSTREAM_API_URL", "http://example.test/api")
	t.Setenv("REALSTREAM_MPV", "/opt/mpv")
	t.Setenv("REALSTREAM_METRICS", "1")
	t.Setenv("REALSTREAM_TRACE", "1")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.BaseURL != "http://example.test/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Player.Binary != "/opt/mpv" {
		t.Errorf("Binary = %q", cfg.Player.Binary)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should be enabled by env")
	}
	if !cfg.Trace {
		t.Error("trace should be enabled by env")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Feed.ScrapeLimit = 25
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
	t.Setenv("REALSTREAM_API_URL", "")
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Feed.ScrapeLimit != 25 {
		t.Errorf("ScrapeLimit = %d, want 25", got.Feed.ScrapeLimit)
	}
}
