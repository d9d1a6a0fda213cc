package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the persistent application configuration
type Config struct {
	API     APIConfig     `json:"api"`
	Player  PlayerConfig  `json:"player"`
	Feed    FeedConfig    `json:"feed"`
	Auth    AuthConfig    `json:"auth"`
	Metrics MetricsConfig `json:"metrics"`
	UI      UIConfig      `json:"ui"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// Trace records every UI message in the event log.
	Trace bool `json:"trace,omitempty"`
}

// APIConfig points at the reverse proxy in front of the backend services.
type APIConfig struct {
	BaseURL string `json:"base_url"`
	// VideosPath is the list endpoint relative to BaseURL. The proxy exposes
	// the content service as /content/videos; direct access uses /videos.
	VideosPath     string `json:"videos_path"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// RequestsPerSecond caps client-side request rate. 0 disables the limit.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// PlayerConfig controls the mpv-backed player.
type PlayerConfig struct {
	Binary     string   `json:"binary,omitempty"` // empty = look up "mpv" in PATH
	ExtraArgs  []string `json:"extra_args,omitempty"`
	DebounceMs int      `json:"debounce_ms"` // delay before reporting "not playing"
	SocketDir  string   `json:"socket_dir,omitempty"`
}

// FeedConfig holds pagination and search knobs.
type FeedConfig struct {
	PageSize       int `json:"page_size"`
	Lookahead      int `json:"lookahead"`
	ScrapeLimit    int `json:"scrape_limit"`
	ScrapeSettleMs int `json:"scrape_settle_ms"` // wait after a scrape before listing
}

// AuthConfig configures the OAuth loopback callback.
type AuthConfig struct {
	CallbackAddr string `json:"callback_addr"`
	Provider     string `json:"provider"`
}

// MetricsConfig toggles the /metrics endpoint on the loopback server.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	MouseWheel bool `json:"mouse_wheel"`
	ShowHints  bool `json:"show_hints"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:3000/api",
			VideosPath:        "/content/videos",
			TimeoutSeconds:    30,
			RequestsPerSecond: 10,
		},
		Player: PlayerConfig{
			DebounceMs: 500,
		},
		Feed: FeedConfig{
			PageSize:       10,
			Lookahead:      3,
			ScrapeLimit:    50,
			ScrapeSettleMs: 2000,
		},
		Auth: AuthConfig{
			CallbackAddr: "127.0.0.1:8765",
			Provider:     "google",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		UI: UIConfig{
			MouseWheel: true,
			ShowHints:  true,
		},
		LogLevel: "info",
	}
}

// DataDir returns ~/.realstream
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".realstream")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults; a
// malformed one also yields defaults so a bad edit never blocks startup.
// Environment overrides are applied in both cases.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	// Unmarshal over defaults so missing keys keep their default values.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ApplyEnv fills in overrides from environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv("REALSTREAM_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("REALSTREAM_VIDEOS_PATH"); v != "" {
		c.API.VideosPath = v
	}
	if v := os.Getenv("REALSTREAM_MPV"); v != "" {
		c.Player.Binary = v
	}
	if v := os.Getenv("REALSTREAM_CALLBACK_ADDR"); v != "" {
		c.Auth.CallbackAddr = v
	}
	if v := os.Getenv("REALSTREAM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if os.Getenv("REALSTREAM_METRICS") != "" {
		c.Metrics.Enabled = true
	}
	if os.Getenv("REALSTREAM_TRACE") != "" {
		c.Trace = true
	}
}

// normalize clamps zero or negative values back to defaults.
func (c *Config) normalize() {
	d := DefaultConfig()
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.VideosPath == "" {
		c.API.VideosPath = d.API.VideosPath
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = d.API.TimeoutSeconds
	}
	if c.Player.DebounceMs <= 0 {
		c.Player.DebounceMs = d.Player.DebounceMs
	}
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = d.Feed.PageSize
	}
	if c.Feed.Lookahead <= 0 {
		c.Feed.Lookahead = d.Feed.Lookahead
	}
	if c.Feed.ScrapeLimit <= 0 {
		c.Feed.ScrapeLimit = d.Feed.ScrapeLimit
	}
	if c.Feed.ScrapeSettleMs < 0 {
		c.Feed.ScrapeSettleMs = d.Feed.ScrapeSettleMs
	}
	if c.Auth.CallbackAddr == "" {
		c.Auth.CallbackAddr = d.Auth.CallbackAddr
	}
	if c.Auth.Provider == "" {
		c.Auth.Provider = d.Auth.Provider
	}
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Debounce returns the not-playing debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Player.DebounceMs) * time.Millisecond
}

// ScrapeSettle returns how long to wait after a scrape before listing.
func (c *Config) ScrapeSettle() time.Duration {
	return time.Duration(c.Feed.ScrapeSettleMs) * time.Millisecond
}
