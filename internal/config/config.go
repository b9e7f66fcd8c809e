// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package config provides unified configuration loading and management for
// the Swarm Squad terminal client and its support binaries.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides.
//
// Configuration file locations (in order of precedence):
//   - ~/.swarm-squad/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete Swarm Squad configuration.
type Config struct {
	// API configuration (REST endpoints)
	API APIConfig `toml:"api"`

	// Realtime configuration (WebSocket channel)
	Realtime RealtimeConfig `toml:"realtime"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Server configuration (dev backend)
	Server ServerConfig `toml:"server"`

	// Simulator configuration (vehicle fleet)
	Simulator SimulatorConfig `toml:"simulator"`
}

// APIConfig contains REST API client configuration.
type APIConfig struct {
	// BaseURL is the base URL of the backend REST API
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// RealtimeConfig contains WebSocket channel configuration.
type RealtimeConfig struct {
	// URL is the WebSocket endpoint (room ids are appended as a query param)
	URL string `toml:"url"`
	// ReconnectBaseMS is the initial reconnect delay in milliseconds
	ReconnectBaseMS int `toml:"reconnect_base_ms"`
	// ReconnectCapMS is the maximum reconnect delay in milliseconds
	ReconnectCapMS int `toml:"reconnect_cap_ms"`
	// FallbackRooms are the room ids assumed when the directory is unreachable
	FallbackRooms []string `toml:"fallback_rooms"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light"
	Theme string `toml:"theme"`
	// HistoryLimit is how many messages the history loader requests
	HistoryLimit int `toml:"history_limit"`
	// BufferCap bounds the in-memory message store; oldest entries are evicted
	BufferCap int `toml:"buffer_cap"`
}

// ServerConfig contains dev backend configuration.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8000"
	Addr string `toml:"addr"`
	// DBPath is the SQLite database path (empty = ~/.swarm-squad/swarm.db)
	DBPath string `toml:"db_path"`
	// PostRatePerSec throttles message posts per client
	PostRatePerSec float64 `toml:"post_rate_per_sec"`
	// PostBurst is the rate limiter burst size
	PostBurst int `toml:"post_burst"`
}

// SimulatorConfig contains vehicle fleet simulator configuration.
type SimulatorConfig struct {
	// Fleet is the number of simulated vehicles
	Fleet int `toml:"fleet"`
	// TickMS is the interval between telemetry posts in milliseconds
	TickMS int `toml:"tick_ms"`
	// NeighborKM is the distance within which vehicles count as neighbors
	NeighborKM float64 `toml:"neighbor_km"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with built-in default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 10,
		},
		Realtime: RealtimeConfig{
			URL:             "ws://localhost:8000/ws",
			ReconnectBaseMS: 2000,
			ReconnectCapMS:  30000,
			FallbackRooms:   []string{"v1", "v2", "v3"},
		},
		UI: UIConfig{
			Theme:        "dark",
			HistoryLimit: 50,
			BufferCap:    50,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			PostRatePerSec: 20,
			PostBurst:      40,
		},
		Simulator: SimulatorConfig{
			Fleet:      3,
			TickMS:     2000,
			NeighborKM: 50,
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the Swarm Squad configuration directory (~/.swarm-squad).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".swarm-squad"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Used by the server and simulator -config flags.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. A partial TOML
// file should not zero out settings it does not mention.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs <= 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Realtime.URL == "" {
		c.Realtime.URL = defaults.Realtime.URL
	}
	if c.Realtime.ReconnectBaseMS <= 0 {
		c.Realtime.ReconnectBaseMS = defaults.Realtime.ReconnectBaseMS
	}
	if c.Realtime.ReconnectCapMS <= 0 {
		c.Realtime.ReconnectCapMS = defaults.Realtime.ReconnectCapMS
	}
	if len(c.Realtime.FallbackRooms) == 0 {
		c.Realtime.FallbackRooms = defaults.Realtime.FallbackRooms
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.HistoryLimit <= 0 {
		c.UI.HistoryLimit = defaults.UI.HistoryLimit
	}
	if c.UI.BufferCap <= 0 {
		c.UI.BufferCap = defaults.UI.BufferCap
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.PostRatePerSec <= 0 {
		c.Server.PostRatePerSec = defaults.Server.PostRatePerSec
	}
	if c.Server.PostBurst <= 0 {
		c.Server.PostBurst = defaults.Server.PostBurst
	}
	if c.Simulator.Fleet <= 0 {
		c.Simulator.Fleet = defaults.Simulator.Fleet
	}
	if c.Simulator.TickMS <= 0 {
		c.Simulator.TickMS = defaults.Simulator.TickMS
	}
	if c.Simulator.NeighborKM <= 0 {
		c.Simulator.NeighborKM = defaults.Simulator.NeighborKM
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if !strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
		return fmt.Errorf("realtime.url must be a ws(s) URL, got %q", c.Realtime.URL)
	}
	if c.Realtime.ReconnectCapMS < c.Realtime.ReconnectBaseMS {
		return fmt.Errorf("realtime.reconnect_cap_ms (%d) below reconnect_base_ms (%d)",
			c.Realtime.ReconnectCapMS, c.Realtime.ReconnectBaseMS)
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SWARM_SQUAD_API_URL: overrides api.base_url
//   - SWARM_SQUAD_WS_URL: overrides realtime.url
//   - SWARM_SQUAD_ROOMS: comma-separated list, overrides realtime.fallback_rooms
//   - SWARM_SQUAD_THEME: overrides ui.theme
//   - SWARM_SQUAD_ADDR: overrides server.addr
//   - SWARM_SQUAD_DB: overrides server.db_path
//   - SWARM_SQUAD_FLEET: overrides simulator.fleet
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SWARM_SQUAD_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SWARM_SQUAD_WS_URL"); v != "" {
		c.Realtime.URL = v
	}
	if v := os.Getenv("SWARM_SQUAD_ROOMS"); v != "" {
		var rooms []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				rooms = append(rooms, r)
			}
		}
		if len(rooms) > 0 {
			c.Realtime.FallbackRooms = rooms
		}
	}
	if v := os.Getenv("SWARM_SQUAD_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("SWARM_SQUAD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SWARM_SQUAD_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("SWARM_SQUAD_FLEET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Simulator.Fleet = n
		}
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.Lock()
		defer globalConfigMu.Unlock()
		if globalConfig != nil {
			// Already installed via SetGlobal.
			return
		}
		cfg, err := Load()
		if err != nil {
			// Fall back to defaults rather than failing startup.
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
