/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration from YAML, applies GDG_*
// environment overrides and keeps the library token in the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on load.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Export        ExportConfig  `yaml:"export"`
	Library       LibraryConfig `yaml:"library"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
	// AutosaveSeconds is the autosave interval of the desktop editor; 0 disables it.
	AutosaveSeconds int `yaml:"autosave_seconds"`
	// AutosaveKeep is how many autosave revisions are kept per document.
	AutosaveKeep int `yaml:"autosave_keep"`
}

type EditorConfig struct {
	GridEnabled            bool    `yaml:"grid_enabled"`
	GridSize               float64 `yaml:"grid_size"`
	SnapToGrid             bool    `yaml:"snap_to_grid"`
	GuidelinesEnabled      bool    `yaml:"guidelines_enabled"`
	SnapThreshold          float64 `yaml:"snap_threshold"`
	ConnectionSnapDistance float64 `yaml:"connection_snap_distance"`
	HistoryLimit           int     `yaml:"history_limit"`
}

type ExportConfig struct {
	Padding        float64 `yaml:"padding"`
	JPEGQuality    int     `yaml:"jpeg_quality"`
	DefaultFormat  string  `yaml:"default_format"`
	FallbackWidth  float64 `yaml:"fallback_width"`
	FallbackHeight float64 `yaml:"fallback_height"`
}

type LibraryConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", AutosaveSeconds: 60, AutosaveKeep: 20},
		Editor: EditorConfig{
			GridEnabled:            true,
			GridSize:               20,
			SnapToGrid:             true,
			GuidelinesEnabled:      true,
			SnapThreshold:          10,
			ConnectionSnapDistance: 15,
			HistoryLimit:           50,
		},
		Export:  ExportConfig{Padding: 20, JPEGQuality: 95, DefaultFormat: "png", FallbackWidth: 800, FallbackHeight: 600},
		Library: LibraryConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir        = "GDG_CONFIG_DIR"
	EnvLibraryURL       = "GDG_LIBRARY_URL"
	EnvLibraryTimeoutMs = "GDG_LIBRARY_TIMEOUT_MS"
	EnvLibraryTLSInsec  = "GDG_TLS_INSECURE"
	EnvTheme            = "GDG_THEME"
	EnvAutosaveSeconds  = "GDG_AUTOSAVE_SECONDS"
	EnvGridSize         = "GDG_GRID_SIZE"
	EnvHistoryLimit     = "GDG_HISTORY_LIMIT"
	EnvExportFormat     = "GDG_EXPORT_FORMAT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GDG_LOG_LEVEL"
	EnvLogFormat = "GDG_LOG_FORMAT"
	EnvLogSource = "GDG_LOG_SOURCE"
	EnvLogFile   = "GDG_LOG_FILE"
)

// override binds a config key to the env var that can replace it.
type override struct {
	key   string
	env   string
	apply func(cfg *AppConfig, v string)
}

var overrides = []override{
	{"library.base_url", EnvLibraryURL, func(c *AppConfig, v string) { c.Library.BaseURL = v }},
	{"library.timeout_ms", EnvLibraryTimeoutMs, func(c *AppConfig, v string) { setInt(&c.Library.TimeoutMs, v) }},
	{"library.tls_insecure", EnvLibraryTLSInsec, func(c *AppConfig, v string) { c.Library.TLSInsecure = truthy(v) }},
	{"general.theme", EnvTheme, func(c *AppConfig, v string) { c.General.Theme = strings.ToLower(v) }},
	{"general.autosave_seconds", EnvAutosaveSeconds, func(c *AppConfig, v string) { setInt(&c.General.AutosaveSeconds, v) }},
	{"editor.grid_size", EnvGridSize, func(c *AppConfig, v string) { setFloat(&c.Editor.GridSize, v) }},
	{"editor.history_limit", EnvHistoryLimit, func(c *AppConfig, v string) { setInt(&c.Editor.HistoryLimit, v) }},
	{"export.default_format", EnvExportFormat, func(c *AppConfig, v string) { c.Export.DefaultFormat = strings.ToLower(v) }},
	{"logging.level", EnvLogLevel, func(c *AppConfig, v string) { c.Logging.Level = strings.ToLower(v) }},
	{"logging.format", EnvLogFormat, func(c *AppConfig, v string) { c.Logging.Format = strings.ToLower(v) }},
	{"logging.source", EnvLogSource, func(c *AppConfig, v string) { c.Logging.Source = truthy(v) }},
	{"logging.file", EnvLogFile, func(c *AppConfig, v string) { c.Logging.File = v }},
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setFloat(dst *float64, v string) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoDiagram")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoDiagram")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "godiagram")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "godiagram")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) over the defaults and merges environment overrides.
// It also loads the library token from the keyring (not kept inside the struct; returned separately).
// A malformed file is reported together with the usable defaults.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			fileErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			cfg = fileCfg
		}
	}
	applyEnvOverrides(&cfg)
	cfg.normalize()
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, fileErr
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// normalize trims and lowercases enums and replaces out-of-range numbers with defaults.
func (c *AppConfig) normalize() {
	def := Defaults()
	c.General.Theme = strings.ToLower(strings.TrimSpace(c.General.Theme))
	if c.General.Theme == "" {
		c.General.Theme = def.General.Theme
	}
	if c.General.AutosaveSeconds < 0 {
		c.General.AutosaveSeconds = 0
	}
	if c.General.AutosaveKeep <= 0 {
		c.General.AutosaveKeep = def.General.AutosaveKeep
	}
	if c.Editor.GridSize < 5 || c.Editor.GridSize > 100 {
		c.Editor.GridSize = def.Editor.GridSize
	}
	if c.Editor.SnapThreshold <= 0 {
		c.Editor.SnapThreshold = def.Editor.SnapThreshold
	}
	if c.Editor.ConnectionSnapDistance <= 0 {
		c.Editor.ConnectionSnapDistance = def.Editor.ConnectionSnapDistance
	}
	if c.Editor.HistoryLimit <= 0 {
		c.Editor.HistoryLimit = def.Editor.HistoryLimit
	}
	if c.Export.Padding < 0 {
		c.Export.Padding = def.Export.Padding
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		c.Export.JPEGQuality = def.Export.JPEGQuality
	}
	c.Export.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Export.DefaultFormat))
	if c.Export.DefaultFormat == "" {
		c.Export.DefaultFormat = def.Export.DefaultFormat
	}
	if c.Export.FallbackWidth <= 0 || c.Export.FallbackHeight <= 0 {
		c.Export.FallbackWidth, c.Export.FallbackHeight = def.Export.FallbackWidth, def.Export.FallbackHeight
	}
	if c.Library.TimeoutMs <= 0 {
		c.Library.TimeoutMs = def.Library.TimeoutMs
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			o.apply(cfg, v)
		}
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	for _, o := range overrides {
		if o.key == key && strings.TrimSpace(os.Getenv(o.env)) != "" {
			return o.env, true
		}
	}
	return "", false
}

// Timeout returns the library request timeout.
func (l LibraryConfig) Timeout() time.Duration {
	if l.TimeoutMs <= 0 {
		return time.Duration(Defaults().Library.TimeoutMs) * time.Millisecond
	}
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

// AutosaveInterval returns the autosave period, zero when disabled.
func (g GeneralConfig) AutosaveInterval() time.Duration {
	return time.Duration(g.AutosaveSeconds) * time.Second
}
