/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/cratekeeper/internal/collection"
)

// Remainder selects how tags absent from the playlist config are surfaced.
type Remainder string

const (
	RemainderFolder   Remainder = "folder"
	RemainderPlaylist Remainder = "playlist"
	RemainderNone     Remainder = "none"
)

// ConfigError indicates an invalid process configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

// TagMarkers is the sentinel pair delimiting free-form tags in a comment.
type TagMarkers struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// SyncConfig covers the beatcloud collaborator.
type SyncConfig struct {
	Bucket     string `yaml:"bucket"`
	Profile    string `yaml:"profile"`
	User       string `yaml:"user"`
	ImportUser string `yaml:"import_user"`
	UsbPath    string `yaml:"usb_path"`
}

// Config covers process level configuration read from a YAML file with
// CRATEKEEPER_* environment overrides.
type Config struct {
	CollectionPath     string `yaml:"collection_path"`
	PlaylistConfigPath string `yaml:"playlist_config_path"`
	OutputPath         string `yaml:"output_path"`

	Remainder                 Remainder  `yaml:"remainder"`
	EnabledFilters            []string   `yaml:"enabled_filters"`
	MinTagPlaylistTracks      int        `yaml:"min_tag_playlist_tracks"`
	MinCombinerPlaylistTracks int        `yaml:"min_combiner_playlist_tracks"`
	OtherTagMarkers           TagMarkers `yaml:"other_tag_markers"`
	GenreDelimiter            string     `yaml:"genre_delimiter"`

	ComplexFilterMinTags     int      `yaml:"complex_filter_min_tags"`
	ComplexFilterExcludeTags []string `yaml:"complex_filter_exclude_tags"`

	Verbosity int `yaml:"verbosity"`

	Sync SyncConfig `yaml:"sync"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Remainder: RemainderFolder,
		OtherTagMarkers: TagMarkers{
			Open:  collection.DefaultTagMarkerOpen,
			Close: collection.DefaultTagMarkerClose,
		},
		GenreDelimiter:       collection.DefaultGenreDelimiter,
		ComplexFilterMinTags: 3,
	}
}

// Load reads the YAML file at path (optional), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.CollectionPath = getEnv("CRATEKEEPER_COLLECTION_PATH", cfg.CollectionPath)
	cfg.PlaylistConfigPath = getEnv("CRATEKEEPER_PLAYLIST_CONFIG_PATH", cfg.PlaylistConfigPath)
	cfg.OutputPath = getEnv("CRATEKEEPER_OUTPUT_PATH", cfg.OutputPath)
	cfg.Remainder = Remainder(getEnv("CRATEKEEPER_REMAINDER", string(cfg.Remainder)))
	cfg.GenreDelimiter = getEnv("CRATEKEEPER_GENRE_DELIMITER", cfg.GenreDelimiter)
	cfg.Verbosity = getEnvInt("CRATEKEEPER_VERBOSITY", cfg.Verbosity)
	cfg.Sync.Bucket = getEnv("CRATEKEEPER_SYNC_BUCKET", cfg.Sync.Bucket)
	cfg.Sync.Profile = getEnv("CRATEKEEPER_SYNC_PROFILE", cfg.Sync.Profile)
	cfg.Sync.User = getEnv("CRATEKEEPER_SYNC_USER", cfg.Sync.User)
	cfg.Sync.ImportUser = getEnv("CRATEKEEPER_SYNC_IMPORT_USER", cfg.Sync.ImportUser)
	cfg.Sync.UsbPath = getEnv("CRATEKEEPER_SYNC_USB_PATH", cfg.Sync.UsbPath)
	if filters := getEnv("CRATEKEEPER_ENABLED_FILTERS", ""); filters != "" {
		cfg.EnabledFilters = nil
		for _, name := range strings.Split(filters, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.EnabledFilters = append(cfg.EnabledFilters, name)
			}
		}
	}
}

// Validate checks enum values and thresholds.
func (c *Config) Validate() error {
	switch c.Remainder {
	case RemainderFolder, RemainderPlaylist, RemainderNone:
	default:
		return &ConfigError{Field: "remainder", Msg: fmt.Sprintf("unknown value %q", c.Remainder)}
	}
	if c.MinTagPlaylistTracks < 0 {
		return &ConfigError{Field: "min_tag_playlist_tracks", Msg: "must not be negative"}
	}
	if c.MinCombinerPlaylistTracks < 0 {
		return &ConfigError{Field: "min_combiner_playlist_tracks", Msg: "must not be negative"}
	}
	if c.ComplexFilterMinTags < 0 {
		return &ConfigError{Field: "complex_filter_min_tags", Msg: "must not be negative"}
	}
	if (c.OtherTagMarkers.Open == "") != (c.OtherTagMarkers.Close == "") {
		return &ConfigError{Field: "other_tag_markers", Msg: "open and close must be set together"}
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
