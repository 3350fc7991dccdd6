/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/expression"
	"github.com/friendsincode/cratekeeper/internal/logging"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
	"github.com/friendsincode/cratekeeper/internal/version"
)

var (
	cfgPath string
	cfg     *config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "cratekeeper",
	Short:   "Cratekeeper - tag-driven DJ playlist automation",
	Long:    "Cratekeeper builds playlist hierarchies from a tagged collection and keeps the library in sync with the beatcloud.",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy to the documented process exit codes.
func exitCode(err error) int {
	var (
		playlistCfgErr  *config.PlaylistConfigError
		parseErr        *expression.ParseError
		unknownPlaylist *tagindex.UnknownPlaylistError
		deserializeErr  *collection.DeserializeError
	)
	switch {
	case errors.As(err, &playlistCfgErr):
		return 2
	case errors.As(err, &parseErr):
		return 3
	case errors.As(err, &unknownPlaylist):
		return 4
	case errors.As(err, &deserializeErr):
		return 5
	default:
		return 1
	}
}

// loadConfig loads configuration (called by commands that need it).
func loadConfig() error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Verbosity)
	return nil
}

// loadCollection deserializes the configured collection.
func loadCollection() (collection.Collection, error) {
	if cfg.CollectionPath == "" {
		return nil, &config.ConfigError{Field: "collection_path", Msg: "must be set"}
	}
	opts := collection.Options{
		TagMarkerOpen:  cfg.OtherTagMarkers.Open,
		TagMarkerClose: cfg.OtherTagMarkers.Close,
		GenreDelimiter: cfg.GenreDelimiter,
	}
	return collection.LoadRekordbox(cfg.CollectionPath, opts, logger)
}

// outputPath returns where a modified collection is serialized.
func outputPath() string {
	if cfg.OutputPath != "" {
		return cfg.OutputPath
	}
	return cfg.CollectionPath
}
