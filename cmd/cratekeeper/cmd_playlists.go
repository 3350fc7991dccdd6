/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/cratekeeper/internal/builder"
	"github.com/friendsincode/cratekeeper/internal/config"
)

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "Build the playlist tree from the playlist config",
	Long:  "Build tag and combiner playlists from the playlist config, attach them under PLAYLIST_BUILDER, and serialize the collection.",
	RunE:  runPlaylists,
}

func init() {
	rootCmd.AddCommand(playlistsCmd)
}

func runPlaylists(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if cfg.PlaylistConfigPath == "" {
		return &config.ConfigError{Field: "playlist_config_path", Msg: "must be set"}
	}
	playlistCfg, err := config.LoadPlaylistConfig(cfg.PlaylistConfigPath)
	if err != nil {
		return err
	}
	if playlistCfg.Tags == nil && playlistCfg.Combiner == nil {
		logger.Warn().Msg("playlist config is empty, nothing to build")
		return nil
	}

	col, err := loadCollection()
	if err != nil {
		return err
	}

	if _, err := builder.New(cfg, logger).Build(col, playlistCfg); err != nil {
		return err
	}

	if err := col.Serialize(outputPath()); err != nil {
		return fmt.Errorf("serialize collection: %w", err)
	}
	logger.Info().Str("path", outputPath()).Msg("collection serialized")
	return nil
}
