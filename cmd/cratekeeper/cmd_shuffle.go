/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/cratekeeper/internal/ops"
)

var shuffleCmd = &cobra.Command{
	Use:   "shuffle-playlists [playlist]...",
	Short: "Shuffle the track order of the named playlists",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShufflePlaylists,
}

var shuffleSeed int64

func init() {
	rootCmd.AddCommand(shuffleCmd)
	shuffleCmd.Flags().Int64Var(&shuffleSeed, "seed", 0, "Shuffle seed (0 uses the current time)")
}

func runShufflePlaylists(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	col, err := loadCollection()
	if err != nil {
		return err
	}

	seed := shuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if err := ops.ShufflePlaylists(col, args, seed, logger); err != nil {
		return err
	}
	if err := col.Serialize(outputPath()); err != nil {
		return fmt.Errorf("serialize collection: %w", err)
	}
	return nil
}
