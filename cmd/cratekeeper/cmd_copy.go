/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/cratekeeper/internal/ops"
)

var copyCmd = &cobra.Command{
	Use:   "copy-playlists [playlist]...",
	Short: "Copy playlists' audio files to a destination",
	Long:  "Copy the audio files of the named playlists to a destination directory and serialize a collection pointing at the copies.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCopyPlaylists,
}

var copyDestination string

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().StringVar(&copyDestination, "dest", "", "Destination directory (required)")
	copyCmd.MarkFlagRequired("dest")
}

func runCopyPlaylists(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	col, err := loadCollection()
	if err != nil {
		return err
	}

	if err := ops.CopyPlaylists(col, args, copyDestination, logger); err != nil {
		return err
	}
	if err := col.Serialize(outputPath()); err != nil {
		return fmt.Errorf("serialize collection: %w", err)
	}
	return nil
}
