/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync collections and audio with the beatcloud",
}

var syncUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the collection and new audio files to the beatcloud",
	RunE:  runSyncUpload,
}

var syncDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download missing audio files and another user's collection",
	RunE:  runSyncDownload,
}

var (
	syncSkipMusic      bool
	syncSkipCollection bool
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncUploadCmd)
	syncCmd.AddCommand(syncDownloadCmd)

	syncCmd.PersistentFlags().BoolVar(&syncSkipMusic, "skip-music", false, "Skip audio file transfer")
	syncCmd.PersistentFlags().BoolVar(&syncSkipCollection, "skip-collection", false, "Skip collection transfer")
}

func newSyncer(cmd *cobra.Command) (*sync.Syncer, error) {
	store, err := sync.NewS3Store(cmd.Context(), sync.S3Options{
		Bucket:  cfg.Sync.Bucket,
		Profile: cfg.Sync.Profile,
	})
	if err != nil {
		return nil, err
	}
	return sync.New(store, cfg.Sync.User, logger), nil
}

func musicRoot() (string, error) {
	if cfg.Sync.UsbPath == "" {
		return "", &config.ConfigError{Field: "sync.usb_path", Msg: "must be set"}
	}
	return filepath.Join(cfg.Sync.UsbPath, "DJ Music"), nil
}

func runSyncUpload(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	syncer, err := newSyncer(cmd)
	if err != nil {
		return err
	}

	if !syncSkipMusic {
		root, err := musicRoot()
		if err != nil {
			return err
		}
		if _, err := syncer.UploadMusic(cmd.Context(), root); err != nil {
			return err
		}
	}
	if !syncSkipCollection {
		if err := syncer.UploadCollection(cmd.Context(), cfg.CollectionPath); err != nil {
			return err
		}
	}
	return nil
}

func runSyncDownload(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	syncer, err := newSyncer(cmd)
	if err != nil {
		return err
	}

	if !syncSkipMusic {
		root, err := musicRoot()
		if err != nil {
			return err
		}
		added, err := syncer.DownloadMusic(cmd.Context(), root)
		if err != nil {
			return err
		}
		for _, path := range added {
			logger.Info().Str("path", path).Msg("new track")
		}
	}
	if !syncSkipCollection {
		dest := filepath.Dir(cfg.CollectionPath)
		if _, err := syncer.DownloadCollection(cmd.Context(), cfg.Sync.ImportUser, dest); err != nil {
			return err
		}
	}
	return nil
}
