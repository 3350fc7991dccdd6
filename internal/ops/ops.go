/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ops holds the collection maintenance operations that sit next to
// the playlist builder: copying a playlist's audio to a portable location
// and shuffling the track order of playlists.
package ops

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
)

// CopyPlaylists copies the audio files of the named playlists into destDir
// and rewrites the tracks' locations so the collection can be serialized
// against the new paths.
func CopyPlaylists(col collection.Collection, names []string, destDir string, logger zerolog.Logger) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	byID := collection.TracksByID(col.Tracks())
	copied := 0
	for _, name := range names {
		leaves := col.Playlists().FindByName(name)
		if len(leaves) == 0 {
			return fmt.Errorf("playlist %q not found in collection", name)
		}
		for _, leaf := range leaves {
			if leaf.IsFolder() {
				continue
			}
			for _, id := range leaf.TrackIDs() {
				track, ok := byID[id]
				if !ok || track.Location == "" {
					continue
				}
				dest := filepath.Join(destDir, filepath.Base(track.Location))
				if err := copyFile(track.Location, dest); err != nil {
					return fmt.Errorf("copy %s: %w", track.Location, err)
				}
				track.Location = dest
				copied++
			}
		}
	}
	logger.Info().Int("files", copied).Str("dest", destDir).Msg("playlists copied")
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ShufflePlaylists reorders the tracks of the named playlists using the
// given seed, so repeated runs with the same seed agree.
func ShufflePlaylists(col collection.Collection, names []string, seed int64, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(seed))
	shuffled := 0
	for _, name := range names {
		leaves := col.Playlists().FindByName(name)
		if len(leaves) == 0 {
			return fmt.Errorf("playlist %q not found in collection", name)
		}
		for _, leaf := range leaves {
			if leaf.IsFolder() {
				continue
			}
			ids := append([]string{}, leaf.TrackIDs()...)
			rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			leaf.SetTrackIDs(ids)
			shuffled++
		}
	}
	logger.Info().Int("playlists", shuffled).Msg("playlists shuffled")
	return nil
}
