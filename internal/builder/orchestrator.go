/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/expression"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// RootPlaylistName is the folder every build attaches its trees under.
const RootPlaylistName = "PLAYLIST_BUILDER"

// Orchestrator drives the end-to-end playlist build over one collection.
type Orchestrator struct {
	cfg    *config.Config
	logger zerolog.Logger
	now    time.Time
}

// New creates an orchestrator. The clock is fixed at construction so every
// date selector in a run resolves against the same instant.
func New(cfg *config.Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, logger: logger, now: time.Now()}
}

// NewAt creates an orchestrator with a fixed clock.
func NewAt(cfg *config.Config, logger zerolog.Logger, now time.Time) *Orchestrator {
	return &Orchestrator{cfg: cfg, logger: logger, now: now}
}

// Build constructs the playlist trees declared by the playlist config,
// filters and prunes them, and attaches the result to the collection under
// the PLAYLIST_BUILDER root. The returned tree is the attached root.
func (o *Orchestrator) Build(col collection.Collection, pcfg *config.PlaylistConfig) (*collection.Playlist, error) {
	runID := uuid.NewString()
	logger := o.logger.With().Str("run_id", runID).Logger()

	tracks := col.Tracks()
	idx := tagindex.New(tracks)
	logger.Info().
		Int("tracks", len(tracks)).
		Int("tags", len(idx.AllTagNames())).
		Msg("tag index built")

	var children []*collection.Playlist

	var tagResult *TagTreeResult
	if pcfg.Tags != nil {
		tagResult = BuildTagPlaylists(pcfg.Tags, idx, logger)
		children = append(children, tagResult.Root)
		if remainder := BuildRemainder(idx, tagResult, o.cfg.Remainder, logger); remainder != nil {
			children = append(children, remainder)
		}
	}

	var combinerRoot *collection.Playlist
	if pcfg.Combiner != nil {
		parsed, err := ParseCombinerExpressions(pcfg.Combiner)
		if err != nil {
			return nil, err
		}

		eval := &expression.Evaluator{Index: idx, Now: o.now}
		combinerRoot, err = BuildCombinerPlaylists(pcfg.Combiner, parsed, eval, logger)
		if err != nil {
			return nil, err
		}
		children = append(children, combinerRoot)
	}

	filters, err := NewRegistry(o.cfg).Enabled(o.cfg.EnabledFilters)
	if err != nil {
		return nil, err
	}
	for _, tree := range children {
		ApplyFilters(tree, filters, idx, logger)
	}

	pruned := make([]*collection.Playlist, 0, len(children))
	for _, tree := range children {
		minTracks := o.cfg.MinTagPlaylistTracks
		if tree == combinerRoot {
			minTracks = o.cfg.MinCombinerPlaylistTracks
		}
		if kept := prune(tree, minTracks); kept != nil {
			pruned = append(pruned, kept)
		}
	}

	if o.cfg.Verbosity > 0 && combinerRoot != nil {
		logger.Info().Msg(TagStatistics(combinerRoot, idx))
	}

	root := collection.NewFolder(RootPlaylistName, pruned...)
	col.AppendPlaylist(root)
	logger.Info().Int("playlists", countLeaves(root)).Msg("playlist build finished")
	return root, nil
}

// prune drops leaves below the track threshold and folders left without
// children. Returns nil when the node itself is dropped.
func prune(node *collection.Playlist, minTracks int) *collection.Playlist {
	if node == nil {
		return nil
	}
	if !node.IsFolder() {
		if minTracks > 0 && len(node.TrackIDs()) < minTracks {
			return nil
		}
		return node
	}

	kept := collection.NewFolder(node.Name())
	for _, child := range node.Children() {
		if built := prune(child, minTracks); built != nil {
			kept.AddChild(built)
		}
	}
	if len(kept.Children()) == 0 {
		return nil
	}
	return kept
}

func countLeaves(node *collection.Playlist) int {
	count := 0
	node.Walk(func(_ []string, n *collection.Playlist) {
		if !n.IsFolder() {
			count++
		}
	})
	return count
}
