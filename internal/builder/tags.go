/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// Reserved names in the tags tree.
const (
	ignoreFolderName   = "_ignore"
	unusedTagsName     = "Unused Tags"
	aggregatePrefix    = "All "
	purePlaylistPrefix = "Pure "
)

// TagTreeResult is the output of the tag playlist build: the materialized
// tree plus the tag bookkeeping needed for the remainder computation.
type TagTreeResult struct {
	Root    *collection.Playlist
	Used    map[string]struct{}
	Ignored map[string]struct{}
}

// BuildTagPlaylists materializes the tags tree of the playlist config. Every
// produced leaf is registered in the index's playlist relation so combiner
// playlist selectors can reference it.
func BuildTagPlaylists(root *config.PlaylistNode, idx *tagindex.Index, logger zerolog.Logger) *TagTreeResult {
	result := &TagTreeResult{
		Used:    make(map[string]struct{}),
		Ignored: make(map[string]struct{}),
	}
	result.Root = buildTagNode(root, idx, result, true, logger)
	return result
}

func buildTagNode(node *config.PlaylistNode, idx *tagindex.Index, result *TagTreeResult, isRoot bool, logger zerolog.Logger) *collection.Playlist {
	if !node.Folder {
		return buildTagLeaf(node, idx, result, logger)
	}

	if node.Name == ignoreFolderName {
		collectIgnoredTags(node, result.Ignored)
		return nil
	}

	folder := collection.NewFolder(node.Name)
	for _, child := range node.Children {
		if built := buildTagNode(child, idx, result, false, logger); built != nil {
			folder.AddChild(built)
		}
	}

	if !isRoot {
		set := leafUnion(folder)
		aggregate := collection.NewLeaf(aggregatePrefix+node.Name, set.Sorted())
		folder.AddChild(aggregate)
		idx.RegisterPlaylist(aggregate.Name(), set)
	}
	return folder
}

func buildTagLeaf(node *config.PlaylistNode, idx *tagindex.Index, result *TagTreeResult, logger zerolog.Logger) *collection.Playlist {
	tag := node.Content

	var set tagindex.TrackSet
	if base, isPure := strings.CutPrefix(tag, purePlaylistPrefix); isPure {
		set = pureTagSet(base, idx)
	} else {
		result.Used[tag] = struct{}{}
		set = idx.Tag(tag)
	}

	if len(set) == 0 {
		logger.Warn().Str("tag", tag).Msg("no tracks carry this tag")
	}

	leaf := collection.NewLeaf(node.DisplayName(), set.Sorted())
	idx.RegisterPlaylist(leaf.Name(), set)
	return leaf
}

// pureTagSet keeps only tracks whose every genre tag contains the base tag
// as a case-insensitive substring.
func pureTagSet(base string, idx *tagindex.Index) tagindex.TrackSet {
	needle := strings.ToLower(base)
	out := make(tagindex.TrackSet)
	for id := range idx.Tag(base) {
		track := idx.Track(id)
		if track == nil || len(track.GenreTags) == 0 {
			continue
		}
		pure := true
		for _, genre := range track.GenreTags {
			if !strings.Contains(strings.ToLower(genre), needle) {
				pure = false
				break
			}
		}
		if pure {
			out.Add(id)
		}
	}
	return out
}

// collectIgnoredTags gathers every leaf tag beneath an _ignore folder.
// Nested _ignore folders are additive.
func collectIgnoredTags(node *config.PlaylistNode, ignored map[string]struct{}) {
	for _, child := range node.Children {
		if child.Folder {
			collectIgnoredTags(child, ignored)
			continue
		}
		ignored[child.Content] = struct{}{}
	}
}

// leafUnion unions the track IDs of every leaf beneath a folder.
func leafUnion(folder *collection.Playlist) tagindex.TrackSet {
	set := make(tagindex.TrackSet)
	folder.Walk(func(_ []string, node *collection.Playlist) {
		if !node.IsFolder() {
			for _, id := range node.TrackIDs() {
				set.Add(id)
			}
		}
	})
	return set
}

// BuildRemainder materializes the playlists for tags present in the
// collection but absent from the tags tree, honoring the configured policy.
// Returns nil when the policy is "none" or no tags remain.
func BuildRemainder(idx *tagindex.Index, result *TagTreeResult, mode config.Remainder, logger zerolog.Logger) *collection.Playlist {
	if mode == config.RemainderNone {
		return nil
	}

	var unused []string
	for _, tag := range idx.AllTagNames() {
		if _, ok := result.Used[tag]; ok {
			continue
		}
		if _, ok := result.Ignored[tag]; ok {
			continue
		}
		unused = append(unused, tag)
	}
	if len(unused) == 0 {
		return nil
	}
	logger.Debug().Int("tags", len(unused)).Msg("building remainder playlists")

	if mode == config.RemainderPlaylist {
		set := make(tagindex.TrackSet)
		for _, tag := range unused {
			set = set.Union(idx.Tag(tag))
		}
		leaf := collection.NewLeaf(unusedTagsName, set.Sorted())
		idx.RegisterPlaylist(leaf.Name(), set)
		return leaf
	}

	folder := collection.NewFolder(unusedTagsName)
	for _, tag := range unused {
		set := idx.Tag(tag)
		leaf := collection.NewLeaf(tag, set.Sorted())
		folder.AddChild(leaf)
		idx.RegisterPlaylist(tag, set)
	}
	set := leafUnion(folder)
	aggregate := collection.NewLeaf(aggregatePrefix+unusedTagsName, set.Sorted())
	folder.AddChild(aggregate)
	idx.RegisterPlaylist(aggregate.Name(), set)
	return folder
}
