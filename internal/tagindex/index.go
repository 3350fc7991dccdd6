/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tagindex

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/friendsincode/cratekeeper/internal/collection"
)

// UnknownPlaylistError indicates a playlist selector referenced a name that
// has not been materialized.
type UnknownPlaylistError struct {
	Name string
}

func (e *UnknownPlaylistError) Error() string {
	return fmt.Sprintf("unknown playlist %q", e.Name)
}

// Index is the reverse index from tags, playlist names, and attribute
// predicates to track ID sets. It is built once per run; only the playlist
// relation mutates afterwards, while the tag playlist tree is materialized.
type Index struct {
	tags      map[string]TrackSet
	tagNames  []string
	playlists map[string]TrackSet
	tracks    []*collection.Track
	byID      map[string]*collection.Track
}

// New builds an index over the given tracks. Genre tags and free-form tags
// share a namespace; a name present in both buckets unions its track sets.
func New(tracks []*collection.Track) *Index {
	idx := &Index{
		tags:      make(map[string]TrackSet),
		playlists: make(map[string]TrackSet),
		tracks:    tracks,
		byID:      collection.TracksByID(tracks),
	}
	for _, track := range tracks {
		for _, tag := range track.Tags() {
			set, ok := idx.tags[tag]
			if !ok {
				set = make(TrackSet)
				idx.tags[tag] = set
			}
			set.Add(track.ID)
		}
	}
	idx.tagNames = make([]string, 0, len(idx.tags))
	for name := range idx.tags {
		idx.tagNames = append(idx.tagNames, name)
	}
	sort.Strings(idx.tagNames)
	return idx
}

// Tag returns the set of tracks carrying the tag. Unknown tags yield an
// empty set, never an error, so shared configs survive evolving collections.
func (i *Index) Tag(name string) TrackSet {
	if set, ok := i.tags[name]; ok {
		return set
	}
	return TrackSet{}
}

// TagsMatching unions the track sets of every tag whose lowercased name
// contains the lowercased, asterisk-stripped pattern.
func (i *Index) TagsMatching(pattern string) TrackSet {
	needle := strings.ToLower(strings.ReplaceAll(pattern, "*", ""))
	out := make(TrackSet)
	for name, set := range i.tags {
		if strings.Contains(strings.ToLower(name), needle) {
			out = out.Union(set)
		}
	}
	return out
}

// AllTagNames returns every tag name in the collection, sorted.
func (i *Index) AllTagNames() []string { return i.tagNames }

// Track returns the track with the given ID, or nil.
func (i *Index) Track(id string) *collection.Track { return i.byID[id] }

// RegisterPlaylist records the track set of a materialized playlist so that
// playlist selectors can reference it. A name registered twice keeps the most
// recently materialized set.
func (i *Index) RegisterPlaylist(name string, set TrackSet) {
	i.playlists[name] = set
}

// Playlist returns the set for a previously materialized playlist.
func (i *Index) Playlist(name string) (TrackSet, error) {
	name = strings.TrimSpace(name)
	set, ok := i.playlists[name]
	if !ok {
		return nil, &UnknownPlaylistError{Name: name}
	}
	return set, nil
}

// BPMIn returns tracks whose BPM, rounded to the nearest integer, falls in
// [lo, hi].
func (i *Index) BPMIn(lo, hi int) TrackSet {
	out := make(TrackSet)
	for _, track := range i.tracks {
		bpm := int(math.Round(track.BPM))
		if bpm >= lo && bpm <= hi {
			out.Add(track.ID)
		}
	}
	return out
}

// RatingIn returns tracks whose rating falls in [lo, hi].
func (i *Index) RatingIn(lo, hi int) TrackSet {
	out := make(TrackSet)
	for _, track := range i.tracks {
		if track.Rating >= lo && track.Rating <= hi {
			out.Add(track.ID)
		}
	}
	return out
}

// YearIn returns tracks whose release year falls in [lo, hi]. Tracks with no
// year are never matched.
func (i *Index) YearIn(lo, hi int) TrackSet {
	out := make(TrackSet)
	for _, track := range i.tracks {
		if track.Year != 0 && track.Year >= lo && track.Year <= hi {
			out.Add(track.ID)
		}
	}
	return out
}

// DateMatches returns tracks whose added date satisfies the predicate.
func (i *Index) DateMatches(pred DatePredicate, now time.Time) TrackSet {
	out := make(TrackSet)
	for _, track := range i.tracks {
		if pred.Matches(track.DateAdded, now) {
			out.Add(track.ID)
		}
	}
	return out
}

// ArtistGlob returns tracks where any artist matches the pattern.
func (i *Index) ArtistGlob(pattern string) (TrackSet, error) {
	matcher, err := newGlobMatcher(pattern)
	if err != nil {
		return nil, err
	}
	out := make(TrackSet)
	for _, track := range i.tracks {
		for _, artist := range track.Artists {
			if matcher.match(artist) {
				out.Add(track.ID)
				break
			}
		}
	}
	return out, nil
}

// LabelGlob returns tracks whose label matches the pattern.
func (i *Index) LabelGlob(pattern string) (TrackSet, error) {
	return i.fieldGlob(pattern, func(t *collection.Track) string { return t.Label })
}

// CommentGlob returns tracks whose full comment matches the pattern.
func (i *Index) CommentGlob(pattern string) (TrackSet, error) {
	return i.fieldGlob(pattern, func(t *collection.Track) string { return t.Comment })
}

// KeyGlob returns tracks whose key matches the pattern.
func (i *Index) KeyGlob(pattern string) (TrackSet, error) {
	return i.fieldGlob(pattern, func(t *collection.Track) string { return t.Key })
}

func (i *Index) fieldGlob(pattern string, field func(*collection.Track) string) (TrackSet, error) {
	matcher, err := newGlobMatcher(pattern)
	if err != nil {
		return nil, err
	}
	out := make(TrackSet)
	for _, track := range i.tracks {
		if value := field(track); value != "" && matcher.match(value) {
			out.Add(track.ID)
		}
	}
	return out, nil
}
