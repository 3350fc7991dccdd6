/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// Filter decides whether a leaf should be filtered and which of its tracks
// survive. MatchesPlaylist is always called before KeepTrack for the same
// leaf; filters may capture leaf context between the two calls. The build is
// single-threaded by contract, so that is safe.
type Filter interface {
	// MatchesPlaylist reports whether the filter applies to a leaf, given
	// the full ancestor name chain, outermost first.
	MatchesPlaylist(path []string, name string) bool

	// KeepTrack reports whether the track should remain in the leaf.
	KeepTrack(track *collection.Track) bool
}

// Filter identifiers accepted in enabled_filters.
const (
	FilterHipHop          = "hip_hop"
	FilterMinimalDeepTech = "minimal_deep_tech"
	FilterComplex         = "complex"
	FilterTransition      = "transition"
)

// Registry holds the stock filters in registration order, enabled by
// identifier at build time.
type Registry struct {
	order    []string
	builders map[string]func() Filter
}

// NewRegistry registers the stock filters with their configuration applied.
func NewRegistry(cfg *config.Config) *Registry {
	exclude := make(map[string]struct{}, len(cfg.ComplexFilterExcludeTags))
	for _, tag := range cfg.ComplexFilterExcludeTags {
		exclude[tag] = struct{}{}
	}

	r := &Registry{builders: make(map[string]func() Filter)}
	r.register(FilterHipHop, func() Filter { return &HipHopFilter{} })
	r.register(FilterMinimalDeepTech, func() Filter { return &MinimalDeepTechFilter{} })
	r.register(FilterComplex, func() Filter {
		return &ComplexTrackFilter{MinTags: cfg.ComplexFilterMinTags, ExcludeTags: exclude}
	})
	r.register(FilterTransition, func() Filter { return &TransitionTrackFilter{} })
	return r
}

func (r *Registry) register(id string, build func() Filter) {
	r.order = append(r.order, id)
	r.builders[id] = build
}

// Enabled constructs fresh instances of the requested filters, preserving
// the caller's order.
func (r *Registry) Enabled(ids []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(ids))
	for _, id := range ids {
		build, ok := r.builders[id]
		if !ok {
			return nil, &config.ConfigError{Field: "enabled_filters", Msg: "unknown filter " + strconv.Quote(id)}
		}
		filters = append(filters, build())
	}
	return filters, nil
}

// ApplyFilters runs the enabled filters over every leaf of the tree. A leaf
// matched by one or more filters retains only tracks that every matching
// filter keeps. A filter failure on a single track excludes the track and
// emits a diagnostic rather than poisoning the leaf.
func ApplyFilters(root *collection.Playlist, filters []Filter, idx *tagindex.Index, logger zerolog.Logger) {
	if root == nil || len(filters) == 0 {
		return
	}
	root.Walk(func(path []string, node *collection.Playlist) {
		if node.IsFolder() {
			return
		}

		var matching []Filter
		for _, filter := range filters {
			if filter.MatchesPlaylist(path, node.Name()) {
				matching = append(matching, filter)
			}
		}
		if len(matching) == 0 {
			return
		}

		kept := make([]string, 0, len(node.TrackIDs()))
		for _, id := range node.TrackIDs() {
			track := idx.Track(id)
			if track == nil {
				continue
			}
			if keepTrack(matching, track, node.Name(), logger) {
				kept = append(kept, id)
			}
		}
		node.SetTrackIDs(kept)
	})
}

func keepTrack(filters []Filter, track *collection.Track, playlist string, logger zerolog.Logger) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().
				Str("playlist", playlist).
				Str("track", track.ID).
				Interface("failure", r).
				Msg("filter failed on track, excluding it")
			keep = false
		}
	}()
	for _, filter := range filters {
		if !filter.KeepTrack(track) {
			return false
		}
	}
	return true
}

func pathContains(path []string, name string) bool {
	for _, ancestor := range path {
		if ancestor == name {
			return true
		}
	}
	return false
}

func anyContainsFold(path []string, name, needle string) bool {
	if strings.Contains(strings.ToLower(name), needle) {
		return true
	}
	for _, ancestor := range path {
		if strings.Contains(strings.ToLower(ancestor), needle) {
			return true
		}
	}
	return false
}

// HipHopFilter distinguishes actual hip hop tracks from bass tracks with hip
// hop influences in leaves named "Hip Hop".
type HipHopFilter struct {
	bass bool
}

func (f *HipHopFilter) MatchesPlaylist(path []string, name string) bool {
	if name != "Hip Hop" {
		return false
	}
	f.bass = pathContains(path, "Bass")
	return true
}

func (f *HipHopFilter) KeepTrack(track *collection.Track) bool {
	if f.bass {
		// Under Bass, keep only crossover tracks carrying some other genre.
		for _, genre := range track.GenreTags {
			if !isHipHopOrRB(genre) {
				return true
			}
		}
		return false
	}
	for _, genre := range track.GenreTags {
		if !isHipHopOrRB(genre) {
			return false
		}
	}
	return true
}

func isHipHopOrRB(genre string) bool {
	lowered := strings.ToLower(genre)
	return strings.Contains(lowered, "hip hop") || strings.Contains(lowered, "r&b")
}

// MinimalDeepTechFilter splits "Minimal Deep Tech" leaves by their parent
// genre: under Techno it keeps techno-leaning tracks, under House
// house-leaning ones.
type MinimalDeepTechFilter struct {
	techno bool
	house  bool
}

func (f *MinimalDeepTechFilter) MatchesPlaylist(path []string, name string) bool {
	if name != "Minimal Deep Tech" {
		return false
	}
	f.techno = pathContains(path, "Techno")
	f.house = pathContains(path, "House")
	return true
}

func (f *MinimalDeepTechFilter) KeepTrack(track *collection.Track) bool {
	if f.techno && !hasOtherGenreContaining(track, "techno") {
		return false
	}
	if f.house && !hasOtherGenreContaining(track, "house") {
		return false
	}
	return true
}

func hasOtherGenreContaining(track *collection.Track, needle string) bool {
	for _, genre := range track.GenreTags {
		if genre == "Minimal Deep Tech" {
			continue
		}
		if strings.Contains(strings.ToLower(genre), needle) {
			return true
		}
	}
	return false
}

// ComplexTrackFilter keeps only richly tagged tracks in leaves whose name or
// ancestry mentions "complex".
type ComplexTrackFilter struct {
	MinTags     int
	ExcludeTags map[string]struct{}
}

func (f *ComplexTrackFilter) MatchesPlaylist(path []string, name string) bool {
	return anyContainsFold(path, name, "complex")
}

func (f *ComplexTrackFilter) KeepTrack(track *collection.Track) bool {
	count := 0
	for _, tag := range track.OtherTags {
		if _, excluded := f.ExcludeTags[tag]; !excluded {
			count++
		}
	}
	return count >= f.MinTags
}

// transitionAnnotation matches "[ a / b ]" style annotations in comments and
// playlist names.
var transitionAnnotation = regexp.MustCompile(`\[([^\[\]]*/[^\[\]]*)\]`)

// TransitionTrackFilter keeps tracks whose comment annotations carry the
// pair a transition playlist is about, e.g. "[ 130 / 140 ]" for a tempo
// transition or "[ House / Techno ]" for a genre transition.
type TransitionTrackFilter struct {
	tempo    bool
	expected []string
}

func (f *TransitionTrackFilter) MatchesPlaylist(path []string, name string) bool {
	if !anyContainsFold(path, name, "transition") {
		return false
	}
	lowered := strings.ToLower(name)
	genre := strings.Contains(lowered, "genre")
	tempo := strings.Contains(lowered, "tempo")
	if genre == tempo {
		return false
	}

	f.tempo = tempo
	f.expected = nil
	if match := transitionAnnotation.FindStringSubmatch(name); match != nil {
		if tokens, ok := annotationTokens(match[1], f.tempo); ok {
			f.expected = tokens
		}
	}
	return true
}

func (f *TransitionTrackFilter) KeepTrack(track *collection.Track) bool {
	for _, match := range transitionAnnotation.FindAllStringSubmatch(track.Comment, -1) {
		tokens, ok := annotationTokens(match[1], f.tempo)
		if !ok {
			continue
		}
		if len(f.expected) == 0 {
			return true
		}
		if containsAll(tokens, f.expected) {
			return true
		}
	}
	return false
}

// annotationTokens splits an annotation body on "/" and validates its shape:
// integers for tempo transitions, free strings for genre ones.
func annotationTokens(body string, tempo bool) ([]string, bool) {
	parts := strings.Split(body, "/")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		if tempo {
			if _, err := strconv.Atoi(part); err != nil {
				return nil, false
			}
		}
		tokens = append(tokens, strings.ToLower(part))
	}
	if len(tokens) < 2 {
		return nil, false
	}
	return tokens, true
}

func containsAll(tokens, expected []string) bool {
	for _, want := range expected {
		found := false
		for _, token := range tokens {
			if token == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
