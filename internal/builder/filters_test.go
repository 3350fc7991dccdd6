/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

func TestHipHopFilter(t *testing.T) {
	pureTrack := &collection.Track{GenreTags: []string{"Hip Hop", "R&B"}}
	crossoverTrack := &collection.Track{GenreTags: []string{"Hip Hop", "Halftime"}}

	tests := []struct {
		name          string
		path          []string
		keepPure      bool
		keepCrossover bool
	}{
		{"outside bass", []string{"Root", "Genres"}, true, false},
		{"under bass", []string{"Root", "Bass"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := &HipHopFilter{}
			if !filter.MatchesPlaylist(tt.path, "Hip Hop") {
				t.Fatal("filter should match Hip Hop leaf")
			}
			if got := filter.KeepTrack(pureTrack); got != tt.keepPure {
				t.Errorf("KeepTrack(pure) = %v, want %v", got, tt.keepPure)
			}
			if got := filter.KeepTrack(crossoverTrack); got != tt.keepCrossover {
				t.Errorf("KeepTrack(crossover) = %v, want %v", got, tt.keepCrossover)
			}
		})
	}

	if (&HipHopFilter{}).MatchesPlaylist([]string{"Root"}, "House") {
		t.Error("filter matched a non Hip Hop leaf")
	}
}

func TestMinimalDeepTechFilter(t *testing.T) {
	technoLeaning := &collection.Track{GenreTags: []string{"Minimal Deep Tech", "Hard Techno"}}
	houseLeaning := &collection.Track{GenreTags: []string{"Minimal Deep Tech", "Deep House"}}

	filter := &MinimalDeepTechFilter{}
	if !filter.MatchesPlaylist([]string{"Root", "Techno"}, "Minimal Deep Tech") {
		t.Fatal("filter should match under Techno")
	}
	if !filter.KeepTrack(technoLeaning) {
		t.Error("techno-leaning track dropped under Techno")
	}
	if filter.KeepTrack(houseLeaning) {
		t.Error("house-leaning track kept under Techno")
	}

	if !filter.MatchesPlaylist([]string{"Root", "House"}, "Minimal Deep Tech") {
		t.Fatal("filter should match under House")
	}
	if filter.KeepTrack(technoLeaning) {
		t.Error("techno-leaning track kept under House")
	}
	if !filter.KeepTrack(houseLeaning) {
		t.Error("house-leaning track dropped under House")
	}

	// Outside both contexts everything survives.
	if !filter.MatchesPlaylist([]string{"Root"}, "Minimal Deep Tech") {
		t.Fatal("filter should match the leaf name anywhere")
	}
	if !filter.KeepTrack(technoLeaning) || !filter.KeepTrack(houseLeaning) {
		t.Error("tracks dropped with no genre context")
	}
}

func TestComplexTrackFilter(t *testing.T) {
	filter := &ComplexTrackFilter{
		MinTags:     2,
		ExcludeTags: map[string]struct{}{"Flagged": {}},
	}

	if !filter.MatchesPlaylist([]string{"Root"}, "Complex Selections") {
		t.Fatal("filter should match a leaf mentioning complex")
	}
	if !filter.MatchesPlaylist([]string{"Root", "My Complex Crates"}, "Anything") {
		t.Fatal("filter should match via an ancestor mentioning complex")
	}
	if filter.MatchesPlaylist([]string{"Root"}, "Simple") {
		t.Fatal("filter matched an unrelated leaf")
	}

	tests := []struct {
		name     string
		tags     []string
		expected bool
	}{
		{"enough tags", []string{"Dark", "Heavy"}, true},
		{"too few", []string{"Dark"}, false},
		{"excluded tags do not count", []string{"Dark", "Flagged"}, false},
		{"no tags", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &collection.Track{OtherTags: tt.tags}
			if got := filter.KeepTrack(track); got != tt.expected {
				t.Errorf("KeepTrack(%v) = %v, want %v", tt.tags, got, tt.expected)
			}
		})
	}
}

func TestTransitionTrackFilter(t *testing.T) {
	filter := &TransitionTrackFilter{}

	// Needs "transition" in the lineage and exactly one of genre/tempo in
	// the leaf name.
	if filter.MatchesPlaylist([]string{"Root"}, "Genre Shifts") {
		t.Fatal("matched without transition in lineage")
	}
	if filter.MatchesPlaylist([]string{"Root", "Transitions"}, "Genre And Tempo") {
		t.Fatal("matched with both genre and tempo in the name")
	}

	if !filter.MatchesPlaylist([]string{"Root", "Transitions"}, "Genre [House / Techno]") {
		t.Fatal("genre transition leaf did not match")
	}
	keep := &collection.Track{Comment: "smooth blend [ House / Techno ]"}
	drop := &collection.Track{Comment: "[ House / Dubstep ]"}
	plain := &collection.Track{Comment: "no annotation"}
	if !filter.KeepTrack(keep) {
		t.Error("matching genre annotation dropped")
	}
	if filter.KeepTrack(drop) {
		t.Error("non-matching genre annotation kept")
	}
	if filter.KeepTrack(plain) {
		t.Error("track without annotation kept")
	}

	if !filter.MatchesPlaylist([]string{"Root", "Transitions"}, "Tempo [130 / 140]") {
		t.Fatal("tempo transition leaf did not match")
	}
	tempoKeep := &collection.Track{Comment: "/* Dark */ [ 130 / 140 ]"}
	tempoWrong := &collection.Track{Comment: "[ 120 / 140 ]"}
	tempoInvalid := &collection.Track{Comment: "[ fast / slow ]"}
	if !filter.KeepTrack(tempoKeep) {
		t.Error("matching tempo annotation dropped")
	}
	if filter.KeepTrack(tempoWrong) {
		t.Error("wrong tempo pair kept")
	}
	if filter.KeepTrack(tempoInvalid) {
		t.Error("non-numeric annotation kept for tempo transition")
	}

	// Without a pair in the leaf name, any well-typed annotation keeps.
	if !filter.MatchesPlaylist([]string{"Root", "Transitions"}, "Tempo Picks") {
		t.Fatal("tempo leaf without pair did not match")
	}
	if !filter.KeepTrack(tempoKeep) {
		t.Error("annotated track dropped with no expected pair")
	}
	if filter.KeepTrack(tempoInvalid) {
		t.Error("badly typed annotation kept with no expected pair")
	}
}

func TestRegistryEnabled(t *testing.T) {
	registry := NewRegistry(config.Default())

	filters, err := registry.Enabled([]string{FilterTransition, FilterHipHop})
	if err != nil {
		t.Fatalf("Enabled() error: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("Enabled() returned %d filters", len(filters))
	}
	if _, ok := filters[0].(*TransitionTrackFilter); !ok {
		t.Errorf("caller order not preserved: %T first", filters[0])
	}

	var cfgErr *config.ConfigError
	if _, err := registry.Enabled([]string{"bogus"}); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for unknown filter, got %v", err)
	}
}

func TestApplyFilters(t *testing.T) {
	tracks := []*collection.Track{
		{ID: "1", GenreTags: []string{"Hip Hop", "R&B"}},
		{ID: "2", GenreTags: []string{"Hip Hop", "Halftime"}},
	}
	idx := tagindex.New(tracks)

	tree := collection.NewFolder("Root",
		collection.NewFolder("Bass",
			collection.NewLeaf("Hip Hop", []string{"1", "2"}),
		),
		collection.NewLeaf("Hip Hop", []string{"1", "2"}),
	)

	ApplyFilters(tree, []Filter{&HipHopFilter{}}, idx, zerolog.Nop())

	bassLeaf := tree.Children()[0].Children()[0]
	if !reflect.DeepEqual(bassLeaf.TrackIDs(), []string{"2"}) {
		t.Errorf("bass leaf = %v, want [2]", bassLeaf.TrackIDs())
	}
	plainLeaf := tree.Children()[1]
	if !reflect.DeepEqual(plainLeaf.TrackIDs(), []string{"1"}) {
		t.Errorf("plain leaf = %v, want [1]", plainLeaf.TrackIDs())
	}
}
