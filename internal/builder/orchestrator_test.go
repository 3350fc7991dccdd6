/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/expression"
)

// fakeCollection is an in-memory Collection for exercising the build
// end-to-end without a serializer.
type fakeCollection struct {
	tracks     []*collection.Track
	root       *collection.Playlist
	serialized string
}

func newFakeCollection(tracks ...*collection.Track) *fakeCollection {
	return &fakeCollection{tracks: tracks, root: collection.NewFolder("ROOT")}
}

func (f *fakeCollection) Tracks() []*collection.Track { return f.tracks }

func (f *fakeCollection) Playlists() *collection.Playlist { return f.root }

func (f *fakeCollection) AppendPlaylist(p *collection.Playlist) { f.root.AddChild(p) }

func (f *fakeCollection) Serialize(path string) error {
	f.serialized = path
	return nil
}

func buildTracks() []*collection.Track {
	return []*collection.Track{
		{ID: "1", GenreTags: []string{"House"}, BPM: 126, Rating: 3},
		{ID: "2", GenreTags: []string{"Techno"}, BPM: 132, Rating: 4},
		{ID: "3", GenreTags: []string{"House", "Techno"}, BPM: 128, Rating: 5},
		{ID: "4", GenreTags: []string{"Dubstep"}, OtherTags: []string{"Dark"}, BPM: 140, Rating: 5},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Remainder = config.RemainderFolder
	return cfg
}

func fixedOrchestrator(cfg *config.Config) *Orchestrator {
	return NewAt(cfg, zerolog.Nop(), time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
}

func TestBuildEndToEnd(t *testing.T) {
	col := newFakeCollection(buildTracks()...)
	playlistCfg := &config.PlaylistConfig{
		Tags: folder("Genres",
			leaf("House"),
			leaf("Techno"),
			folder("_ignore", leaf("Dark")),
		),
		Combiner: folder("Combiner",
			leaf("House & Techno"),
			leaf("{playlist:House} | Dark"),
		),
	}

	root, err := fixedOrchestrator(testConfig()).Build(col, playlistCfg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if root.Name() != RootPlaylistName {
		t.Fatalf("root = %q, want %s", root.Name(), RootPlaylistName)
	}
	if got := col.root.Children(); len(got) != 1 || got[0] != root {
		t.Fatal("built tree was not appended to the collection")
	}

	names := make([]string, 0)
	for _, child := range root.Children() {
		names = append(names, child.Name())
	}
	expected := []string{"Genres", "Unused Tags", "Combiner"}
	if !reflect.DeepEqual(names, expected) {
		t.Fatalf("children = %v, want %v", names, expected)
	}

	// The remainder folder covers only Dubstep: Dark is ignored.
	remainder := root.Children()[1]
	if got := leafByName(t, remainder, "Dubstep").TrackIDs(); !reflect.DeepEqual(got, []string{"4"}) {
		t.Errorf("Dubstep remainder = %v", got)
	}
	if found := remainder.FindByName("Dark"); len(found) != 0 {
		t.Error("ignored tag appeared in the remainder")
	}

	if got := leafByName(t, root, "House & Techno").TrackIDs(); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("House & Techno = %v", got)
	}
	// Combiner leaves resolve playlists registered by the tag build.
	if got := leafByName(t, root, "{playlist:House} | Dark").TrackIDs(); !reflect.DeepEqual(got, []string{"1", "3", "4"}) {
		t.Errorf("{playlist:House} | Dark = %v", got)
	}
}

func TestBuildCombinerSeesTagPlaylists(t *testing.T) {
	col := newFakeCollection(buildTracks()...)
	playlistCfg := &config.PlaylistConfig{
		Tags: folder("Genres",
			folder("Styles", leaf("House"), leaf("Techno")),
		),
		Combiner: folder("Combiner",
			leaf("{playlist:All Styles} ~ Techno"),
		),
	}

	root, err := fixedOrchestrator(testConfig()).Build(col, playlistCfg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := leafByName(t, root, "{playlist:All Styles} ~ Techno").TrackIDs(); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("leaf = %v, want [1]", got)
	}
}

func TestBuildUnknownPlaylistAborts(t *testing.T) {
	col := newFakeCollection(buildTracks()...)
	playlistCfg := &config.PlaylistConfig{
		Combiner: folder("Combiner", leaf("{playlist:Missing} & House")),
	}

	_, err := fixedOrchestrator(testConfig()).Build(col, playlistCfg)
	if err == nil {
		t.Fatal("expected error for unknown playlist reference")
	}
	if got := col.root.Children(); len(got) != 0 {
		t.Error("collection mutated despite the failed build")
	}
}

func TestBuildParseErrorAborts(t *testing.T) {
	col := newFakeCollection(buildTracks()...)
	playlistCfg := &config.PlaylistConfig{
		Combiner: folder("Combiner", leaf("House &")),
	}

	_, err := fixedOrchestrator(testConfig()).Build(col, playlistCfg)
	var parseErr *expression.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestBuildMinTracksPruning(t *testing.T) {
	cfg := testConfig()
	cfg.Remainder = config.RemainderNone
	cfg.MinTagPlaylistTracks = 2
	cfg.MinCombinerPlaylistTracks = 2

	col := newFakeCollection(buildTracks()...)
	playlistCfg := &config.PlaylistConfig{
		Tags: folder("Genres",
			leaf("House"),
			folder("Rare", leaf("Dubstep")),
		),
		Combiner: folder("Combiner",
			leaf("House & Techno"),
			leaf("House | Techno"),
		),
	}

	root, err := fixedOrchestrator(cfg).Build(col, playlistCfg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// House keeps 2 tracks. Dubstep has 1 and is pruned; its folder empties
	// out and disappears with it (the folder also held All Rare with that
	// single track).
	genres := root.Children()[0]
	if found := genres.FindByName("Rare"); len(found) != 0 {
		t.Error("folder with only underfilled leaves survived pruning")
	}
	if found := genres.FindByName("House"); len(found) != 1 {
		t.Error("House leaf should survive pruning")
	}

	combiner := root.Children()[1]
	if found := combiner.FindByName("House & Techno"); len(found) != 0 {
		t.Error("underfilled combiner leaf survived pruning")
	}
	if found := combiner.FindByName("House | Techno"); len(found) != 1 {
		t.Error("filled combiner leaf should survive pruning")
	}
}

func TestBuildDeterminism(t *testing.T) {
	playlistCfg := &config.PlaylistConfig{
		Tags: folder("Genres", folder("Styles", leaf("House"), leaf("Techno"), leaf("Dubstep"))),
		Combiner: folder("Combiner",
			leaf("(House | Techno) ~ Dark"),
			leaf("*e* & [0-5]"),
		),
	}

	var snapshots []string
	for i := 0; i < 3; i++ {
		col := newFakeCollection(buildTracks()...)
		root, err := fixedOrchestrator(testConfig()).Build(col, playlistCfg)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		snapshots = append(snapshots, dumpTree(root))
	}
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i] != snapshots[0] {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, snapshots[i], snapshots[0])
		}
	}
}

func dumpTree(node *collection.Playlist) string {
	out := ""
	node.Walk(func(path []string, n *collection.Playlist) {
		out += "/"
		for _, p := range path {
			out += p + "/"
		}
		out += n.Name()
		if !n.IsFolder() {
			for _, id := range n.TrackIDs() {
				out += " " + id
			}
		}
		out += "\n"
	})
	return out
}
