/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"testing"
)

func TestParsePlaylistConfig(t *testing.T) {
	doc := `
tags:
  name: Genres
  playlists:
    - House
    - tag_content: Techno
      name: Warehouse
    - name: Styles
      playlists:
        - Dubstep
combiner:
  name: Combiner
  playlists:
    - House & Techno
    - expression: House | Techno
      name: Union
`
	cfg, err := ParsePlaylistConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePlaylistConfig() error: %v", err)
	}

	tags := cfg.Tags
	if !tags.Folder || tags.Name != "Genres" || len(tags.Children) != 3 {
		t.Fatalf("tags root = %+v", tags)
	}
	if tags.Children[0].Content != "House" || tags.Children[0].DisplayName() != "House" {
		t.Errorf("bare leaf = %+v", tags.Children[0])
	}
	renamed := tags.Children[1]
	if renamed.Content != "Techno" || renamed.DisplayName() != "Warehouse" {
		t.Errorf("renamed leaf = %+v", renamed)
	}
	styles := tags.Children[2]
	if !styles.Folder || styles.Name != "Styles" || len(styles.Children) != 1 {
		t.Errorf("nested folder = %+v", styles)
	}

	union := cfg.Combiner.Children[1]
	if union.Content != "House | Techno" || union.DisplayName() != "Union" {
		t.Errorf("expression leaf = %+v", union)
	}
}

func TestParsePlaylistConfigTemplating(t *testing.T) {
	doc := `
tags:
  name: {{ printf "%s" "Genres" }}
  playlists:
    - House
`
	cfg, err := ParsePlaylistConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePlaylistConfig() error: %v", err)
	}
	if cfg.Tags.Name != "Genres" {
		t.Errorf("templated name = %q", cfg.Tags.Name)
	}
}

func TestParsePlaylistConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"top level scalar", "tags: House\n"},
		{"leaf without content", "tags:\n  name: Genres\n  playlists:\n    - name: OnlyAName\n"},
		{"both content kinds", "tags:\n  name: Genres\n  playlists:\n    - tag_content: A\n      expression: B\n"},
		{"folder with leaf content", "tags:\n  name: Genres\n  playlists:\n    - name: X\n      tag_content: A\n      playlists: [B]\n"},
		{"folder without name", "tags:\n  playlists:\n    - House\n"},
		{"entry is a sequence", "tags:\n  name: Genres\n  playlists:\n    - [House]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlaylistConfig([]byte(tt.doc))
			var pcErr *PlaylistConfigError
			if !errors.As(err, &pcErr) {
				t.Fatalf("expected PlaylistConfigError, got %v", err)
			}
		})
	}
}
