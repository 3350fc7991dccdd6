/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package collection

import "fmt"

// Collection is the view of a deserialized collection consumed by the
// playlist builder. Implementations own the underlying wire format; the
// builder never touches it.
type Collection interface {
	// Tracks returns every track ordered ascending by ID. The slice is
	// read-only during a build.
	Tracks() []*Track

	// Playlists returns the root of the existing playlist tree.
	Playlists() *Playlist

	// AppendPlaylist adds a playlist tree under the collection root.
	AppendPlaylist(p *Playlist)

	// Serialize writes the collection to path in its native format.
	Serialize(path string) error
}

// DeserializeError indicates a collection file could not be read into the
// in-memory model.
type DeserializeError struct {
	Path string
	Err  error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("deserialize collection %s: %v", e.Path, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// TracksByID indexes a track slice by ID.
func TracksByID(tracks []*Track) map[string]*Track {
	byID := make(map[string]*Track, len(tracks))
	for _, track := range tracks {
		byID[track.ID] = track
	}
	return byID
}
