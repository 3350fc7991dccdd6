/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package collection

// Playlist is one node of a playlist tree: either a folder holding child
// playlists or a leaf holding track IDs. The tree is strictly hierarchical;
// nodes carry no parent pointers.
type Playlist struct {
	name     string
	folder   bool
	children []*Playlist
	trackIDs []string
}

// NewFolder creates a folder node with the given children.
func NewFolder(name string, children ...*Playlist) *Playlist {
	return &Playlist{name: name, folder: true, children: children}
}

// NewLeaf creates a leaf node holding the given track IDs in order.
func NewLeaf(name string, trackIDs []string) *Playlist {
	return &Playlist{name: name, trackIDs: trackIDs}
}

// Name returns the playlist name.
func (p *Playlist) Name() string { return p.name }

// IsFolder reports whether this node is a folder.
func (p *Playlist) IsFolder() bool { return p.folder }

// Children returns the folder's child playlists in order. Nil for leaves.
func (p *Playlist) Children() []*Playlist { return p.children }

// TrackIDs returns the leaf's track IDs in order. Nil for folders.
func (p *Playlist) TrackIDs() []string { return p.trackIDs }

// AddChild appends a child to a folder node.
func (p *Playlist) AddChild(child *Playlist) {
	if p.folder && child != nil {
		p.children = append(p.children, child)
	}
}

// SetTrackIDs replaces a leaf's track IDs.
func (p *Playlist) SetTrackIDs(ids []string) {
	if !p.folder {
		p.trackIDs = ids
	}
}

// Walk visits every node depth-first. The path holds the names of all
// ancestors of the visited node, outermost first.
func (p *Playlist) Walk(fn func(path []string, node *Playlist)) {
	p.walk(nil, fn)
}

func (p *Playlist) walk(path []string, fn func(path []string, node *Playlist)) {
	fn(path, p)
	if !p.folder {
		return
	}
	childPath := append(append([]string{}, path...), p.name)
	for _, child := range p.children {
		child.walk(childPath, fn)
	}
}

// FindByName returns every node in the tree whose name matches, depth-first.
func (p *Playlist) FindByName(name string) []*Playlist {
	var found []*Playlist
	p.Walk(func(_ []string, node *Playlist) {
		if node.name == name {
			found = append(found, node)
		}
	})
	return found
}

// TrackCount returns the number of track IDs held beneath this node.
func (p *Playlist) TrackCount() int {
	if !p.folder {
		return len(p.trackIDs)
	}
	count := 0
	for _, child := range p.children {
		count += child.TrackCount()
	}
	return count
}
