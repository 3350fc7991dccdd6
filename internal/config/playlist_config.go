/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PlaylistConfigError indicates a malformed playlist config structure.
type PlaylistConfigError struct {
	Msg string
}

func (e *PlaylistConfigError) Error() string {
	return "playlist config: " + e.Msg
}

// PlaylistConfig is the user's declaration of the playlist structure to
// build: a tree of tag playlists and a tree of combiner playlists, both
// optional.
type PlaylistConfig struct {
	Tags     *PlaylistNode `yaml:"tags"`
	Combiner *PlaylistNode `yaml:"combiner"`
}

// PlaylistNode is one node of a playlist config tree. A folder carries a
// name and children; a leaf carries its content (a tag name in the tags
// tree, an expression in the combiner tree) and an optional display name.
type PlaylistNode struct {
	Folder   bool
	Name     string
	Children []*PlaylistNode

	Content string
	Rename  string
}

// DisplayName returns the name a leaf's playlist should carry.
func (n *PlaylistNode) DisplayName() string {
	if n.Rename != "" {
		return n.Rename
	}
	return n.Content
}

// UnmarshalYAML accepts the three permitted node shapes: a bare string leaf,
// a {tag_content|expression, name?} record leaf, or a {name, playlists}
// folder.
func (n *PlaylistNode) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var content string
		if err := value.Decode(&content); err != nil {
			return &PlaylistConfigError{Msg: err.Error()}
		}
		if content == "" {
			return &PlaylistConfigError{Msg: "empty playlist entry"}
		}
		n.Content = content
		return nil

	case yaml.MappingNode:
		var record struct {
			Name       string      `yaml:"name"`
			Playlists  []yaml.Node `yaml:"playlists"`
			TagContent string      `yaml:"tag_content"`
			Expression string      `yaml:"expression"`
		}
		if err := value.Decode(&record); err != nil {
			return &PlaylistConfigError{Msg: err.Error()}
		}

		if record.Playlists != nil {
			if record.TagContent != "" || record.Expression != "" {
				return &PlaylistConfigError{Msg: fmt.Sprintf("line %d: folder cannot carry leaf content", value.Line)}
			}
			if record.Name == "" {
				return &PlaylistConfigError{Msg: fmt.Sprintf("line %d: folder requires a name", value.Line)}
			}
			n.Folder = true
			n.Name = record.Name
			for i := range record.Playlists {
				child := &PlaylistNode{}
				if err := record.Playlists[i].Decode(child); err != nil {
					return err
				}
				n.Children = append(n.Children, child)
			}
			return nil
		}

		switch {
		case record.TagContent != "" && record.Expression != "":
			return &PlaylistConfigError{Msg: fmt.Sprintf("line %d: leaf cannot carry both tag_content and expression", value.Line)}
		case record.TagContent != "":
			n.Content = record.TagContent
		case record.Expression != "":
			n.Content = record.Expression
		default:
			return &PlaylistConfigError{Msg: fmt.Sprintf("line %d: leaf requires tag_content or expression", value.Line)}
		}
		n.Rename = record.Name
		return nil

	default:
		return &PlaylistConfigError{Msg: fmt.Sprintf("line %d: playlist entry must be a string or mapping", value.Line)}
	}
}

// LoadPlaylistConfig reads, template-renders, and decodes a playlist config
// file. The top level of each tree must be a folder.
func LoadPlaylistConfig(path string) (*PlaylistConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist config: %w", err)
	}
	return ParsePlaylistConfig(data)
}

// ParsePlaylistConfig decodes a playlist config document from raw bytes.
func ParsePlaylistConfig(data []byte) (*PlaylistConfig, error) {
	rendered, err := renderTemplate(data)
	if err != nil {
		return nil, &PlaylistConfigError{Msg: err.Error()}
	}

	cfg := &PlaylistConfig{}
	if err := yaml.Unmarshal(rendered, cfg); err != nil {
		var pcErr *PlaylistConfigError
		if errors.As(err, &pcErr) {
			return nil, pcErr
		}
		return nil, &PlaylistConfigError{Msg: err.Error()}
	}

	for _, tree := range []*PlaylistNode{cfg.Tags, cfg.Combiner} {
		if tree != nil && !tree.Folder {
			return nil, &PlaylistConfigError{Msg: "top level entry must be a folder with name and playlists"}
		}
	}
	return cfg, nil
}

// renderTemplate runs the text templating pass permitted at load time.
func renderTemplate(data []byte) ([]byte, error) {
	if !bytes.Contains(data, []byte("{{")) {
		return data, nil
	}
	tmpl, err := template.New("playlist_config").Parse(string(data))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
