/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// TagStatistics renders ASCII histograms of tag frequencies for every leaf
// of the combiner tree, split into genre and free-form tag subsets.
func TagStatistics(root *collection.Playlist, idx *tagindex.Index) string {
	var out strings.Builder
	root.Walk(func(_ []string, node *collection.Playlist) {
		if node.IsFolder() || len(node.TrackIDs()) == 0 {
			return
		}

		counts := make(map[string]int)
		genreTags := make(map[string]struct{})
		otherTags := make(map[string]struct{})
		for _, id := range node.TrackIDs() {
			track := idx.Track(id)
			if track == nil {
				continue
			}
			for _, tag := range track.GenreTags {
				genreTags[tag] = struct{}{}
				counts[tag]++
			}
			for _, tag := range track.OtherTags {
				if _, isGenre := genreTags[tag]; !isGenre {
					otherTags[tag] = struct{}{}
				}
				counts[tag]++
			}
		}

		fmt.Fprintf(&out, "\n%s tag statistics:\n", node.Name())
		for _, subset := range []struct {
			label string
			tags  map[string]struct{}
		}{{"Genre", genreTags}, {"Other", otherTags}} {
			data := make(map[string]int)
			for tag := range subset.tags {
				if counts[tag] > 0 {
					data[tag] = counts[tag]
				}
			}
			if len(data) == 0 {
				continue
			}
			fmt.Fprintf(&out, "\n%s:\n%s", subset.label, histogram(data))
		}
	})
	return out.String()
}

const histogramHeight = 25

// histogram renders tag counts as a vertical ASCII bar chart, scaling the
// tallest bar to the fixed height.
func histogram(data map[string]int) string {
	tags := make([]string, 0, len(data))
	maxCount := 0
	for tag, count := range data {
		tags = append(tags, tag)
		if count > maxCount {
			maxCount = count
		}
	}
	sort.Strings(tags)

	scaled := make(map[string]int, len(data))
	tallest := 0
	for tag, count := range data {
		height := int(float64(count)/float64(maxCount)*histogramHeight + 0.5)
		scaled[tag] = height
		if height > tallest {
			tallest = height
		}
	}

	const pad = 1
	var out strings.Builder
	rowWidth := 0
	for row := tallest; row > 0; row-- {
		var line strings.Builder
		line.WriteByte('|')
		for _, tag := range tags {
			center := (len(tag) + 1) / 2
			line.WriteString(strings.Repeat(" ", pad+center))
			if row <= scaled[tag] {
				line.WriteByte('*')
			} else {
				line.WriteByte(' ')
			}
			line.WriteString(strings.Repeat(" ", pad+center))
		}
		if rowWidth == 0 {
			rowWidth = line.Len()
		}
		out.WriteString(line.String())
		out.WriteByte('\n')
	}

	out.WriteString(strings.Repeat("-", rowWidth))
	out.WriteString("\n ")
	for _, tag := range tags {
		out.WriteString(strings.Repeat(" ", pad))
		out.WriteString(tag)
		out.WriteString(strings.Repeat(" ", pad+1))
	}
	out.WriteByte('\n')
	return out.String()
}
