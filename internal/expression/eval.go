/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package expression

import (
	"fmt"
	"time"

	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// Evaluator walks parsed expressions against a tag index, producing track ID
// sets. Now anchors relative date selectors so that runs are reproducible.
type Evaluator struct {
	Index *tagindex.Index
	Now   time.Time
}

// Evaluate reduces the AST to the set of matching track IDs. Unknown tag
// names evaluate to the empty set; unknown playlist references and malformed
// patterns surface as errors.
func (e *Evaluator) Evaluate(node Node) (tagindex.TrackSet, error) {
	switch n := node.(type) {
	case *TagNode:
		if n.Wildcard {
			return e.Index.TagsMatching(n.Name), nil
		}
		return e.Index.Tag(n.Name), nil

	case *SelectorNode:
		return e.evaluateSelector(n)

	case *NumericNode:
		out := make(tagindex.TrackSet)
		for _, r := range n.Ranges {
			switch r.Kind {
			case RangeRating:
				out = out.Union(e.Index.RatingIn(r.Lo, r.Hi))
			case RangeYear:
				out = out.Union(e.Index.YearIn(r.Lo, r.Hi))
			default:
				out = out.Union(e.Index.BPMIn(r.Lo, r.Hi))
			}
		}
		return out, nil

	case *AndNode:
		left, right, err := e.evaluatePair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return left.Intersect(right), nil

	case *OrNode:
		left, right, err := e.evaluatePair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return left.Union(right), nil

	case *DiffNode:
		left, right, err := e.evaluatePair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return left.Diff(right), nil

	default:
		return nil, fmt.Errorf("unhandled expression node %T", node)
	}
}

func (e *Evaluator) evaluatePair(left, right Node) (tagindex.TrackSet, tagindex.TrackSet, error) {
	l, err := e.Evaluate(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := e.Evaluate(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (e *Evaluator) evaluateSelector(n *SelectorNode) (tagindex.TrackSet, error) {
	switch n.Kind {
	case SelectorArtist:
		return e.Index.ArtistGlob(n.Payload)
	case SelectorComment:
		return e.Index.CommentGlob(n.Payload)
	case SelectorKey:
		return e.Index.KeyGlob(n.Payload)
	case SelectorLabel:
		return e.Index.LabelGlob(n.Payload)
	case SelectorDate:
		return e.Index.DateMatches(n.Date, e.Now), nil
	case SelectorPlaylist:
		return e.Index.Playlist(n.Payload)
	default:
		return nil, fmt.Errorf("unhandled selector kind %d", n.Kind)
	}
}
