/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package builder

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cratekeeper/internal/collection"
	"github.com/friendsincode/cratekeeper/internal/config"
	"github.com/friendsincode/cratekeeper/internal/expression"
)

// ParseCombinerExpressions parses every expression leaf of the combiner
// tree. All parse faults are collected so the user sees each offending
// expression with its source position in one pass.
func ParseCombinerExpressions(root *config.PlaylistNode) (map[*config.PlaylistNode]expression.Node, error) {
	parsed := make(map[*config.PlaylistNode]expression.Node)
	var errs []error
	parseCombinerNode(root, parsed, &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return parsed, nil
}

func parseCombinerNode(node *config.PlaylistNode, parsed map[*config.PlaylistNode]expression.Node, errs *[]error) {
	if node.Folder {
		for _, child := range node.Children {
			parseCombinerNode(child, parsed, errs)
		}
		return
	}
	ast, err := expression.Parse(node.Content)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("expression %q: %w", node.Content, err))
		return
	}
	parsed[node] = ast
}

// BuildCombinerPlaylists materializes the combiner tree by evaluating each
// pre-parsed expression. Combiner folders get no aggregation playlists and
// take no part in the remainder computation.
func BuildCombinerPlaylists(
	root *config.PlaylistNode,
	parsed map[*config.PlaylistNode]expression.Node,
	eval *expression.Evaluator,
	logger zerolog.Logger,
) (*collection.Playlist, error) {
	return buildCombinerNode(root, parsed, eval, logger)
}

func buildCombinerNode(
	node *config.PlaylistNode,
	parsed map[*config.PlaylistNode]expression.Node,
	eval *expression.Evaluator,
	logger zerolog.Logger,
) (*collection.Playlist, error) {
	if node.Folder {
		folder := collection.NewFolder(node.Name)
		for _, child := range node.Children {
			built, err := buildCombinerNode(child, parsed, eval, logger)
			if err != nil {
				return nil, err
			}
			folder.AddChild(built)
		}
		return folder, nil
	}

	ast, ok := parsed[node]
	if !ok {
		return nil, fmt.Errorf("expression %q was not parsed", node.Content)
	}
	set, err := eval.Evaluate(ast)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", node.Content, err)
	}
	if len(set) == 0 {
		logger.Warn().Str("expression", node.Content).Msg("expression matched no tracks")
	}
	return collection.NewLeaf(node.DisplayName(), set.Sorted()), nil
}
