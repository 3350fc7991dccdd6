/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package expression

import (
	"strconv"
	"strings"
)

var selectorKinds = map[string]SelectorKind{
	"artist":   SelectorArtist,
	"comment":  SelectorComment,
	"date":     SelectorDate,
	"key":      SelectorKey,
	"label":    SelectorLabel,
	"playlist": SelectorPlaylist,
}

// Parse tokenizes and parses a combiner expression. Operator precedence,
// tightest first: '&', '~', '|'; all left-associative. A complete expression
// must contain at least one operator.
func Parse(input string) (Node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errorf(tok.pos, "unexpected token")
	}
	if p.operators == 0 {
		return nil, errorf(0, "expression requires at least one operator")
	}
	return node, nil
}

type parser struct {
	tokens    []token
	pos       int
	operators int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseDiff()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		p.operators++
		right, err := p.parseDiff()
		if err != nil {
			return nil, err
		}
		left = &OrNode{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseDiff() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokDiff {
		p.next()
		p.operators++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &DiffNode{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		p.operators++
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &AndNode{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAtom() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, errorf(tok.pos, "unmatched '('")
		}
		return node, nil

	case tokTag:
		return &TagNode{
			Name:     tok.text,
			Wildcard: strings.Contains(tok.text, "*"),
			Pos:      tok.pos,
		}, nil

	case tokSelector:
		return p.parseSelector(tok)

	case tokNumeric:
		return p.parseNumeric(tok)

	case tokEOF:
		return nil, errorf(tok.pos, "unexpected end of expression")

	default:
		return nil, errorf(tok.pos, "expected operand")
	}
}

func (p *parser) parseSelector(tok token) (Node, error) {
	kind, ok := selectorKinds[tok.field]
	if !ok {
		return nil, errorf(tok.pos, "unknown selector field %q", tok.field)
	}

	node := &SelectorNode{Kind: kind, Payload: tok.payload, Pos: tok.pos}
	if kind == SelectorDate {
		pred, err := parseDatePayload(tok.payload, tok.pos)
		if err != nil {
			return nil, err
		}
		node.Date = pred
		return node, nil
	}

	if strings.HasPrefix(tok.payload, "<") || strings.HasPrefix(tok.payload, ">") {
		return nil, errorf(tok.pos, "comparator is only valid in date selectors")
	}
	return node, nil
}

func (p *parser) parseNumeric(tok token) (Node, error) {
	node := &NumericNode{Pos: tok.pos}
	for _, item := range strings.Split(tok.payload, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errorf(tok.pos, "empty numeric range")
		}

		var lo, hi int
		if before, after, found := strings.Cut(item, "-"); found {
			var err error
			if lo, err = parseBound(before); err != nil {
				return nil, errorf(tok.pos, "bad numeric range %q", item)
			}
			if hi, err = parseBound(after); err != nil {
				return nil, errorf(tok.pos, "bad numeric range %q", item)
			}
			if hi < lo {
				return nil, errorf(tok.pos, "inverted numeric range %q", item)
			}
		} else {
			value, err := parseBound(item)
			if err != nil {
				return nil, errorf(tok.pos, "bad numeric value %q", item)
			}
			lo, hi = value, value
		}

		node.Ranges = append(node.Ranges, NumRange{Lo: lo, Hi: hi, Kind: classifyRange(lo, hi)})
	}
	return node, nil
}

func parseBound(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// classifyRange interprets a lo-hi pair: years when both endpoints reach
// 1900, ratings when both fit in [0, 5], BPMs otherwise.
func classifyRange(lo, hi int) RangeKind {
	switch {
	case lo >= 1900 && hi >= 1900:
		return RangeYear
	case lo <= 5 && hi <= 5:
		return RangeRating
	default:
		return RangeBPM
	}
}
