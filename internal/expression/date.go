/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package expression

import (
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/cratekeeper/internal/tagindex"
)

// parseDatePayload parses the payload of a date selector: an optional
// comparator prefix followed by either an ISO calendar prefix (YYYY, YYYY-MM,
// YYYY-MM-DD) or a relative duration (NyNmNwNd, any subset).
func parseDatePayload(payload string, pos int) (tagindex.DatePredicate, error) {
	var pred tagindex.DatePredicate

	rest := payload
	switch {
	case strings.HasPrefix(rest, "<="):
		pred.Cmp = tagindex.DateOnOrBefore
		rest = rest[2:]
	case strings.HasPrefix(rest, ">="):
		pred.Cmp = tagindex.DateOnOrAfter
		rest = rest[2:]
	case strings.HasPrefix(rest, "<"):
		pred.Cmp = tagindex.DateBefore
		rest = rest[1:]
	case strings.HasPrefix(rest, ">"):
		pred.Cmp = tagindex.DateAfter
		rest = rest[1:]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return pred, errorf(pos, "empty date payload")
	}

	if isRelativeDate(rest) {
		return parseRelativeDate(pred, rest, pos)
	}
	return parseISODate(pred, rest, pos)
}

// isRelativeDate reports whether the payload ends with a duration unit
// letter, distinguishing "3m" from "2022".
func isRelativeDate(s string) bool {
	switch s[len(s)-1] {
	case 'y', 'm', 'w', 'd':
		return true
	}
	return false
}

func parseRelativeDate(pred tagindex.DatePredicate, s string, pos int) (tagindex.DatePredicate, error) {
	pred.Relative = true
	seen := map[byte]bool{}
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if start == i || i == len(s) {
			return pred, errorf(pos, "bad relative date %q", s)
		}
		value, err := strconv.Atoi(s[start:i])
		if err != nil {
			return pred, errorf(pos, "bad relative date %q", s)
		}
		unit := s[i]
		i++
		if seen[unit] {
			return pred, errorf(pos, "duplicate unit %q in relative date %q", string(unit), s)
		}
		seen[unit] = true
		switch unit {
		case 'y':
			pred.Years = value
		case 'm':
			pred.Months = value
		case 'w':
			pred.Weeks = value
		case 'd':
			pred.Days = value
		default:
			return pred, errorf(pos, "bad unit %q in relative date %q", string(unit), s)
		}
	}
	return pred, nil
}

func parseISODate(pred tagindex.DatePredicate, s string, pos int) (tagindex.DatePredicate, error) {
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return pred, errorf(pos, "bad date %q", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return pred, errorf(pos, "bad year in date %q", s)
	}

	switch len(parts) {
	case 1:
		pred.Start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		pred.End = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	case 2:
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return pred, errorf(pos, "bad month in date %q", s)
		}
		pred.Start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		pred.End = pred.Start.AddDate(0, 1, -1)
	case 3:
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return pred, errorf(pos, "bad month in date %q", s)
		}
		day, err := strconv.Atoi(parts[2])
		if err != nil || day < 1 || day > 31 {
			return pred, errorf(pos, "bad day in date %q", s)
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if date.Day() != day {
			return pred, errorf(pos, "bad day in date %q", s)
		}
		pred.Start, pred.End = date, date
	}
	return pred, nil
}
