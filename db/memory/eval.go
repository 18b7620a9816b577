// Copyright 2025-present The Gatekit Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package memory

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/gatekit/gatekit/db/adapter"
)

// matches evaluates a compiled where list against a stored row with
// the two-level grouping semantics: AND(and-group) AND OR(or-group).
func matches(row adapter.Row, where []adapter.Where) bool {
	var ands, ors []adapter.Where
	for _, w := range where {
		if w.Connector == adapter.Or {
			ors = append(ors, w)
		} else {
			ands = append(ands, w)
		}
	}
	for _, w := range ands {
		if !evalPredicate(row, w) {
			return false
		}
	}
	if len(ors) == 0 {
		return true
	}
	for _, w := range ors {
		if evalPredicate(row, w) {
			return true
		}
	}
	return false
}

func evalPredicate(row adapter.Row, w adapter.Where) bool {
	v := row[w.Field]
	switch w.Operator {
	case adapter.OpEQ, "":
		return equal(v, w.Value)
	case adapter.OpNE:
		return !equal(v, w.Value)
	case adapter.OpLT:
		c, ok := compare(v, w.Value)
		return ok && c < 0
	case adapter.OpLTE:
		c, ok := compare(v, w.Value)
		return ok && c <= 0
	case adapter.OpGT:
		c, ok := compare(v, w.Value)
		return ok && c > 0
	case adapter.OpGTE:
		c, ok := compare(v, w.Value)
		return ok && c >= 0
	case adapter.OpIn:
		return inList(v, w.Value)
	case adapter.OpNotIn:
		return !inList(v, w.Value)
	// Pattern operators match literal substrings. A value of ".*"
	// is two characters, not a wildcard.
	case adapter.OpContains:
		s, p, ok := stringPair(v, w.Value)
		return ok && strings.Contains(s, p)
	case adapter.OpStartsWith:
		s, p, ok := stringPair(v, w.Value)
		return ok && strings.HasPrefix(s, p)
	case adapter.OpEndsWith:
		s, p, ok := stringPair(v, w.Value)
		return ok && strings.HasSuffix(s, p)
	}
	return false
}

func inList(v, list any) bool {
	rv := reflect.ValueOf(list)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func stringPair(v, pattern any) (string, string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", "", false
	}
	p, ok := pattern.(string)
	return s, p, ok
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values when both are numbers, strings, or times.
func compare(a, b any) (int, bool) {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case ta.Before(tb):
			return -1, true
		case ta.After(tb):
			return 1, true
		default:
			return 0, true
		}
	}
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1, true
			case na > nb:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortRows(rows []adapter.Row, by *adapter.SortBy) {
	desc := strings.EqualFold(by.Direction, "desc")
	sort.SliceStable(rows, func(i, j int) bool {
		c, ok := compare(rows[i][by.Field], rows[j][by.Field])
		if !ok {
			c = strings.Compare(fmt.Sprintf("%v", rows[i][by.Field]), fmt.Sprintf("%v", rows[j][by.Field]))
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}
