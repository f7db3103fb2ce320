package node

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownSortKey is returned by Select for a key that is not a channel field.
var ErrUnknownSortKey = errors.New("unknown sort key")

// Matcher decides whether a channel is displayed.
type Matcher interface {
	Match(vars map[string]any) (bool, error)
}

// Select returns the displayable channels: ignored channels are dropped,
// the rest sorted by sortKey ("/key" sorts descending, "" keeps listfunds
// order), filtered by m and cut to limit (<= 0 keeps all). A nil m matches
// everything.
func (s *Summary) Select(m Matcher, sortKey string, limit int) ([]*Channel, error) {
	type row struct {
		c      *Channel
		fields map[string]any
	}
	rows := make([]row, 0, len(s.Channels))
	for _, c := range s.Channels {
		if slices.Contains(s.Ignored, c.ShortID) {
			continue
		}
		rows = append(rows, row{c: c, fields: c.Fields()})
	}

	if sortKey != "" {
		key, desc := strings.CutPrefix(sortKey, "/")
		if len(rows) > 0 {
			if _, ok := rows[0].fields[key]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSortKey, key)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return less(rows[j].fields[key], rows[i].fields[key])
			}
			return less(rows[i].fields[key], rows[j].fields[key])
		})
	}

	var out []*Channel
	for _, r := range rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		if m != nil {
			ok, err := m.Match(r.fields)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, r.c)
	}
	return out, nil
}

// less orders field values; nil sorts first, mixed types compare as text.
func less(a, b any) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x < y
		}
	}
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			return !x && y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
