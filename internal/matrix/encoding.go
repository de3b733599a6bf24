package matrix

import (
	"fmt"
	"sort"
)

// LabelEncoding maps each distinct level of a column to its index in the
// lexicographically sorted level list.
type LabelEncoding struct {
	Column  string
	Classes []string
}

func FitLabelEncoding(col string, values []string) LabelEncoding {
	seen := map[string]struct{}{}
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)
	return LabelEncoding{Column: col, Classes: classes}
}

// Encode returns the code of v, or -1 for an unseen level.
func (e LabelEncoding) Encode(v string) int {
	i := sort.SearchStrings(e.Classes, v)
	if i < len(e.Classes) && e.Classes[i] == v {
		return i
	}
	return -1
}

// EncodedColumn is the name of the label-encoded companion column.
func (e LabelEncoding) EncodedColumn() string { return e.Column + "_encoded" }

// DummyGroup describes the drop-first one-hot expansion of one categorical column.
// The alphabetically first level is the baseline and has no indicator column.
type DummyGroup struct {
	Source   string
	Baseline string
	Levels   []string // non-baseline levels, sorted
	Columns  []string // indicator column per level
}

func NewDummyGroup(col string, values []string) DummyGroup {
	classes := FitLabelEncoding(col, values).Classes
	g := DummyGroup{Source: col}
	if len(classes) == 0 {
		return g
	}
	g.Baseline = classes[0]
	for _, l := range classes[1:] {
		g.Levels = append(g.Levels, l)
		g.Columns = append(g.Columns, col+"_"+l)
	}
	return g
}

// Indicators returns the one-hot row for v; the baseline maps to all zeros.
func (g DummyGroup) Indicators(v string) []float64 {
	out := make([]float64, len(g.Levels))
	for i, l := range g.Levels {
		if l == v {
			out[i] = 1
		}
	}
	return out
}

// Decode maps an indicator row back to its level. It fails unless at most one
// indicator is set.
func (g DummyGroup) Decode(ind []float64) (string, error) {
	if len(ind) != len(g.Levels) {
		return "", fmt.Errorf("%s: want %d indicators, got %d", g.Source, len(g.Levels), len(ind))
	}
	level, set := g.Baseline, 0
	for i, x := range ind {
		switch x {
		case 0:
		case 1:
			level = g.Levels[i]
			set++
		default:
			return "", fmt.Errorf("%s: indicator %q is %v", g.Source, g.Columns[i], x)
		}
	}
	if set > 1 {
		return "", fmt.Errorf("%s: %d indicators set", g.Source, set)
	}
	return level, nil
}
