package selector

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qipu-dev/qipu/internal/compaction"
	"github.com/qipu-dev/qipu/internal/note"
)

// Op is a custom-field comparator (spec §4.9).
type Op int

const (
	OpExists Op = iota
	OpNotExists
	OpEq
	OpGT
	OpGTE
	OpLT
	OpLTE
)

// Expr is one parsed custom-field expression: k=v, k, !k, k>n, k>=n, k<n, k<=n.
type Expr struct {
	Key   string
	Op    Op
	Value string
}

// ParseExpr parses one custom-field comparator (spec §4.9). Longer operator
// tokens are tried before their prefixes (">=" before ">") so "k>=5" doesn't
// mis-split on the bare ">".
func ParseExpr(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Expr{}, fmt.Errorf("selector: empty custom expression")
	}

	if strings.HasPrefix(s, "!") {
		return Expr{Key: s[1:], Op: OpNotExists}, nil
	}

	for _, tok := range []struct {
		sep string
		op  Op
	}{
		{">=", OpGTE}, {"<=", OpLTE}, {">", OpGT}, {"<", OpLT}, {"=", OpEq},
	} {
		if i := strings.Index(s, tok.sep); i >= 0 {
			return Expr{Key: s[:i], Op: tok.op, Value: s[i+len(tok.sep):]}, nil
		}
	}

	return Expr{Key: s, Op: OpExists}, nil
}

// coerceNumber converts a custom field value to a float64 for the numeric
// comparators, coercing strings and booleans where possible (spec §4.9:
// true=1.0, false=0.0).
func coerceNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1.0, true
		}

		return 0.0, true
	case string:
		switch x {
		case "true":
			return 1.0, true
		case "false":
			return 0.0, true
		}

		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

func matchExpr(n *note.Note, e Expr) bool {
	v, present := n.Custom[e.Key]

	switch e.Op {
	case OpExists:
		return present
	case OpNotExists:
		return !present
	case OpEq:
		return present && fmt.Sprintf("%v", v) == e.Value
	case OpGT, OpGTE, OpLT, OpLTE:
		if !present {
			return false
		}

		got, ok := coerceNumber(v)
		if !ok {
			return false
		}

		want, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return false
		}

		switch e.Op {
		case OpGT:
			return got > want
		case OpGTE:
			return got >= want
		case OpLT:
			return got < want
		case OpLTE:
			return got <= want
		}
	}

	return false
}

// NoteFilter is the post-selection predicate spec §4.9 names.
type NoteFilter struct {
	Tag            string
	TagEquivalents map[string][]string // canonical tag -> alias set widening Tag
	Type           string
	Since          *time.Time
	MinValue       *int
	Custom         []Expr
	HideCompacted  bool
}

// DefaultFilter returns an otherwise-open filter with hide_compacted true,
// spec §4.9's documented default.
func DefaultFilter() NoteFilter {
	return NoteFilter{HideCompacted: true}
}

// Match reports whether n passes f. cctx may be nil (nothing is compacted).
func (f NoteFilter) Match(n *note.Note, cctx *compaction.Context) bool {
	if f.HideCompacted && cctx.IsCompacted(n.ID) {
		return false
	}

	if f.Type != "" && n.Type != f.Type {
		return false
	}

	if f.Tag != "" && !hasTag(n.Tags, f.tagEquivalenceSet()) {
		return false
	}

	if f.Since != nil && (n.Created == nil || n.Created.Before(*f.Since)) {
		return false
	}

	if f.MinValue != nil && n.Value < *f.MinValue {
		return false
	}

	for _, e := range f.Custom {
		if !matchExpr(n, e) {
			return false
		}
	}

	return true
}

func (f NoteFilter) tagEquivalenceSet() map[string]bool {
	set := map[string]bool{f.Tag: true}
	for _, alias := range f.TagEquivalents[f.Tag] {
		set[alias] = true
	}

	return set
}

func hasTag(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}

	return false
}

// Filter returns the subset of notes that pass f.
func Filter(notes []*note.Note, f NoteFilter, cctx *compaction.Context) []*note.Note {
	var out []*note.Note

	for _, n := range notes {
		if f.Match(n, cctx) {
			out = append(out, n)
		}
	}

	return out
}
