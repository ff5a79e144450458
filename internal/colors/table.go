// Package colors parses LS_COLORS-style rule tables and resolves a display
// style for a tree node. The table is parsed once and immutable afterwards;
// Resolve is safe to call concurrently.
package colors

import (
	"os"
	"strings"

	"github.com/gobwas/glob"

	"larch/internal/log"
	"larch/pkg/types"
)

// indicatorAliases maps long-form pattern names onto the standard two-letter
// LS_COLORS indicator codes.
var indicatorAliases = map[string]string{
	"dir":  "di",
	"link": "ln",
	"exec": "ex",
	"file": "fi",
}

// knownIndicators is the set of two-letter codes we accept. Unknown codes
// are ignored rather than treated as file patterns.
var knownIndicators = map[string]bool{
	"no": true, "fi": true, "di": true, "ln": true, "pi": true,
	"so": true, "bd": true, "cd": true, "or": true, "ex": true,
	"do": true, "mi": true, "su": true, "sg": true, "st": true,
	"ow": true, "tw": true, "ca": true, "mh": true, "cl": true,
}

type suffixRule struct {
	suffix string
	style  Style
}

type globRule struct {
	matcher glob.Glob
	style   Style
}

// Table is a parsed, immutable color rule table.
type Table struct {
	indicators map[string]Style
	suffixes   []suffixRule
	globs      []globRule
}

// Empty returns a table with no rules; every lookup yields the zero style.
func Empty() *Table {
	return &Table{indicators: map[string]Style{}}
}

// FromEnv parses the LS_COLORS environment variable. An unset or empty
// variable yields an empty table, so everything renders undecorated.
func FromEnv() *Table {
	return ParseTable(os.Getenv("LS_COLORS"))
}

// ParseTable parses a colon-separated sequence of pattern=style pairs.
// Malformed pairs are skipped with a debug log, never fatal.
func ParseTable(spec string) *Table {
	t := Empty()
	for _, pair := range strings.Split(spec, ":") {
		if pair == "" {
			continue
		}
		pattern, sgr, ok := strings.Cut(pair, "=")
		if !ok || pattern == "" {
			log.Debugf("skipping malformed color rule %q", pair)
			continue
		}
		style := Style{sgr: sgr}

		if alias, ok := indicatorAliases[pattern]; ok {
			pattern = alias
		}
		switch {
		case hasGlobMeta(pattern):
			t.addPattern(pattern, style)
		case knownIndicators[pattern]:
			if _, dup := t.indicators[pattern]; !dup {
				t.indicators[pattern] = style
			}
		default:
			log.Debugf("ignoring unknown color indicator %q", pattern)
		}
	}
	return t
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{\\")
}

// addPattern registers a wildcard rule. Plain `*.suffix` and `*suffix`
// patterns get the fast suffix path; anything fancier is compiled as a glob.
func (t *Table) addPattern(pattern string, style Style) {
	if strings.HasPrefix(pattern, "*") && !hasGlobMeta(pattern[1:]) {
		t.suffixes = append(t.suffixes, suffixRule{suffix: pattern[1:], style: style})
		return
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		log.Debugf("skipping unparseable color pattern %q: %v", pattern, err)
		return
	}
	t.globs = append(t.globs, globRule{matcher: g, style: style})
}

// Resolve picks a style for a node. Precedence, highest first: symlink,
// directory, executable permission bit, name pattern, default. Nodes without
// metadata simply skip the permission check.
func (t *Table) Resolve(kind types.Kind, name string, meta *types.Metadata) Style {
	switch kind {
	case types.Symlink:
		if s, ok := t.indicators["ln"]; ok {
			return s
		}
		return Style{}
	case types.Directory:
		if s, ok := t.indicators["di"]; ok {
			return s
		}
		return Style{}
	}
	if meta.Executable() {
		if s, ok := t.indicators["ex"]; ok {
			return s
		}
	}
	return t.ResolveName(name)
}

// ResolveName matches a bare file name against the pattern rules only,
// ignoring kind and permissions. The renderer uses it to style symlink
// targets the way the target's extension would style a regular file.
func (t *Table) ResolveName(name string) Style {
	// Longest matching suffix wins; between equal-length suffixes the
	// earlier rule takes precedence. Matching is case-sensitive.
	var best Style
	bestLen := -1
	for _, r := range t.suffixes {
		if len(r.suffix) > bestLen && strings.HasSuffix(name, r.suffix) {
			best = r.style
			bestLen = len(r.suffix)
		}
	}
	if bestLen >= 0 {
		return best
	}
	for _, r := range t.globs {
		if r.matcher.Match(name) {
			return r.style
		}
	}
	if s, ok := t.indicators["fi"]; ok {
		return s
	}
	return Style{}
}

// Indicator returns the style for a raw two-letter indicator code.
func (t *Table) Indicator(code string) (Style, bool) {
	s, ok := t.indicators[code]
	return s, ok
}
