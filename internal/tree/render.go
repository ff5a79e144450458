package tree

import (
	"fmt"
	"io"
	"strings"

	"larch/internal/colors"
	"larch/pkg/types"
)

// Connector glyphs, tree(1) style.
const (
	branchGlyph   = "├── "
	lastGlyph     = "└── "
	continueGlyph = "│   "
	blankGlyph    = "    "
)

// RenderOptions controls rendering. The zero value renders plain
// uncolored output with no metadata suffixes.
type RenderOptions struct {
	Color    bool
	ShowSize bool
}

// Render produces one line per node, root included, in depth-first
// pre-order with children sorted bytewise by name. Rendering is a pure
// function of the finished tree: calling it twice yields identical lines.
func (t *Tree) Render(table *colors.Table, opts RenderOptions) []string {
	if table == nil {
		table = colors.Empty()
	}
	lines := make([]string, 0, t.Root.Count()+1)
	lines = append(lines, t.Label)

	kids := t.Root.SortedChildren()
	for i, child := range kids {
		renderNode(&lines, child, table, opts, "", i == len(kids)-1)
	}
	return lines
}

// Fprint writes the rendered tree to w, one line at a time.
func (t *Tree) Fprint(w io.Writer, table *colors.Table, opts RenderOptions) error {
	for _, line := range t.Render(table, opts) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderNode(lines *[]string, n *Node, table *colors.Table, opts RenderOptions, prefix string, last bool) {
	glyph := branchGlyph
	if last {
		glyph = lastGlyph
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(glyph)
	b.WriteString(renderName(n, table, opts))
	*lines = append(*lines, b.String())

	childPrefix := prefix + continueGlyph
	if last {
		childPrefix = prefix + blankGlyph
	}
	kids := n.SortedChildren()
	for i, child := range kids {
		renderNode(lines, child, table, opts, childPrefix, i == len(kids)-1)
	}
}

// renderName styles the node name, and appends the size suffix and symlink
// target when applicable.
func renderName(n *Node, table *colors.Table, opts RenderOptions) string {
	kind := n.Kind
	if n.IsDir() {
		kind = types.Directory
	}
	if n.Kind == types.Symlink {
		kind = types.Symlink
	}

	out := table.Resolve(kind, n.Name, n.Meta).Apply(n.Name, opts.Color)

	if opts.ShowSize && n.Meta != nil && !n.IsDir() {
		out += fmt.Sprintf(" [%d]", n.Meta.Size)
	}

	if n.Kind == types.Symlink && n.Meta != nil && n.Meta.LinkTarget != "" {
		// The target is styled like a file of that name would be, matching
		// how ls colors the right-hand side of a symlink listing.
		target := table.ResolveName(n.Meta.LinkTarget).Apply(n.Meta.LinkTarget, opts.Color)
		out += " -> " + target
	}
	return out
}
