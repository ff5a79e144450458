// Package tree builds and renders the unified file hierarchy. Entries from
// any source adapter are inserted one at a time; intermediate directories
// are synthesized on demand because archive and package listings don't
// reliably list directories before (or at all alongside) their contents.
package tree

import (
	"sort"
	"strings"

	"larch/internal/errors"
	"larch/pkg/types"
)

// SourceKind tags a Tree with the kind of backend it was built from. It only
// influences the root label convention, never the tree semantics.
type SourceKind int

// Source kinds
const (
	Disk SourceKind = iota
	Archive
	Package
	Listing
)

// Node is one node of the hierarchy. A node owns its children exclusively;
// sibling names are unique. Display order is computed at render time, the
// children map carries no ordering.
type Node struct {
	Name     string
	Kind     types.Kind
	Meta     *types.Metadata
	children map[string]*Node

	// explicit is true when the node came from a real source record rather
	// than being synthesized as an ancestor of a deeper path.
	explicit bool
}

// Tree is a finished hierarchy plus the label shown on the root line
// (directory path, archive file name, or package name).
type Tree struct {
	Root   *Node
	Label  string
	Source SourceKind
}

// New creates an empty tree with the given display label.
func New(label string, source SourceKind) *Tree {
	return &Tree{
		Root:   &Node{Kind: types.Directory, explicit: true},
		Label:  label,
		Source: source,
	}
}

// IsDir reports whether the node should be treated as a directory. A node
// with children is a directory no matter what kind a source reported for it;
// some archives mark paths inconsistently.
func (n *Node) IsDir() bool {
	return n.Kind == types.Directory || len(n.children) > 0
}

// Explicit reports whether the node came from a real source record.
func (n *Node) Explicit() bool {
	return n.explicit
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// SortedChildren returns the children ordered bytewise by name. The byte
// comparison keeps output identical across platforms and locales.
func (n *Node) SortedChildren() []*Node {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Node, len(names))
	for i, name := range names {
		out[i] = n.children[name]
	}
	return out
}

// Count returns the number of nodes below n, not counting n itself.
func (n *Node) Count() int {
	total := 0
	for _, c := range n.children {
		total += 1 + c.Count()
	}
	return total
}

// Insert adds one entry to the tree, creating implicit directory nodes for
// any missing ancestors. The final structure does not depend on insertion
// order; an explicit entry always overrides whatever a synthesized ancestor
// had, and when a source genuinely lists the same path twice the later
// record wins.
func (t *Tree) Insert(e types.Entry) error {
	if len(e.Path) == 0 {
		return errors.NewEntryError("entry has empty path", "")
	}
	for _, seg := range e.Path {
		if seg == "" {
			return errors.NewEntryError("entry has empty path segment", e.String())
		}
		if strings.ContainsRune(seg, '/') {
			return errors.NewEntryError("path segment contains separator", e.String())
		}
	}

	cur := t.Root
	for _, seg := range e.Path[:len(e.Path)-1] {
		if cur.children == nil {
			cur.children = make(map[string]*Node)
		}
		child, ok := cur.children[seg]
		if !ok {
			child = &Node{Name: seg, Kind: types.Directory}
			cur.children[seg] = child
		}
		cur = child
	}

	name := e.Path[len(e.Path)-1]
	if cur.children == nil {
		cur.children = make(map[string]*Node)
	}
	if existing, ok := cur.children[name]; ok {
		// The path was already created, either implicitly or by an earlier
		// record. A real record is more specific than a synthesized node,
		// and between two real records the later one wins.
		existing.Kind = e.Kind
		existing.Meta = e.Metadata
		existing.explicit = true
		return nil
	}
	cur.children[name] = &Node{
		Name:     name,
		Kind:     e.Kind,
		Meta:     e.Metadata,
		explicit: true,
	}
	return nil
}
