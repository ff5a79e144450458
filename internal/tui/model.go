// Package tui is the interactive tree browser: the same tree the CLI
// prints, but with collapsible directories and keyboard navigation.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"larch/internal/colors"
	"larch/internal/tree"
	"larch/pkg/types"
)

// KeyMap defines the keybindings for the browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard vim-flavored bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "enter")),
		Expand:   key.NewBinding(key.WithKeys("l", "right")),
		Collapse: key.NewBinding(key.WithKeys("h", "left")),
		Top:      key.NewBinding(key.WithKeys("g", "home")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	}
}

// row is one visible line: a node plus the connector prefix it renders with.
type row struct {
	node   *tree.Node
	prefix string
	last   bool
	depth  int
}

// Model is the bubbletea model for the tree browser.
type Model struct {
	tree     *tree.Tree
	table    *colors.Table
	keys     KeyMap
	viewport viewport.Model
	rows     []row
	cursor   int
	// collapsed tracks directories the user folded shut, keyed by node.
	collapsed map[*tree.Node]bool
	ready     bool
}

// New creates a browser over a finished tree.
func New(t *tree.Tree, table *colors.Table) *Model {
	if table == nil {
		table = colors.Empty()
	}
	m := &Model{
		tree:      t,
		table:     table,
		keys:      DefaultKeyMap(),
		viewport:  viewport.New(80, 24),
		collapsed: make(map[*tree.Node]bool),
	}
	m.rebuildRows()
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 2 // leave room for the status bar
		m.ready = true
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		case key.Matches(msg, m.keys.Bottom):
			m.cursor = len(m.rows) - 1
		case key.Matches(msg, m.keys.Toggle):
			m.toggle()
		case key.Matches(msg, m.keys.Expand):
			m.setCollapsed(false)
		case key.Matches(msg, m.keys.Collapse):
			m.setCollapsed(true)
		}
	}
	m.syncViewport()
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	return m.viewport.View() + "\n" + m.statusLine()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

func (m *Model) toggle() {
	if m.cursor >= len(m.rows) {
		return
	}
	n := m.rows[m.cursor].node
	if n == nil || !n.IsDir() || n.NumChildren() == 0 {
		return
	}
	m.collapsed[n] = !m.collapsed[n]
	m.rebuildRows()
}

func (m *Model) setCollapsed(collapsed bool) {
	if m.cursor >= len(m.rows) {
		return
	}
	n := m.rows[m.cursor].node
	if n == nil || !n.IsDir() || n.NumChildren() == 0 {
		return
	}
	m.collapsed[n] = collapsed
	m.rebuildRows()
}

// rebuildRows re-flattens the tree into visible rows, honoring collapsed
// state, and keeps the cursor in range.
func (m *Model) rebuildRows() {
	m.rows = m.rows[:0]
	// row 0 is the root label
	m.rows = append(m.rows, row{node: nil})
	m.appendRows(m.tree.Root, "", 0)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

func (m *Model) appendRows(n *tree.Node, prefix string, depth int) {
	kids := n.SortedChildren()
	for i, child := range kids {
		last := i == len(kids)-1
		m.rows = append(m.rows, row{node: child, prefix: prefix, last: last, depth: depth})
		if child.IsDir() && !m.collapsed[child] {
			childPrefix := prefix + "│   "
			if last {
				childPrefix = prefix + "    "
			}
			m.appendRows(child, childPrefix, depth+1)
		}
	}
}

// syncViewport redraws the viewport content and scrolls the cursor into view.
func (m *Model) syncViewport() {
	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		lines[i] = m.renderRow(r, i == m.cursor)
	}
	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, lines...))

	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m *Model) renderRow(r row, selected bool) string {
	var line string
	if r.node == nil {
		line = rootStyle.Render(m.tree.Label)
	} else {
		glyph := "├── "
		if r.last {
			glyph = "└── "
		}
		name := m.styleName(r.node)
		marker := ""
		if r.node.IsDir() && r.node.NumChildren() > 0 && m.collapsed[r.node] {
			marker = collapsedStyle.Render(" …")
		}
		line = r.prefix + glyph + name + marker
	}
	if selected {
		return cursorStyle.Render("▶ ") + line
	}
	return "  " + line
}

// styleName colors a node name through the LS_COLORS table, converted to a
// lipgloss style so the viewport can re-measure it safely.
func (m *Model) styleName(n *tree.Node) string {
	kind := n.Kind
	if n.IsDir() && kind != types.Symlink {
		kind = types.Directory
	}
	name := m.table.Resolve(kind, n.Name, n.Meta).Lipgloss().Render(n.Name)
	if n.Kind == types.Symlink && n.Meta != nil && n.Meta.LinkTarget != "" {
		name += " -> " + m.table.ResolveName(n.Meta.LinkTarget).Lipgloss().Render(n.Meta.LinkTarget)
	}
	return name
}

func (m *Model) statusLine() string {
	return statusStyle.Render(
		fmt.Sprintf("%s · %d entries  [j/k move · space fold · q quit]",
			m.tree.Label, len(m.rows)-1))
}
