package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larch/internal/tree"
	"larch/pkg/types"
)

func browserFixture(t *testing.T) *Model {
	t.Helper()
	tr := tree.New("root", tree.Disk)
	for _, p := range [][]string{
		{"a.txt"},
		{"sub", "b.txt"},
		{"sub", "c.txt"},
		{"zed"},
	} {
		require.NoError(t, tr.Insert(types.Entry{Path: p, Kind: types.RegularFile}))
	}
	return New(tr, nil)
}

func keyPress(m *Model, r rune) *Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(*Model)
}

func TestRowsFlattenTree(t *testing.T) {
	m := browserFixture(t)

	// root label plus every node, directories expanded
	require.Len(t, m.rows, 6)
	assert.Nil(t, m.rows[0].node)
	assert.Equal(t, "a.txt", m.rows[1].node.Name)
	assert.Equal(t, "sub", m.rows[2].node.Name)
	assert.Equal(t, "b.txt", m.rows[3].node.Name)
	assert.Equal(t, "c.txt", m.rows[4].node.Name)
	assert.Equal(t, "zed", m.rows[5].node.Name)
}

func TestCursorMovement(t *testing.T) {
	m := browserFixture(t)

	m = keyPress(m, 'k')
	assert.Equal(t, 0, m.cursor, "cursor stays at the top")

	m = keyPress(m, 'j')
	m = keyPress(m, 'j')
	assert.Equal(t, 2, m.cursor)

	m = keyPress(m, 'G')
	assert.Equal(t, len(m.rows)-1, m.cursor)
	m = keyPress(m, 'j')
	assert.Equal(t, len(m.rows)-1, m.cursor, "cursor stays at the bottom")

	m = keyPress(m, 'g')
	assert.Equal(t, 0, m.cursor)
}

func TestCollapseAndExpand(t *testing.T) {
	m := browserFixture(t)

	// move onto "sub" and fold it
	m = keyPress(m, 'j')
	m = keyPress(m, 'j')
	require.Equal(t, "sub", m.rows[m.cursor].node.Name)

	m = keyPress(m, 'h')
	require.Len(t, m.rows, 4, "children of a collapsed directory disappear")
	assert.Equal(t, "zed", m.rows[3].node.Name)

	m = keyPress(m, 'l')
	assert.Len(t, m.rows, 6)
}

func TestToggleOnFileIsNoop(t *testing.T) {
	m := browserFixture(t)
	m = keyPress(m, 'j')
	require.Equal(t, "a.txt", m.rows[m.cursor].node.Name)

	m = keyPress(m, ' ')
	assert.Len(t, m.rows, 6)
}

func TestCollapseKeepsCursorInRange(t *testing.T) {
	m := browserFixture(t)

	// park the cursor on the last child of "sub", then fold via toggle on sub
	m = keyPress(m, 'G')
	sub := m.tree.Root.Child("sub")
	require.NotNil(t, sub)
	m.collapsed[sub] = true
	m.rebuildRows()
	assert.Less(t, m.cursor, len(m.rows))
}

func TestQuit(t *testing.T) {
	m := browserFixture(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
