package tree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larch/internal/colors"
	"larch/pkg/types"
)

func makeTree(t *testing.T) *Tree {
	t.Helper()
	tr := New("root", Archive)
	for _, e := range []types.Entry{
		entry([]string{"foo"}, types.Directory),
		entry([]string{"foo", "bar"}, types.RegularFile),
		{Path: []string{"foo", "baz"}, Kind: types.Symlink, Metadata: &types.Metadata{LinkTarget: "symlink target"}},
		entry([]string{"foo", "subdir"}, types.Directory),
		entry([]string{"foo", "subdir2", "subdir3", "subdir_file"}, types.RegularFile),
		entry([]string{"another_dir", "some_file"}, types.RegularFile),
		entry([]string{"zed", "asdf", "ghjk"}, types.RegularFile),
		entry([]string{"zed", "b"}, types.RegularFile),
	} {
		require.NoError(t, tr.Insert(e))
	}
	return tr
}

func TestRenderGolden(t *testing.T) {
	expected := `root
├── another_dir
│   └── some_file
├── foo
│   ├── bar
│   ├── baz -> symlink target
│   ├── subdir
│   └── subdir2
│       └── subdir3
│           └── subdir_file
└── zed
    ├── asdf
    │   └── ghjk
    └── b
`
	var buf bytes.Buffer
	require.NoError(t, makeTree(t).Fprint(&buf, nil, RenderOptions{}))
	assert.Equal(t, expected, buf.String())
}

func TestRenderLineCountMatchesNodeCount(t *testing.T) {
	tr := makeTree(t)
	lines := tr.Render(nil, RenderOptions{})
	assert.Len(t, lines, tr.Root.Count()+1)
}

func TestRenderIsDeterministic(t *testing.T) {
	tr := makeTree(t)
	table := colors.ParseTable("di=01;34:*.go=00;32")
	opts := RenderOptions{Color: true, ShowSize: true}

	first := strings.Join(tr.Render(table, opts), "\n")
	second := strings.Join(tr.Render(table, opts), "\n")
	assert.Equal(t, first, second)
}

func TestRenderSortsChildrenBytewise(t *testing.T) {
	tr := New("root", Disk)
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, tr.Insert(entry([]string{name}, types.RegularFile)))
	}
	lines := tr.Render(nil, RenderOptions{})
	require.Len(t, lines, 4)
	assert.Equal(t, "├── a", lines[1])
	assert.Equal(t, "├── b", lines[2])
	assert.Equal(t, "└── c", lines[3])
}

func TestRenderColor(t *testing.T) {
	table := colors.ParseTable("dir=01;34:*.zip=01;31")

	tr := New("root", Disk)
	require.NoError(t, tr.Insert(entry([]string{"x"}, types.Directory)))
	require.NoError(t, tr.Insert(entry([]string{"y.zip"}, types.RegularFile)))

	lines := tr.Render(table, RenderOptions{Color: true})
	require.Len(t, lines, 3)
	assert.Equal(t, "├── \x1b[01;34mx\x1b[0m", lines[1])
	assert.Equal(t, "└── \x1b[01;31my.zip\x1b[0m", lines[2])

	// disabling color gives plain names with no escapes
	plain := tr.Render(table, RenderOptions{})
	assert.Equal(t, "├── x", plain[1])
	assert.Equal(t, "└── y.zip", plain[2])
}

func TestRenderSymlinkTargetIgnoresNameRules(t *testing.T) {
	// an extension rule matching the link's own name must not win over the
	// symlink indicator
	table := colors.ParseTable("ln=01;36:*.conf=00;33")

	tr := New("root", Disk)
	require.NoError(t, tr.Insert(types.Entry{
		Path:     []string{"hosts.conf"},
		Kind:     types.Symlink,
		Metadata: &types.Metadata{LinkTarget: "/etc/hosts"},
	}))

	lines := tr.Render(table, RenderOptions{Color: true})
	require.Len(t, lines, 2)
	assert.Equal(t, "└── \x1b[01;36mhosts.conf\x1b[0m -> /etc/hosts", lines[1])

	plain := tr.Render(table, RenderOptions{})
	assert.True(t, strings.HasSuffix(plain[1], " -> /etc/hosts"))
}

func TestRenderShowSize(t *testing.T) {
	tr := New("root", Disk)
	require.NoError(t, tr.Insert(types.Entry{
		Path:     []string{"big.bin"},
		Kind:     types.RegularFile,
		Metadata: &types.Metadata{Size: 4096},
	}))
	require.NoError(t, tr.Insert(entry([]string{"nometa"}, types.RegularFile)))

	lines := tr.Render(nil, RenderOptions{ShowSize: true})
	require.Len(t, lines, 3)
	assert.Equal(t, "├── big.bin [4096]", lines[1])
	// metadata absence degrades quietly
	assert.Equal(t, "└── nometa", lines[2])
}
