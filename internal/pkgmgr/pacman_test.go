package pkgmgr

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larch/internal/errors"
	"larch/pkg/types"
)

const pacmanDesc = `%NAME%
ripgrep

%VERSION%
14.1.0-1

%PROVIDES%
rg=14.1.0
grep-alternative
`

const ripgrepMtree = `#mtree
/set type=file uid=0 gid=0 mode=644
./.BUILDINFO time=1700000000.0 size=5000 md5digest=aabb
./.PKGINFO time=1700000000.0 size=400
./usr time=1700000000.0 mode=755 type=dir
./usr/bin time=1700000000.0 mode=755 type=dir
./usr/bin/rg time=1700000000.0 mode=755 size=5001234
./usr/share time=1700000000.0 mode=755 type=dir
./usr/share/man time=1700000000.0 mode=755 type=dir
./usr/share/man/man1/rg.1.gz time=1700000000.0 size=9183
./usr/share/spaced\040name time=1700000000.0 size=10
./usr/share/alias type=link link=../bin/rg mode=777
`

func writePacmanDB(t *testing.T) string {
	t.Helper()
	db := t.TempDir()
	pkgDir := filepath.Join(db, "ripgrep-14.1.0-1")
	require.NoError(t, os.Mkdir(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "desc"), []byte(pacmanDesc), 0o644))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(ripgrepMtree))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "mtree"), buf.Bytes(), 0o644))

	// a stray file at the top of the database directory is ignored
	require.NoError(t, os.WriteFile(filepath.Join(db, "ALPM_DB_VERSION"), []byte("9\n"), 0o644))
	return db
}

func TestPacmanReadPackage(t *testing.T) {
	p, err := NewPacman(writePacmanDB(t))
	require.NoError(t, err)

	tr, err := p.ReadPackage("ripgrep")
	require.NoError(t, err)
	assert.Equal(t, "ripgrep", tr.Label)

	bin := tr.Root.Child("usr").Child("bin")
	require.NotNil(t, bin)
	rg := bin.Child("rg")
	require.NotNil(t, rg)
	assert.Equal(t, types.RegularFile, rg.Kind)
	require.NotNil(t, rg.Meta)
	assert.Equal(t, int64(5001234), rg.Meta.Size)
	assert.True(t, rg.Meta.Executable())

	// packaging metadata dotfiles are not part of the installed tree
	assert.Nil(t, tr.Root.Child(".BUILDINFO"))
	assert.Nil(t, tr.Root.Child(".PKGINFO"))

	share := tr.Root.Child("usr").Child("share")
	require.NotNil(t, share)
	// vis(3) octal escapes decode to real bytes
	assert.NotNil(t, share.Child("spaced name"))

	alias := share.Child("alias")
	require.NotNil(t, alias)
	assert.Equal(t, types.Symlink, alias.Kind)
	assert.Equal(t, "../bin/rg", alias.Meta.LinkTarget)
}

func TestPacmanProviderAlias(t *testing.T) {
	p, err := NewPacman(writePacmanDB(t))
	require.NoError(t, err)

	tr, err := p.ReadPackage("rg")
	require.NoError(t, err)
	assert.Equal(t, "ripgrep", tr.Label)

	tr, err = p.ReadPackage("grep-alternative")
	require.NoError(t, err)
	assert.Equal(t, "ripgrep", tr.Label)
}

func TestPacmanPackageNotFound(t *testing.T) {
	p, err := NewPacman(writePacmanDB(t))
	require.NoError(t, err)

	_, err = p.ReadPackage("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.PackageNotFound))
}

func TestPacmanMissingDatabase(t *testing.T) {
	_, err := NewPacman(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.SourceFailure))
}

func TestParseDescRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc")
	require.NoError(t, os.WriteFile(path, []byte("%VERSION%\n1.0\n"), 0o644))
	_, _, err := parseDesc(path)
	assert.Error(t, err)
}

func TestDecodeVis(t *testing.T) {
	assert.Equal(t, "plain", decodeVis("plain"))
	assert.Equal(t, "a b", decodeVis("a\\040b"))
	assert.Equal(t, "tab\tend", decodeVis("tab\\011end"))
	// malformed escapes pass through untouched
	assert.Equal(t, "half\\04", decodeVis("half\\04"))
}
