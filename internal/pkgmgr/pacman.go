package pkgmgr

import (
	"os"
	"path/filepath"
	"strings"

	"larch/internal/errors"
	"larch/internal/log"
	"larch/internal/tree"
)

// Pacman reads the pacman local database: one directory per installed
// package holding a `desc` metadata file and a gzipped `mtree` file list.
type Pacman struct {
	// package name -> package directory
	packages map[string]string
	// provider alias -> real package name
	provides map[string]string
}

// NewPacman scans the local database directory and indexes every package
// that has a parseable desc file.
func NewPacman(dbPath string) (*Pacman, error) {
	dirents, err := os.ReadDir(dbPath)
	if err != nil {
		return nil, errors.NewSourceError("no pacman database", dbPath, errors.SourceFailure, err)
	}

	p := &Pacman{
		packages: make(map[string]string),
		provides: make(map[string]string),
	}
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		pkgDir := filepath.Join(dbPath, de.Name())
		descPath := filepath.Join(pkgDir, "desc")
		name, extraProvides, err := parseDesc(descPath)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warnf("failed to parse desc file %s: %v", descPath, err)
			}
			continue
		}
		for _, alias := range extraProvides {
			p.provides[alias] = name
		}
		p.packages[name] = pkgDir
	}
	return p, nil
}

// ReadPackage implements Manager.
func (p *Pacman) ReadPackage(name string) (*tree.Tree, error) {
	realName := name
	pkgDir, ok := p.packages[name]
	if !ok {
		realName, ok = p.provides[name]
		if !ok {
			return nil, notFound(name)
		}
		pkgDir = p.packages[realName]
	}

	src, err := openMtree(filepath.Join(pkgDir, "mtree"))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file list for %s", realName)
	}
	return tree.Build(realName, tree.Package, src)
}

// parseDesc pulls the %NAME% and %PROVIDES% sections out of a pacman desc
// file. The format is section headers on their own line followed by values,
// terminated by a blank line.
func parseDesc(path string) (name string, provides []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	section := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			section = ""
			continue
		}
		if strings.HasPrefix(line, "%") && strings.HasSuffix(line, "%") {
			section = line
			continue
		}
		switch section {
		case "%NAME%":
			name = line
		case "%PROVIDES%":
			// entries can be `name` or `name=version`
			alias, _, _ := strings.Cut(line, "=")
			provides = append(provides, alias)
		}
	}

	if name == "" {
		return "", nil, errors.New("no pkgname found in desc")
	}
	return name, provides, nil
}
