package pkgmgr

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"larch/internal/errors"
	"larch/internal/source"
	"larch/internal/tree"
)

// Dpkg reads the dpkg database: package stanzas from `status`, file lists
// from `info/<package>.list`.
type Dpkg struct {
	// package name -> .list file path
	packages map[string]string
	// provider alias -> real package name
	provides map[string]string
}

// NewDpkg parses the status file under dbPath and indexes the installed
// packages and their provider aliases.
func NewDpkg(dbPath string) (*Dpkg, error) {
	statusPath := filepath.Join(dbPath, "status")
	f, err := os.Open(statusPath)
	if err != nil {
		return nil, errors.NewSourceError("cannot open dpkg status", statusPath, errors.SourceFailure, err)
	}
	defer f.Close()

	d := &Dpkg{
		packages: make(map[string]string),
		provides: make(map[string]string),
	}

	var cur dpkgStanza
	flush := func() {
		if cur.name == "" {
			return
		}
		d.packages[cur.name] = cur.listPath(dbPath)
		for _, alias := range cur.providesList {
			d.provides[alias] = cur.name
		}
		cur = dpkgStanza{}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			// blank lines separate package stanzas
			flush()
			continue
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			// continuation lines belong to fields we don't read
			continue
		}
		switch key {
		case "Package":
			cur.name = val
		case "Architecture":
			cur.arch = val
		case "Multi-Arch":
			cur.multiArchSame = val == "same"
		case "Provides":
			// "c++-compiler, g++-x86-64-linux-gnu (= 4:9.3.0-1ubuntu2)":
			// split on commas, drop parenthesized version constraints.
			for _, alias := range strings.Split(val, ",") {
				alias = strings.TrimSpace(alias)
				if i := strings.IndexByte(alias, ' '); i >= 0 {
					alias = alias[:i]
				}
				if alias != "" {
					cur.providesList = append(cur.providesList, alias)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewSourceError("cannot read dpkg status", statusPath, errors.SourceFailure, err)
	}
	flush()

	return d, nil
}

// ReadPackage implements Manager.
func (d *Dpkg) ReadPackage(name string) (*tree.Tree, error) {
	realName := name
	listPath, ok := d.packages[name]
	if !ok {
		realName, ok = d.provides[name]
		if !ok {
			return nil, notFound(name)
		}
		listPath = d.packages[realName]
	}

	// Package paths name real files on this system, so look each one up to
	// recover kinds, permissions, and symlink targets the bare list lacks.
	src, err := source.OpenListing(listPath, true)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file list for %s", realName)
	}
	return tree.Build(realName, tree.Package, src)
}

// dpkgStanza accumulates the fields we care about from one status stanza.
type dpkgStanza struct {
	name          string
	arch          string
	multiArchSame bool
	providesList  []string
}

// listPath computes where the package's .list file lives. Multi-Arch: same
// packages qualify the file name with the architecture.
func (s *dpkgStanza) listPath(dbPath string) string {
	if s.multiArchSame {
		return filepath.Join(dbPath, "info", fmt.Sprintf("%s:%s.list", s.name, s.arch))
	}
	return filepath.Join(dbPath, "info", s.name+".list")
}
