// Package pkgmgr reads installed-package file lists straight from the
// package manager databases on disk, the same data `dpkg -L` and `pacman
// -Ql` print. Supported managers are dpkg and pacman; which one is used is
// autodetected from the database directories present on the system.
package pkgmgr

import (
	"os"

	"larch/internal/errors"
	"larch/internal/tree"
)

// Manager resolves a package name to the tree of files it owns. ReadPackage
// returns a PackageNotFound error when neither a package nor a provider
// alias matches; the tree's label is the real package name, which can
// differ from the queried one when a provider matched.
type Manager interface {
	ReadPackage(name string) (*tree.Tree, error)
}

// Default database locations.
const (
	dpkgDBPath   = "/var/lib/dpkg"
	pacmanDBPath = "/var/lib/pacman/local"
)

// Default loads the package database of whichever supported package manager
// this system runs.
func Default() (Manager, error) {
	if _, err := os.Stat(pacmanDBPath); err == nil {
		return NewPacman(pacmanDBPath)
	}
	if _, err := os.Stat(dpkgDBPath); err == nil {
		return NewDpkg(dpkgDBPath)
	}
	return nil, errors.NewKind("no supported package manager found", errors.SourceFailure)
}

// notFound builds the typed not-found error for a package name.
func notFound(name string) error {
	return errors.NewSourceError("package not found", name, errors.PackageNotFound, nil)
}
