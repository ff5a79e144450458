package types

import (
	"io/fs"
	"strings"
)

// Kind classifies an Entry or tree node.
type Kind int

const (
	// RegularFile is an ordinary file.
	RegularFile Kind = iota
	// Directory is a directory, explicit or inferred from deeper paths.
	Directory
	// Symlink is a symbolic link; Metadata.LinkTarget holds its target.
	Symlink
	// Other covers sockets, devices, fifos and anything else a source
	// reports that we don't care to distinguish.
	Other
)

// String returns a short human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case RegularFile:
		return "file"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	default:
		return "other"
	}
}

// Metadata holds the optional attributes a source may report for an entry.
// Sources that only know path names (package file lists, plain text listings)
// leave it nil; consumers must treat a nil Metadata as "unknown", never as
// an error.
type Metadata struct {
	Size       int64       `json:"size"`
	Mode       fs.FileMode `json:"mode"`
	LinkTarget string      `json:"linkTarget,omitempty"`
}

// Executable reports whether any execute permission bit is set.
func (m *Metadata) Executable() bool {
	return m != nil && m.Mode&0o111 != 0
}

// Entry is the normalized record every source adapter produces: a
// root-relative path split into segments, a kind, and optional metadata.
// It is the only currency between the adapters and the tree builder.
type Entry struct {
	Path     []string
	Kind     Kind
	Metadata *Metadata
}

// Name returns the final path segment, or "" for an empty path.
func (e Entry) Name() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// String joins the path segments with "/" for messages and logs.
func (e Entry) String() string {
	return strings.Join(e.Path, "/")
}

// SplitPath turns a slash-separated path into Entry path segments. Leading
// and trailing separators and "." components are dropped; ".." is kept
// literally, segment interpretation is the adapter's job, not ours.
func SplitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}
