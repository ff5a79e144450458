// Package errors provides the typed error kinds larch raises across package
// boundaries. The tree builder rejects malformed entries with InvalidEntry;
// everything I/O-adjacent (filesystem walk, archive read, package database)
// surfaces as a SourceError so the CLI can decide per input whether to skip
// or abort.
package errors

import (
	"errors"
	"fmt"
)

// Re-exported stdlib helpers so callers don't need two errors imports.
var (
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// InvalidEntry: an entry with an empty path or empty segment was handed
	// to the tree builder.
	InvalidEntry
	// SourceFailure: an underlying read failed (I/O error, corrupt archive,
	// unreadable package database).
	SourceFailure
	// PackageNotFound: no installed package or provider matches the name.
	PackageNotFound
	// UnknownFormat: a file isn't any archive format we can read.
	UnknownFormat
	// InvalidConfig: the config file exists but can't be parsed.
	InvalidConfig
)

// ApplicationError is the base type for all larch errors.
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// SourceError is an ApplicationError that carries the path or identifier of
// the file source that failed (directory path, archive file, package name).
type SourceError struct {
	ApplicationError
	source string
}

// NewSourceError creates a source error for the given path or identifier.
func NewSourceError(msg, source string, kind ErrorKind, err error) *SourceError {
	return &SourceError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		source: source,
	}
}

// Error returns the source error message
func (e *SourceError) Error() string {
	if e.source != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.source, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.source)
	}
	return e.ApplicationError.Error()
}

// Source returns the path or identifier associated with the error.
func (e *SourceError) Source() string {
	return e.source
}

// EntryError is an ApplicationError raised for a single bad entry; it is
// local to one insert and never invalidates the tree built so far.
type EntryError struct {
	ApplicationError
	entry string
}

// NewEntryError creates an InvalidEntry error for the named entry.
func NewEntryError(msg, entry string) *EntryError {
	return &EntryError{
		ApplicationError: ApplicationError{
			msg:  msg,
			kind: InvalidEntry,
		},
		entry: entry,
	}
}

// Error returns the entry error message
func (e *EntryError) Error() string {
	if e.entry != "" {
		return fmt.Sprintf("%s: %q", e.msg, e.entry)
	}
	return e.ApplicationError.Error()
}

// Entry returns the offending entry path.
func (e *EntryError) Entry() string {
	return e.entry
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// NewKind creates a new error with an explicit kind.
func NewKind(msg string, kind ErrorKind) error {
	return &ApplicationError{
		msg:  msg,
		kind: kind,
	}
}

// Wrap wraps an error with a message. Returns nil if err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: KindOf(err),
	}
}

// Wrapf wraps an error with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: KindOf(err),
	}
}

// KindOf returns the kind of the first ApplicationError in err's chain,
// or Unknown.
func KindOf(err error) ErrorKind {
	type kinder interface {
		Kind() ErrorKind
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

// IsKind reports whether err's chain contains an error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
