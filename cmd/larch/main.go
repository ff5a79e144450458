// Command larch prints lists of files as a tree: directories, archive
// contents, and installed-package file lists all render the same way.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

var version = "dev"

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		// A pager that quit early closes our pipe; that's a clean exit.
		if isBrokenPipe(err) {
			os.Exit(0)
		}
		// Per-input failures were already reported as they happened.
		if !errors.Is(err, errInputsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func isBrokenPipe(err error) bool {
	if errors.Is(err, syscall.EPIPE) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, syscall.EPIPE)
}
