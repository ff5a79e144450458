package source

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"larch/internal/errors"
	"larch/pkg/types"
)

// Archive format detection is done on magic bytes, never on the file name,
// so `larch weird-extension.bin` works on any tar/zip it is handed.
var (
	magicGzip  = []byte{0x1f, 0x8b}
	magicBzip2 = []byte("BZh")
	magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicZip   = []byte("PK")
)

// OpenArchive opens the archive file at path and returns an entry stream
// over its contents. Supported containers are tar and zip; tar may be
// wrapped in gzip, bzip2, xz, or zstd. The returned source owns the file
// handle and releases it on Close.
func OpenArchive(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSourceError("cannot open archive", path, errors.SourceFailure, err)
	}

	br := bufio.NewReader(f)
	head, _ := br.Peek(6)

	if bytes.HasPrefix(head, magicZip) {
		f.Close()
		return openZip(path)
	}

	src := &tarSource{path: path, closers: []io.Closer{f}}
	reader, err := decompress(br, head)
	if err != nil {
		src.Close()
		return nil, errors.NewSourceError("cannot read archive", path, errors.SourceFailure, err)
	}
	if c, ok := reader.(io.Closer); ok {
		src.closers = append(src.closers, c)
	}

	// After decompression the payload must be tar; sniff the ustar magic
	// at offset 257 before committing.
	pr := bufio.NewReaderSize(reader, 1024)
	if probe, err := pr.Peek(265); err != nil || !bytes.Equal(probe[257:262], []byte("ustar")) {
		src.Close()
		return nil, errors.NewSourceError("unrecognized archive format", path, errors.UnknownFormat, nil)
	}
	src.tr = tar.NewReader(pr)
	return src, nil
}

// NewArchiveStream reads a tar archive from an arbitrary stream, such as
// stdin, with the same decompression support as OpenArchive. Zip cannot be
// read this way because its directory sits at the end of the file.
func NewArchiveStream(r io.Reader, name string) (Source, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(6)

	if bytes.HasPrefix(head, magicZip) {
		return nil, errors.NewSourceError("zip archives cannot be read from a stream", name, errors.UnknownFormat, nil)
	}

	src := &tarSource{path: name}
	reader, err := decompress(br, head)
	if err != nil {
		return nil, errors.NewSourceError("cannot read archive", name, errors.SourceFailure, err)
	}
	if c, ok := reader.(io.Closer); ok {
		src.closers = append(src.closers, c)
	}

	pr := bufio.NewReaderSize(reader, 1024)
	if probe, err := pr.Peek(265); err != nil || !bytes.Equal(probe[257:262], []byte("ustar")) {
		src.Close()
		return nil, errors.NewSourceError("unrecognized archive format", name, errors.UnknownFormat, nil)
	}
	src.tr = tar.NewReader(pr)
	return src, nil
}

// decompress wraps r in the decompressor matching the sniffed magic bytes.
// Plain uncompressed input is returned as-is.
func decompress(r io.Reader, head []byte) (io.Reader, error) {
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return gzip.NewReader(r)
	case bytes.HasPrefix(head, magicBzip2):
		return bzip2.NewReader(r), nil
	case bytes.HasPrefix(head, magicXz):
		return xz.NewReader(r)
	case bytes.HasPrefix(head, magicZstd):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return r, nil
	}
}

// tarSource streams entries from a tar reader.
type tarSource struct {
	path    string
	tr      *tar.Reader
	closers []io.Closer
}

// Next implements Source.
func (s *tarSource) Next() (types.Entry, error) {
	for {
		hdr, err := s.tr.Next()
		if err == io.EOF {
			return types.Entry{}, io.EOF
		}
		if err != nil {
			return types.Entry{}, errors.NewSourceError("corrupt archive", s.path, errors.SourceFailure, err)
		}

		segs := types.SplitPath(hdr.Name)
		if len(segs) == 0 {
			// "./" and "/" records carry no name, skip them.
			continue
		}

		entry := types.Entry{
			Path: segs,
			Kind: kindOfTarHeader(hdr),
			Metadata: &types.Metadata{
				Size: hdr.Size,
				Mode: hdr.FileInfo().Mode(),
			},
		}
		if entry.Kind == types.Symlink {
			entry.Metadata.LinkTarget = hdr.Linkname
		}
		return entry, nil
	}
}

// Close implements Source; it is safe to call repeatedly.
func (s *tarSource) Close() error {
	var first error
	// Close in reverse: decompressor before the underlying file.
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	s.tr = nil
	return first
}

func kindOfTarHeader(hdr *tar.Header) types.Kind {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return types.Directory
	case tar.TypeSymlink:
		return types.Symlink
	case tar.TypeReg, tar.TypeLink:
		// Hard links display like the regular file they alias.
		return types.RegularFile
	default:
		return types.Other
	}
}

// zipSource streams entries from a zip central directory.
type zipSource struct {
	path string
	rc   *zip.ReadCloser
	pos  int
}

func openZip(path string) (Source, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.NewSourceError("cannot read zip archive", path, errors.SourceFailure, err)
	}
	return &zipSource{path: path, rc: rc}, nil
}

// Next implements Source.
func (s *zipSource) Next() (types.Entry, error) {
	for s.rc != nil && s.pos < len(s.rc.File) {
		zf := s.rc.File[s.pos]
		s.pos++

		segs := types.SplitPath(zf.Name)
		if len(segs) == 0 {
			continue
		}

		mode := zf.Mode()
		entry := types.Entry{
			Path: segs,
			Metadata: &types.Metadata{
				Size: int64(zf.UncompressedSize64),
				Mode: mode,
			},
		}
		switch {
		case mode&fs.ModeSymlink != 0:
			entry.Kind = types.Symlink
			entry.Metadata.LinkTarget = s.readLinkTarget(zf)
		case mode.IsDir():
			entry.Kind = types.Directory
		case mode.IsRegular():
			entry.Kind = types.RegularFile
		default:
			entry.Kind = types.Other
		}
		return entry, nil
	}
	return types.Entry{}, io.EOF
}

// readLinkTarget reads a symlink member's content, which is the target
// path in zip's encoding. Failures degrade to an empty target.
func (s *zipSource) readLinkTarget(zf *zip.File) string {
	r, err := zf.Open()
	if err != nil {
		return ""
	}
	defer r.Close()
	target, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return string(target)
}

// Close implements Source; it is safe to call repeatedly.
func (s *zipSource) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}
