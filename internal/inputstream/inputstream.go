// Package inputstream defines the abstract byte source a format plugin
// decodes from, plus two concrete implementations: a local file and an
// HTTP-backed buffered stream.
package inputstream

import (
	"io"

	"github.com/soundwell/melodyd/internal/tag"
)

// Stream is the input stream plugin contract from spec.md §6: a byte
// source with optional seek, EOF and tag-snapshot support.
type Stream interface {
	io.Closer

	// Read behaves like io.Reader.Read: a decoder plugin calls through
	// decoder.Read (see internal/decoder/api.go), which wraps this with
	// the command-aware polling/retry loop from §4.2.
	Read(buf []byte) (n int, err error)

	// Seek repositions the stream. ok is false if the stream is not
	// seekable or the seek failed.
	Seek(offset int64) (ok bool, err error)

	// Seekable reports whether Seek can be attempted at all.
	Seekable() bool

	// Size returns the stream's total size, or -1 if unknown.
	Size() int64

	// Offset returns the current read position.
	Offset() int64

	// EOF reports whether the stream has been read to its end.
	EOF() bool

	// Tag returns a freshly observed tag snapshot (e.g. a new ICY
	// metadata block), or nil if none is currently pending. Each
	// snapshot is returned at most once.
	Tag() *tag.Tag

	// MIME returns the stream's declared content type, if known.
	MIME() string
}
