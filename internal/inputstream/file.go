package inputstream

import (
	"io"
	"os"

	"github.com/soundwell/melodyd/internal/tag"
)

// FileStream is a Stream backed by a local, seekable file.
type FileStream struct {
	f      *os.File
	size   int64
	offset int64
	eof    bool
	mime   string
}

// OpenFile opens path as a seekable input stream.
func OpenFile(path, mime string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileStream{f: f, size: info.Size(), mime: mime}, nil
}

func (s *FileStream) Read(buf []byte) (int, error) {
	n, err := s.f.Read(buf)
	s.offset += int64(n)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

func (s *FileStream) Seek(offset int64) (bool, error) {
	pos, err := s.f.Seek(offset, io.SeekStart)
	if err != nil {
		return false, err
	}
	s.offset = pos
	s.eof = false
	return true, nil
}

func (s *FileStream) Seekable() bool { return true }
func (s *FileStream) Size() int64    { return s.size }
func (s *FileStream) Offset() int64  { return s.offset }
func (s *FileStream) EOF() bool      { return s.eof }
func (s *FileStream) MIME() string   { return s.mime }
func (s *FileStream) Tag() *tag.Tag  { return nil }
func (s *FileStream) Close() error   { return s.f.Close() }
