// Package playlist implements stored playlists: named, ordered lists
// of song paths/URLs persisted as one file per playlist. This is a Go
// reworking of original_source/src/stored_playlist.c's spl_* family,
// with the original's linked List replaced by a plain slice (spl_*
// only ever walks it front-to-back or indexes it, a slice does both
// without the original's manual doubly-linked bookkeeping) and GLib
// error numbers replaced by a small Result enum.
package playlist

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundwell/melodyd/internal/catalog"
)

// Result mirrors enum playlist_result.
type Result int

const (
	Success Result = iota
	ErrnoResult
	NoSuchList
	ListExists
	BadName
	BadRange
	TooLarge
	NoSuchSong
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ErrnoResult:
		return "errno"
	case NoSuchList:
		return "no such list"
	case ListExists:
		return "list exists"
	case BadName:
		return "bad name"
	case BadRange:
		return "bad range"
	case TooLarge:
		return "too large"
	case NoSuchSong:
		return "no such song"
	default:
		return "unknown"
	}
}

// MaxLength bounds how many entries a single playlist may hold,
// mirroring playlist_max_length.
const MaxLength = 16384

const fileSuffix = ".m3u"
const commentPrefix = "#"

// Store manages stored playlist files under one directory.
type Store struct {
	dir     string
	catalog *catalog.Catalog
}

// NewStore creates a Store rooted at dir. The directory must already
// exist.
func NewStore(dir string, cat *catalog.Catalog) *Store {
	return &Store{dir: dir, catalog: cat}
}

func isValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "\n/\\") && name != "." && name != ".."
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileSuffix)
}

// Info describes one stored playlist, as returned by List.
type Info struct {
	Name    string
	ModTime int64
}

// List enumerates every stored playlist, mirroring spl_list.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("playlist: list %s: %w", s.dir, err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Name:    strings.TrimSuffix(e.Name(), fileSuffix),
			ModTime: info.ModTime().Unix(),
		})
	}
	return out, nil
}

// Load reads a stored playlist's entries, mirroring spl_load: a remote
// URL line is kept verbatim, a local-path line is resolved through the
// catalog to the URL db_get_song would have returned, and an
// unresolvable local path is silently skipped rather than aborting the
// whole load.
func (s *Store) Load(name string) ([]string, Result) {
	if !isValidName(name) {
		return nil, BadName
	}

	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NoSuchList
		}
		return nil, ErrnoResult
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		if isRemoteURL(line) {
			urls = append(urls, line)
		} else if s.catalog != nil {
			sng, err := s.catalog.GetSong(context.Background(), line)
			if err != nil || sng == nil {
				continue
			}
			urls = append(urls, sng.URL)
		}

		if len(urls) >= MaxLength {
			break
		}
	}

	return urls, Success
}

func isRemoteURL(s string) bool {
	return strings.Contains(s, "://")
}

// Save writes entries verbatim to name's playlist file, mirroring
// spl_save.
func (s *Store) Save(name string, entries []string) Result {
	if !isValidName(name) {
		return BadName
	}

	f, err := os.Create(s.path(name))
	if err != nil {
		return ErrnoResult
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		fmt.Fprintln(w, e)
	}
	if err := w.Flush(); err != nil {
		return ErrnoResult
	}
	return Success
}

// AppendSong implements spl_append_song: append one entry, refusing if
// the playlist file would exceed the size bound that protects against
// unbounded growth.
func (s *Store) AppendSong(name, url string) Result {
	if !isValidName(name) {
		return BadName
	}

	entries, result := s.Load(name)
	if result != Success && result != NoSuchList {
		return result
	}
	if len(entries) >= MaxLength {
		return TooLarge
	}

	entries = append(entries, url)
	return s.Save(name, entries)
}

// RemoveIndex implements spl_remove_index: remove the entry at pos.
func (s *Store) RemoveIndex(name string, pos int) Result {
	entries, result := s.Load(name)
	if result != Success {
		return result
	}
	if pos < 0 || pos >= len(entries) {
		return BadRange
	}

	entries = append(entries[:pos], entries[pos+1:]...)
	return s.Save(name, entries)
}

// MoveIndex implements spl_move_index: move the entry at src to dest,
// shifting the entries between them.
func (s *Store) MoveIndex(name string, src, dest int) Result {
	entries, result := s.Load(name)
	if result != Success {
		return result
	}
	if src < 0 || dest < 0 || src >= len(entries) || dest >= len(entries) || src == dest {
		return BadRange
	}

	moved := entries[src]
	entries = append(entries[:src], entries[src+1:]...)
	entries = append(entries[:dest], append([]string{moved}, entries[dest:]...)...)

	return s.Save(name, entries)
}

// Rename implements spl_rename.
func (s *Store) Rename(from, to string) Result {
	if !isValidName(from) || !isValidName(to) {
		return BadName
	}

	if _, err := os.Stat(s.path(from)); err != nil {
		return NoSuchList
	}
	if _, err := os.Stat(s.path(to)); err == nil {
		return ListExists
	}

	if err := os.Rename(s.path(from), s.path(to)); err != nil {
		return ErrnoResult
	}
	return Success
}

// Delete removes a stored playlist entirely.
func (s *Store) Delete(name string) Result {
	if !isValidName(name) {
		return BadName
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return NoSuchList
		}
		return ErrnoResult
	}
	return Success
}
