// Package plugin declares the archive and format plugin contracts
// spec.md §6 describes. FormatPlugin itself lives in internal/decoder
// (decoder.FormatPlugin) since it is defined in terms of *Decoder and
// putting it here would create an import cycle; this package holds
// ArchivePlugin, which has no such dependency, plus the mp3 and
// archive subpackages that implement these contracts.
package plugin

import (
	"github.com/soundwell/melodyd/internal/inputstream"
)

// ArchivePlugin exposes a virtual filesystem nested inside a single
// archive file, so a song URL can name a path inside it (e.g. an
// ISO-9660 image on a shared volume). See internal/plugin/archive for
// the one concrete implementation this module ships.
type ArchivePlugin interface {
	// Name identifies the plugin, e.g. "iso9660".
	Name() string

	// Suffixes lists the archive file extensions this plugin claims.
	Suffixes() []string

	// Open opens the archive at archivePath and returns a handle that
	// can list and open entries inside it.
	Open(archivePath string) (Archive, error)
}

// Archive is an open archive, as returned by ArchivePlugin.Open.
type Archive interface {
	// List returns every entry path inside the archive.
	List() ([]string, error)

	// OpenEntry opens one entry as a Stream. entryPath must be one of
	// the paths returned by List.
	OpenEntry(entryPath string) (inputstream.Stream, error)

	Close() error
}
