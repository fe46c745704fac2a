// Package archive implements the plugin.ArchivePlugin contract with a
// directory-manifest-backed archive: the "archive file" is really a
// directory containing a manifest.yaml that lists entry names and
// their backing file paths. Real ISO-9660 parsing is explicitly out of
// scope (spec.md's archive module names it only as a contract); this
// implementation exists solely to give that interface a working, if
// trivial, backing so it is exercised end to end.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soundwell/melodyd/internal/inputstream"
	"github.com/soundwell/melodyd/internal/plugin"
)

// Plugin is the plugin.ArchivePlugin implementation for manifest-backed
// directory archives.
type Plugin struct{}

var (
	_ plugin.ArchivePlugin = (*Plugin)(nil)
	_ plugin.Archive       = (*Archive)(nil)
)

// New returns a manifest-archive plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string       { return "manifest" }
func (p *Plugin) Suffixes() []string { return []string{"manifest"} }

// Open reads archivePath/manifest.yaml and returns a handle over the
// entries it names.
func (p *Plugin) Open(archivePath string) (plugin.Archive, error) {
	raw, err := os.ReadFile(filepath.Join(archivePath, "manifest.yaml"))
	if err != nil {
		return nil, fmt.Errorf("archive: read manifest: %w", err)
	}

	var doc manifest
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("archive: parse manifest: %w", err)
	}

	entries := make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		entries[e.Name] = filepath.Join(archivePath, e.Path)
	}

	return &Archive{root: archivePath, entries: entries}, nil
}

type manifest struct {
	Entries []manifestEntry `yaml:"entries"`
}

type manifestEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	MIME string `yaml:"mime"`
}

// Archive is an open manifest-backed archive.
type Archive struct {
	root    string
	entries map[string]string
}

// List returns every entry name declared in the manifest.
func (a *Archive) List() ([]string, error) {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	return names, nil
}

// OpenEntry opens the file backing entryPath as a seekable Stream.
func (a *Archive) OpenEntry(entryPath string) (inputstream.Stream, error) {
	target, ok := a.entries[entryPath]
	if !ok {
		return nil, fmt.Errorf("archive: no such entry %q", entryPath)
	}

	mime := ""
	if idx := strings.LastIndexByte(target, '.'); idx >= 0 {
		mime = mimeForSuffix(target[idx+1:])
	}
	return inputstream.OpenFile(target, mime)
}

func (a *Archive) Close() error { return nil }

func mimeForSuffix(suffix string) string {
	switch strings.ToLower(suffix) {
	case "mp3":
		return "audio/mpeg"
	default:
		return ""
	}
}
