// Package tagtable resolves the free-form tag names a format plugin or
// a playlist file reports (e.g. "ALBUMARTIST", "track number") to the
// fixed tag.Type enum. It loads an operator-editable alias file. Lookup
// only matches exact canonical names and aliases; Suggest is a separate
// fuzzy, Levenshtein-distance match in the style of the teacher's
// internal/search fuzzy scoring, for callers that want a near-miss
// spelling resolved when Lookup finds nothing.
package tagtable

import (
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/soundwell/melodyd/internal/tag"
)

// Table is a case-insensitive name -> tag.Type resolver.
type Table struct {
	canonical map[string]tag.Type // lowercase canonical name -> type
	aliases   map[string]tag.Type // lowercase alias -> type
}

var defaultNames = map[string]tag.Type{
	"artist":       tag.Artist,
	"album":        tag.Album,
	"title":        tag.Title,
	"track":        tag.Track,
	"name":         tag.Name,
	"genre":        tag.Genre,
	"date":         tag.Date,
	"composer":     tag.Composer,
	"performer":    tag.Performer,
	"comment":      tag.Comment,
	"disc":         tag.Disc,
	"album_artist": tag.AlbumArtist,
}

// New returns a Table with only the built-in canonical names, no
// aliases loaded.
func New() *Table {
	return &Table{canonical: defaultNames, aliases: map[string]tag.Type{}}
}

// aliasFile is the on-disk shape of the alias file: canonical name ->
// list of alternate spellings it should also match.
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// Load builds a Table from the built-in names plus the alias file at
// path. A missing file is not an error: it behaves like New().
func Load(path string) (*Table, error) {
	t := New()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("tagtable: read %s: %w", path, err)
	}

	var doc aliasFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("tagtable: parse %s: %w", path, err)
	}

	for canonicalName, spellings := range doc.Aliases {
		typ, ok := t.canonical[strings.ToLower(canonicalName)]
		if !ok {
			return nil, fmt.Errorf("tagtable: alias file names unknown canonical type %q", canonicalName)
		}
		for _, alias := range spellings {
			t.aliases[strings.ToLower(alias)] = typ
		}
	}

	return t, nil
}

// Lookup resolves name to a tag.Type via an exact canonical or alias
// match, case-insensitively.
func (t *Table) Lookup(name string) (tag.Type, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if typ, ok := t.canonical[key]; ok {
		return typ, true
	}
	if typ, ok := t.aliases[key]; ok {
		return typ, true
	}
	return 0, false
}

// Suggest returns the closest canonical or alias name to name, by
// Levenshtein distance, along with the type it would resolve to. It
// returns ok=false if nothing is within half the input's length, the
// same threshold the teacher's fuzzy search engine uses to reject
// unrelated matches.
func (t *Table) Suggest(name string) (candidate string, typ tag.Type, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", 0, false
	}

	bestDistance := -1
	threshold := len(key) / 2
	if threshold < 1 {
		threshold = 1
	}

	consider := func(candidateName string, candidateType tag.Type) {
		d := fuzzy.LevenshteinDistance(key, candidateName)
		if d <= threshold && (bestDistance == -1 || d < bestDistance) {
			bestDistance = d
			candidate = candidateName
			typ = candidateType
			ok = true
		}
	}

	for n, nt := range t.canonical {
		consider(n, nt)
	}
	for n, nt := range t.aliases {
		consider(n, nt)
	}

	return candidate, typ, ok
}
