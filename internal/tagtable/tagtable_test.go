package tagtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundwell/melodyd/internal/tag"
)

func TestLookup_CaseInsensitiveCanonical(t *testing.T) {
	tbl := New()

	typ, ok := tbl.Lookup("ARTIST")
	require.True(t, ok)
	assert.Equal(t, tag.Artist, typ)

	typ, ok = tbl.Lookup("  Album_Artist  ")
	require.True(t, ok)
	assert.Equal(t, tag.AlbumArtist, typ)
}

func TestLookup_Unknown(t *testing.T) {
	tbl := New()
	_, ok := tbl.Lookup("not_a_real_tag")
	assert.False(t, ok)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	tbl, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	typ, ok := tbl.Lookup("artist")
	assert.True(t, ok)
	assert.Equal(t, tag.Artist, typ)
}

func TestLoad_AliasesResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	writeFile(t, path, `
aliases:
  album_artist:
    - albumartist
    - "band"
  track:
    - "tracknumber"
`)

	tbl, err := Load(path)
	require.NoError(t, err)

	typ, ok := tbl.Lookup("AlbumArtist")
	require.True(t, ok)
	assert.Equal(t, tag.AlbumArtist, typ)

	typ, ok = tbl.Lookup("band")
	require.True(t, ok)
	assert.Equal(t, tag.AlbumArtist, typ)

	typ, ok = tbl.Lookup("tracknumber")
	require.True(t, ok)
	assert.Equal(t, tag.Track, typ)
}

func TestLoad_UnknownCanonicalNameErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, `
aliases:
  not_a_real_type:
    - whatever
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSuggest_NearMissResolves(t *testing.T) {
	tbl := New()

	candidate, typ, ok := tbl.Suggest("artsit")
	require.True(t, ok)
	assert.Equal(t, "artist", candidate)
	assert.Equal(t, tag.Artist, typ)
}

func TestSuggest_UnrelatedNameRejected(t *testing.T) {
	tbl := New()
	_, _, ok := tbl.Suggest("xyzzyplugh")
	assert.False(t, ok)
}

func TestSuggest_EmptyName(t *testing.T) {
	tbl := New()
	_, _, ok := tbl.Suggest("   ")
	assert.False(t, ok)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
