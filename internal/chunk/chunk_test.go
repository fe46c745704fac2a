package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundwell/melodyd/internal/audioformat"
)

var testFormat = audioformat.Format{SampleRate: 44100, Channels: 2, Sample: audioformat.SampleFormatS16}

func TestChunk_WriteExpand(t *testing.T) {
	var c Chunk

	buf, ok := c.Write(testFormat, 1.5, 128, 7)
	require.True(t, ok)
	require.NotEmpty(t, buf)

	n := copy(buf, []byte{1, 2, 3, 4})
	full := c.Expand(n)

	assert.False(t, full)
	assert.Equal(t, 4, c.Length)
	assert.Equal(t, testFormat, c.Format)
	assert.Equal(t, 1.5, c.Timestamp)
	assert.Equal(t, uint16(128), c.BitrateKbps)
	assert.Equal(t, uint32(7), c.ReplayGainSerial)
}

func TestChunk_WriteDoesNotRestampAfterFirstWrite(t *testing.T) {
	var c Chunk

	buf, _ := c.Write(testFormat, 1.0, 0, 1)
	c.Expand(copy(buf, []byte{1, 2}))

	other := audioformat.Format{SampleRate: 48000, Channels: 2, Sample: audioformat.SampleFormatS16}
	buf, ok := c.Write(other, 9.0, 0, 9)
	require.True(t, ok)
	c.Expand(copy(buf, []byte{3, 4}))

	// Write only stamps metadata when Length == 0 on entry; a second
	// write into a non-empty chunk must not silently change its format.
	assert.Equal(t, testFormat, c.Format)
	assert.Equal(t, 1.0, c.Timestamp)
}

func TestChunk_WriteFullReturnsFalse(t *testing.T) {
	var c Chunk
	buf, ok := c.Write(testFormat, 0, 0, 0)
	require.True(t, ok)
	c.Expand(len(buf))

	assert.Equal(t, Size, c.Length)
	assert.Equal(t, 0, c.Remaining())

	_, ok = c.Write(testFormat, 0, 0, 0)
	assert.False(t, ok)
}

func TestChunk_ExpandReportsFull(t *testing.T) {
	var c Chunk
	buf, _ := c.Write(testFormat, 0, 0, 0)
	full := c.Expand(len(buf))
	assert.True(t, full)
}

func TestChunk_Empty(t *testing.T) {
	var c Chunk
	assert.True(t, c.Empty())

	buf, _ := c.Write(testFormat, 0, 0, 0)
	c.Expand(copy(buf, []byte{1}))
	assert.False(t, c.Empty())
}

func TestChunk_Reset(t *testing.T) {
	var c Chunk
	buf, _ := c.Write(testFormat, 1, 128, 3)
	c.Expand(copy(buf, []byte{1, 2, 3}))
	c.Tag = nil

	c.Reset()

	assert.Equal(t, 0, c.Length)
	assert.Equal(t, audioformat.Format{}, c.Format)
	assert.Equal(t, 0.0, c.Timestamp)
	assert.Equal(t, uint16(0), c.BitrateKbps)
	assert.Nil(t, c.Tag)
	assert.Equal(t, uint32(0), c.ReplayGainSerial)
}
