package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/chunk"
	"github.com/soundwell/melodyd/internal/pipe"
)

var stereo = audioformat.Format{SampleRate: 48000, Channels: 2, Sample: audioformat.SampleFormatS16}

// pushSamples writes n interleaved stereo S16 frames of the given
// amplitude into a fresh chunk and pushes it onto p.
func pushSamples(p *pipe.Pipe, n int, amplitude int16) {
	c := &chunk.Chunk{Format: stereo, Length: n * stereo.FrameSize()}
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			idx := i*stereo.FrameSize() + ch*2
			c.Data[idx] = byte(amplitude)
			c.Data[idx+1] = byte(amplitude >> 8)
		}
	}
	p.Push(c)
}

// TestPlayer_NextFrameDecodesS16ToFloat32 checks the core PCM
// conversion nextFrame performs for the PortAudio callback: S16 samples
// map linearly into [-1, 1).
func TestPlayer_NextFrameDecodesS16ToFloat32(t *testing.T) {
	buf := buffer.New(4)
	p := pipe.New()
	pushSamples(p, 2, 16384) // half-scale positive amplitude

	pl := New(nil, buf, p, false)

	frame, ok := pl.nextFrame()
	require.True(t, ok)
	require.Len(t, frame, 2)
	assert.InDelta(t, float32(16384)/32768.0, frame[0], 1e-6)
	assert.InDelta(t, float32(16384)/32768.0, frame[1], 1e-6)

	frame, ok = pl.nextFrame()
	require.True(t, ok)
	assert.InDelta(t, float32(16384)/32768.0, frame[0], 1e-6)

	_, ok = pl.nextFrame()
	assert.False(t, ok, "pipe is exhausted after two frames")
}

// TestPlayer_NextFrameAdvancesAcrossChunks checks that exhausting one
// chunk pulls the next one from the pipe rather than stalling.
func TestPlayer_NextFrameAdvancesAcrossChunks(t *testing.T) {
	buf := buffer.New(4)
	p := pipe.New()
	pushSamples(p, 1, 100)
	pushSamples(p, 1, 200)

	pl := New(nil, buf, p, false)

	first, ok := pl.nextFrame()
	require.True(t, ok)
	assert.InDelta(t, float32(100)/32768.0, first[0], 1e-6)

	second, ok := pl.nextFrame()
	require.True(t, ok)
	assert.InDelta(t, float32(200)/32768.0, second[0], 1e-6)
}

// TestPlayer_AdvanceReturnsExhaustedChunkToBuffer checks that a fully
// consumed chunk is returned to the pool rather than leaked.
func TestPlayer_AdvanceReturnsExhaustedChunkToBuffer(t *testing.T) {
	buf := buffer.New(1)
	p := pipe.New()
	c := buf.Acquire()
	dest, _ := c.Write(stereo, 0, 0, 0)
	c.Expand(copy(dest, []byte{1, 0, 1, 0}))
	p.Push(c)

	pl := New(nil, buf, p, false)

	_, ok := pl.nextFrame()
	require.True(t, ok)

	assert.Equal(t, 1, buf.Allocated(), "the chunk being played is still checked out")
	pl.advance()
	assert.Equal(t, 0, buf.Allocated(), "the exhausted chunk returns to the pool, not the one just acquired from it")
}

// TestPlayer_AdvanceSkipsEmptyChunks checks that a tag-only chunk
// (Length == 0) is skipped rather than stalling playback, matching
// Chunk.Empty's contract.
func TestPlayer_AdvanceSkipsEmptyChunks(t *testing.T) {
	buf := buffer.New(4)
	p := pipe.New()
	p.Push(&chunk.Chunk{Format: stereo, Length: 0})
	pushSamples(p, 1, 42)

	pl := New(nil, buf, p, false)

	frame, ok := pl.nextFrame()
	require.True(t, ok)
	assert.InDelta(t, float32(42)/32768.0, frame[0], 1e-6)
}

// TestPlayer_NextFrameEmptyPipeReportsNotOK checks the underrun path:
// no chunk available yet is reported as ok == false, not a panic or a
// spuriously zeroed frame mistaken for silence with data.
func TestPlayer_NextFrameEmptyPipeReportsNotOK(t *testing.T) {
	buf := buffer.New(4)
	p := pipe.New()
	pl := New(nil, buf, p, false)

	_, ok := pl.nextFrame()
	assert.False(t, ok)
}
