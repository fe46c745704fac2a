// Package chunk implements the fixed-capacity PCM buffer that is the
// unit of transfer between the decoder thread and the player thread.
package chunk

import (
	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/tag"
)

// Size is the implementation-chosen capacity of one chunk, in bytes.
const Size = 4096

// Chunk is a fixed-capacity PCM buffer. All bytes in Data[:Length] share
// one Format and one ReplayGainSerial; that invariant is maintained by
// callers (Write/Expand never change Format mid-chunk); neither Chunk
// nor the decoder-side API checks it.
type Chunk struct {
	Data             [Size]byte
	Length           int
	Format           audioformat.Format
	Timestamp        float64 // seconds since song start
	BitrateKbps      uint16
	Tag              *tag.Tag
	ReplayGainSerial uint32
}

// Reset clears a chunk so it can be reused from the pool.
func (c *Chunk) Reset() {
	c.Length = 0
	c.Format = audioformat.Format{}
	c.Timestamp = 0
	c.BitrateKbps = 0
	c.Tag = nil
	c.ReplayGainSerial = 0
}

// Write prepares to append PCM data to the chunk. It returns the
// writable tail slice and true, or (nil, false) if the chunk is full.
// The format and replay-gain epoch are stamped on first write to an
// empty chunk; callers must flush before writing a different format or
// epoch into a chunk that already has data.
func (c *Chunk) Write(format audioformat.Format, timestamp float64, bitrateKbps uint16, serial uint32) ([]byte, bool) {
	if c.Length >= Size {
		return nil, false
	}
	if c.Length == 0 {
		c.Format = format
		c.Timestamp = timestamp
		c.BitrateKbps = bitrateKbps
		c.ReplayGainSerial = serial
	}
	return c.Data[c.Length:], true
}

// Expand records that n bytes were copied into the slice returned by
// Write, and reports whether the chunk is now full.
func (c *Chunk) Expand(n int) bool {
	c.Length += n
	return c.Length >= Size
}

// Remaining is the number of bytes still free in the chunk.
func (c *Chunk) Remaining() int {
	return Size - c.Length
}

// Empty reports whether the chunk carries no PCM data (it may still
// carry a Tag).
func (c *Chunk) Empty() bool {
	return c.Length == 0
}
