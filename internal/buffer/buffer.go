// Package buffer implements the fixed-size object pool of chunks shared
// by a MusicPipe and its producer/consumer. The pool is guarded by a
// single mutex and has no condition variable: waiting for a free chunk
// is done by the decoder-side API (see Decoder.getChunk).
package buffer

import (
	"sync"

	"github.com/soundwell/melodyd/internal/chunk"
)

// Buffer is a thread-safe fixed-size pool of *chunk.Chunk.
type Buffer struct {
	mu        sync.Mutex
	free      []*chunk.Chunk
	capacity  int
	allocated int
}

// New creates a pool that can hold at most capacity chunks at once.
func New(capacity int) *Buffer {
	b := &Buffer{capacity: capacity}
	b.free = make([]*chunk.Chunk, 0, capacity)
	for i := 0; i < capacity; i++ {
		b.free = append(b.free, &chunk.Chunk{})
	}
	return b
}

// Acquire removes a chunk from the pool, or returns nil if none is
// available. It never blocks: the decoder-side API is responsible for
// the cooperative wait/command-poll loop (see Decoder.getChunk).
func (b *Buffer) Acquire() *chunk.Chunk {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.free) == 0 {
		return nil
	}
	n := len(b.free) - 1
	c := b.free[n]
	b.free = b.free[:n]
	b.allocated++
	c.Reset()
	return c
}

// Return gives a chunk back to the pool.
func (b *Buffer) Return(c *chunk.Chunk) {
	if c == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.Reset()
	b.free = append(b.free, c)
	b.allocated--
}

// Capacity returns the pool's total size.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Allocated returns the number of chunks currently checked out.
func (b *Buffer) Allocated() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allocated
}
