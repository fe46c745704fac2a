// Package pipe implements the bounded, single-producer/single-consumer
// FIFO of chunks shared between the decoder thread (producer) and the
// player thread (consumer).
package pipe

import (
	"sync"

	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/chunk"
)

// Pipe is a bounded FIFO of *chunk.Chunk. Push is called only by the
// decoder thread; Peek/Shift only by the player thread. The mutex here
// guards the queue itself, not the DecoderControl state machine.
type Pipe struct {
	mu    sync.Mutex
	items []*chunk.Chunk
}

// New creates an empty pipe.
func New() *Pipe {
	return &Pipe{}
}

// Push enqueues a chunk. Once pushed, the chunk is owned by the pipe
// until the player Shifts it back out and eventually returns it to the
// buffer.
func (p *Pipe) Push(c *chunk.Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, c)
}

// Peek returns the head of the queue without removing it, or nil if
// empty.
func (p *Pipe) Peek() *chunk.Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		return nil
	}
	return p.items[0]
}

// Shift removes and returns the head of the queue, or nil if empty.
func (p *Pipe) Shift() *chunk.Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.items) == 0 {
		return nil
	}
	c := p.items[0]
	p.items = p.items[1:]
	return c
}

// Len reports the number of chunks currently queued.
func (p *Pipe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Clear drains every chunk in the pipe back to buf. Used when a SEEK
// discards everything decoded before the seek target, and when a
// session ends.
func Clear(p *Pipe, buf *buffer.Buffer) {
	p.mu.Lock()
	items := p.items
	p.items = nil
	p.mu.Unlock()

	for _, c := range items {
		buf.Return(c)
	}
}
