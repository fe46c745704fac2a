package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/chunk"
)

func TestPipe_PushShiftOrder(t *testing.T) {
	p := New()
	a, b := &chunk.Chunk{Length: 1}, &chunk.Chunk{Length: 2}

	p.Push(a)
	p.Push(b)
	assert.Equal(t, 2, p.Len())

	assert.Same(t, a, p.Peek())
	assert.Same(t, a, p.Shift())
	assert.Same(t, b, p.Shift())
	assert.Nil(t, p.Shift())
}

func TestPipe_Clear(t *testing.T) {
	p := New()
	buf := buffer.New(2)
	c1, c2 := buf.Acquire(), buf.Acquire()
	p.Push(c1)
	p.Push(c2)
	require.Equal(t, 2, buf.Allocated())

	Clear(p, buf)

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, buf.Allocated())
}
