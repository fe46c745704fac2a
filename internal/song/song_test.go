package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSong_StartSeconds(t *testing.T) {
	s := &Song{StartMs: 1500}
	assert.Equal(t, 1.5, s.StartSeconds())

	var nilSong *Song
	assert.Equal(t, 0.0, nilSong.StartSeconds())
}

func TestSong_EndSeconds(t *testing.T) {
	s := &Song{EndMs: 2000}
	assert.Equal(t, 2.0, s.EndSeconds())

	unset := &Song{}
	assert.Equal(t, 0.0, unset.EndSeconds())

	var nilSong *Song
	assert.Equal(t, 0.0, nilSong.EndSeconds())
}
