// Package song holds the reference metadata the player thread owns and
// lends to the decoder for the duration of one session.
package song

import "github.com/soundwell/melodyd/internal/tag"

// Song is a song reference. The decoder borrows it for one session; it
// never mutates it.
type Song struct {
	URL      string
	StartMs  int64 // 0 = unset, play from the beginning
	EndMs    int64 // 0 = unset, play to the end
	Tag      *tag.Tag
	Seekable bool // declared by the catalog/archive, advisory only
}

// StartSeconds is StartMs converted to seconds.
func (s *Song) StartSeconds() float64 {
	if s == nil {
		return 0
	}
	return float64(s.StartMs) / 1000.0
}

// EndSeconds is EndMs converted to seconds, or 0 if unset.
func (s *Song) EndSeconds() float64 {
	if s == nil || s.EndMs <= 0 {
		return 0
	}
	return float64(s.EndMs) / 1000.0
}
