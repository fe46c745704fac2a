// Package replaygain computes the gain (in dB) a decoder should report
// for a song, and hands out the process-wide epoch serial that chunks
// use to detect a gain change mid-stream.
//
// This mirrors decoder_replay_gain() in original_source/src/decoder_api.c:
// the serial is a global, monotonically increasing, never-zero counter;
// a null Info resets the serial to 0 instead of advancing it.
package replaygain

import (
	"math"
	"sync/atomic"
)

// Mode selects which of a track's two gain tuples decoder_replay_gain
// applies.
type Mode int

const (
	ModeOff Mode = iota
	ModeTrack
	ModeAlbum
)

// Tuple is one replay-gain measurement: a dB gain plus the peak sample
// value observed while deriving it.
type Tuple struct {
	GainDb float64
	Peak   float64
	Valid  bool
}

// Scale returns the linear scale factor this tuple implies, applying
// preamp, the configured missing-preamp fallback, and a hard limit on
// peak overshoot — the same three knobs as replay_gain_tuple_scale in
// the original source.
func (t Tuple) Scale(preampDb, missingPreampDb float64, limit bool) float64 {
	if !t.Valid {
		return math.Pow(10, missingPreampDb/20)
	}

	scale := math.Pow(10, (t.GainDb+preampDb)/20)

	if limit && t.Peak > 0 {
		if scale*t.Peak > 1 {
			scale = 1 / t.Peak
		}
	}

	return scale
}

// Info is the pair of gain tuples a format plugin reports: one for the
// track, one for the containing album.
type Info struct {
	Track Tuple
	Album Tuple
}

func (i *Info) selected(mode Mode) Tuple {
	if i == nil {
		return Tuple{}
	}
	if mode == ModeAlbum && i.Album.Valid {
		return i.Album
	}
	return i.Track
}

// Config is the policy loaded from the replay-gain configuration file
// (YAML, see LoadConfigFile): which tuple to prefer, the preamp applied
// when a tuple is present, the preamp applied when it's missing, and
// whether to clamp scale so peak samples never clip.
type Config struct {
	Mode            Mode    `yaml:"mode"`
	PreampDb        float64 `yaml:"preamp_db"`
	MissingPreampDb float64 `yaml:"missing_preamp_db"`
	Limit           bool    `yaml:"limit"`
}

// DefaultConfig matches upstream MPD's defaults: off, no preamp,
// limiting on.
func DefaultConfig() Config {
	return Config{Mode: ModeOff, PreampDb: 0, MissingPreampDb: 0, Limit: true}
}

var serial uint32

// nextSerial advances the process-wide epoch counter, skipping 0 on
// wraparound so 0 can be reserved to mean "no replay gain in effect".
func nextSerial() uint32 {
	for {
		old := atomic.LoadUint32(&serial)
		next := old + 1
		if next == 0 {
			next = 1
		}
		if atomic.CompareAndSwapUint32(&serial, old, next) {
			return next
		}
	}
}

// Apply implements decoder_replay_gain: given an optional Info and the
// active Config, it returns the dB value to report and the serial that
// now identifies this gain epoch (0 if info is nil).
func Apply(cfg Config, info *Info) (gainDb float64, serial uint32) {
	if info == nil {
		return 0, 0
	}

	s := nextSerial()

	if cfg.Mode == ModeOff {
		return 0, s
	}

	tuple := info.selected(cfg.Mode)
	scale := tuple.Scale(cfg.PreampDb, cfg.MissingPreampDb, cfg.Limit)
	return 20 * math.Log10(scale), s
}
