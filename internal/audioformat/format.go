// Package audioformat describes the PCM layout of a stream of decoded
// samples: sample rate, channel count and sample representation.
package audioformat

import "fmt"

// SampleFormat identifies how a single sample is represented in memory.
type SampleFormat int

const (
	SampleFormatUndefined SampleFormat = iota
	SampleFormatS8
	SampleFormatS16
	SampleFormatS24
	SampleFormatS32
	SampleFormatF32
	SampleFormatDSD
)

func (f SampleFormat) bytes() int {
	switch f {
	case SampleFormatS8:
		return 1
	case SampleFormatS16:
		return 2
	case SampleFormatS24, SampleFormatS32, SampleFormatF32:
		return 4
	case SampleFormatDSD:
		return 1
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatS8:
		return "s8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS24:
		return "s24"
	case SampleFormatS32:
		return "s32"
	case SampleFormatF32:
		return "f32"
	case SampleFormatDSD:
		return "dsd"
	default:
		return "undefined"
	}
}

const (
	minSampleRate = 4000
	maxSampleRate = 192000
	maxChannels   = 8
)

// Format is an immutable description of a PCM stream's layout.
type Format struct {
	SampleRate uint32
	Channels   uint8
	Sample     SampleFormat
}

// Defined reports whether every field has been set to a non-zero value.
func (f Format) Defined() bool {
	return f.SampleRate != 0 && f.Channels != 0 && f.Sample != SampleFormatUndefined
}

// Valid reports whether a Defined format also falls within the ranges
// this module accepts for decoding.
func (f Format) Valid() bool {
	return f.SampleRate >= minSampleRate && f.SampleRate <= maxSampleRate &&
		f.Channels >= 1 && f.Channels <= maxChannels
}

// FrameSize is the number of bytes occupied by one sample across all
// channels.
func (f Format) FrameSize() int {
	return int(f.Channels) * f.Sample.bytes()
}

// BytesPerSecond is the data rate implied by this format.
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * f.FrameSize()
}

// Equals reports whether two formats describe the same PCM layout.
func (f Format) Equals(other Format) bool {
	return f == other
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz:%s:%dch", f.SampleRate, f.Sample, f.Channels)
}

// DurationToSize converts a duration (in seconds) to a byte count for
// this format, rounded down to a whole number of frames.
func (f Format) DurationToSize(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	frames := int64(seconds * float64(f.SampleRate))
	return frames * int64(f.FrameSize())
}
