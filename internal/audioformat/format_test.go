package audioformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFormat_Defined(t *testing.T) {
	assert.False(t, Format{}.Defined())
	assert.False(t, Format{SampleRate: 44100}.Defined())
	assert.False(t, Format{SampleRate: 44100, Channels: 2}.Defined())
	assert.True(t, Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}.Defined())
}

func TestFormat_Valid(t *testing.T) {
	assert.True(t, Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}.Valid())
	assert.False(t, Format{SampleRate: 1000, Channels: 2, Sample: SampleFormatS16}.Valid())
	assert.False(t, Format{SampleRate: 44100, Channels: 0, Sample: SampleFormatS16}.Valid())
	assert.False(t, Format{SampleRate: 44100, Channels: 9, Sample: SampleFormatS16}.Valid())
}

func TestFormat_FrameSize(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}
	assert.Equal(t, 4, f.FrameSize())

	mono := Format{SampleRate: 44100, Channels: 1, Sample: SampleFormatS16}
	assert.Equal(t, 2, mono.FrameSize())
}

func TestFormat_BytesPerSecond(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}
	assert.Equal(t, 44100*4, f.BytesPerSecond())
}

func TestFormat_DurationToSize(t *testing.T) {
	f := Format{SampleRate: 1000, Channels: 2, Sample: SampleFormatS16}
	assert.Equal(t, int64(0), f.DurationToSize(0))
	assert.Equal(t, int64(0), f.DurationToSize(-1))
	assert.Equal(t, int64(4000), f.DurationToSize(1))
}

func TestFormat_DurationToSize_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.Uint32Range(4000, 192000).Draw(t, "rate")
		channels := rapid.IntRange(1, 8).Draw(t, "channels")
		sample := rapid.SampledFrom([]SampleFormat{SampleFormatS8, SampleFormatS16, SampleFormatS24, SampleFormatS32}).Draw(t, "sample")
		seconds := rapid.Float64Range(-10, 10).Draw(t, "seconds")

		f := Format{SampleRate: rate, Channels: uint8(channels), Sample: sample}
		size := f.DurationToSize(seconds)

		assert.GreaterOrEqual(t, size, int64(0))
		if seconds <= 0 {
			assert.Equal(t, int64(0), size)
		}
	})
}

func TestFormat_Equals(t *testing.T) {
	a := Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}
	b := Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}
	c := Format{SampleRate: 48000, Channels: 2, Sample: SampleFormatS16}

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestFormat_String(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, Sample: SampleFormatS16}
	assert.Equal(t, "44100Hz:s16:2ch", f.String())
}
