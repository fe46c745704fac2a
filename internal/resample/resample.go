// Package resample wraps the PCM sample-rate/channel converter spec.md
// treats as a pure function: given bytes in one AudioFormat, produce
// bytes in another. It is backed by
// github.com/tphakala/go-audio-resampling, the same converter
// haivivi-giztoy's pkg/audio/resampler wraps.
package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/soundwell/melodyd/internal/audioformat"
)

// Converter holds the state needed to resample a continuous stream of
// PCM frames from one format to another. A Converter is created once
// per decode session and fed successive buffers; decoder_data in
// original_source/src/decoder_api.c keeps exactly this kind of
// conv_state alive across calls.
type Converter struct {
	src, dst audioformat.Format
	r        resampling.Resampler
	needed   bool
}

// NewConverter builds a Converter from src to dst. Both formats must be
// Valid. Only sample-rate conversion is modeled; channel/sample-width
// conversion is out of scope for this subsystem (the plugin is
// responsible for producing dst's channel count and bit depth).
func NewConverter(src, dst audioformat.Format) (*Converter, error) {
	c := &Converter{src: src, dst: dst, needed: src.SampleRate != dst.SampleRate}
	if !c.needed {
		return c, nil
	}

	cfg := &resampling.Config{
		InputRate:  float64(src.SampleRate),
		OutputRate: float64(dst.SampleRate),
		Channels:   int(dst.Channels),
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	r, err := resampling.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("resample: create converter: %w", err)
	}
	c.r = r
	return c, nil
}

// Convert resamples one buffer of src-format PCM (s16 samples, the only
// width go-audio-resampling accepts) into dst-format PCM. If no
// conversion is needed it returns data unchanged.
func (c *Converter) Convert(data []byte) ([]byte, error) {
	if !c.needed {
		return data, nil
	}

	frameBytes := 2 * int(c.dst.Channels)
	n := len(data) / frameBytes
	input := make([]float64, n*int(c.dst.Channels))
	for i := 0; i < n*int(c.dst.Channels); i++ {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		input[i] = float64(s) / 32768.0
	}

	output, err := c.r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample: process: %w", err)
	}

	out := make([]byte, len(output)*2)
	for i, v := range output {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out, nil
}

// SelectOutputFormat implements getOutputAudioFormat: the policy a
// format plugin's declared input format is converted to before
// reaching the pipe. This module's policy is the simplest one MPD
// supports — pass the input through unchanged unless the caller pins a
// specific output format (e.g. the audio sink demands a fixed rate).
func SelectOutputFormat(in audioformat.Format, pinned *audioformat.Format) audioformat.Format {
	if pinned != nil && pinned.Defined() {
		return *pinned
	}
	return in
}
