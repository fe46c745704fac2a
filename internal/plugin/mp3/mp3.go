// Package mp3 implements the MP3 format plugin using
// github.com/gopxl/beep/mp3, the same decoder the teacher's
// internal/audio player used for on-disk playback.
package mp3

import (
	"time"

	"github.com/gopxl/beep/mp3"

	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/decoder"
	"github.com/soundwell/melodyd/internal/inputstream"
)

// Plugin is the decoder.FormatPlugin for MP3 streams.
type Plugin struct{}

var _ decoder.FormatPlugin = (*Plugin)(nil)

// New returns an MP3 format plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string        { return "mp3" }
func (p *Plugin) Suffixes() []string  { return []string{"mp3"} }
func (p *Plugin) MIMETypes() []string { return []string{"audio/mpeg", "audio/mp3"} }

// Decode drives one MP3 decode session: it opens a beep mp3 decoder
// over stream, reports the format via Initialized, then loops reading
// fixed-size sample batches, converting them to interleaved S16 PCM,
// and handing them to d.Data, polling d.GetCommand for SEEK/STOP on
// every iteration the way original_source/src/decoder/mp3_decoder_plugin.c
// polls decoder_get_command inside its frame loop.
func (p *Plugin) Decode(d *decoder.Decoder, stream inputstream.Stream) error {
	streamer, format, err := mp3.Decode(stream)
	if err != nil {
		return err
	}
	defer streamer.Close()

	inFormat := audioformat.Format{
		SampleRate: uint32(format.SampleRate),
		Channels:   uint8(format.NumChannels),
		Sample:     audioformat.SampleFormatS16,
	}

	totalTime := 0.0
	if n := streamer.Len(); n > 0 {
		totalTime = format.SampleRate.D(n).Seconds()
	}

	d.Initialized(inFormat, stream.Seekable(), totalTime)

	samples := make([][2]float64, 4096)
	pcm := make([]byte, 0, len(samples)*4)

	for {
		switch d.GetCommand() {
		case decoder.CommandStop:
			return nil
		case decoder.CommandSeek:
			where := d.SeekWhere()
			pos := format.SampleRate.N(time.Duration(where * float64(time.Second)))
			if seekErr := streamer.Seek(pos); seekErr != nil {
				d.SeekError()
			}
			d.CommandFinished()
			continue
		}

		n, ok := streamer.Stream(samples)
		if n > 0 {
			pcm = pcm[:0]
			for i := 0; i < n; i++ {
				pcm = appendSampleS16(pcm, samples[i][0])
				pcm = appendSampleS16(pcm, samples[i][1])
			}

			timestamp := float64(streamer.Position()-n) / float64(format.SampleRate)
			d.Timestamp(timestamp)

			if cmd := d.Data(stream, pcm, inFormat, 0); cmd == decoder.CommandStop {
				return nil
			}
		}

		if !ok {
			return nil
		}
	}
}

func appendSampleS16(pcm []byte, v float64) []byte {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	s := int16(v * 32767)
	return append(pcm, byte(s), byte(s>>8))
}
