// Package player drains the chunk pipe a decoder session fills and
// feeds it to a PortAudio output stream, the player side of the
// command protocol implemented by internal/decoder. The callback-driven
// PortAudio wiring follows cmd/audio/test.go's proof-of-concept: one
// stereo float32 output stream, fed from successive beep-style sample
// batches — here sourced from pipe chunks instead of a single
// mp3.Decode streamer.
package player

import (
	"fmt"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/chunk"
	"github.com/soundwell/melodyd/internal/decoder"
	"github.com/soundwell/melodyd/internal/pipe"
	"github.com/soundwell/melodyd/internal/song"
)

// Player owns one DecoderControl and the buffer/pipe pair behind it,
// and can drive a single play session through PortAudio.
type Player struct {
	dc    *decoder.Control
	buf   *buffer.Buffer
	pipe  *pipe.Pipe
	debug bool

	stream *portaudio.Stream

	current *chunk.Chunk
	offset  int
}

// New creates a Player bound to dc, using buf and p as the session's
// chunk buffer and pipe (the same pair Control.Start installs).
func New(dc *decoder.Control, buf *buffer.Buffer, p *pipe.Pipe, debug bool) *Player {
	return &Player{dc: dc, buf: buf, pipe: p, debug: debug}
}

func (pl *Player) logf(format string, args ...interface{}) {
	if pl.debug {
		log.Printf("[PLAYER] "+format, args...)
	}
}

// Play starts a decode session for s and, once the decoder thread
// reports a format, opens a matching PortAudio output stream and
// begins pulling chunks from the pipe. It blocks until the decoder
// thread acknowledges START (state leaves START), mirroring how a
// caller of dc_start/dc_command waits for the command to be processed.
func (pl *Player) Play(s *song.Song) error {
	pl.logf("starting %s", s.URL)
	pl.dc.Start(s, pl.buf, pl.pipe)

	if pl.dc.State() == decoder.StateError {
		return fmt.Errorf("player: decoder failed to start %s", s.URL)
	}

	format := pl.dc.OutAudioFormat()
	if !format.Defined() {
		return fmt.Errorf("player: decoder reported no audio format for %s", s.URL)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("player: portaudio init: %w", err)
	}

	framesPerBuffer := int(format.SampleRate) / 50 // 20ms, as in the proof-of-concept
	stream, err := portaudio.OpenDefaultStream(
		0, int(format.Channels), float64(format.SampleRate), framesPerBuffer,
		pl.callback(format),
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("player: open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("player: start stream: %w", err)
	}

	pl.stream = stream
	return nil
}

// callback returns the PortAudio output callback for a stereo float32
// stream in the given format, reading from the pipe one chunk at a
// time and converting its S16 PCM to float32 in [-1, 1].
func (pl *Player) callback(format audioformat.Format) func(out [][]float32) {
	channels := int(format.Channels)
	return func(out [][]float32) {
		frames := len(out[0])
		for i := 0; i < frames; i++ {
			data, ok := pl.nextFrame()
			for c := 0; c < channels; c++ {
				if ok && c < len(data) {
					out[c][i] = data[c]
				} else {
					out[c][i] = 0
				}
			}
		}
	}
}

// nextFrame decodes one PCM frame (one sample per channel) from the
// current chunk, pulling a new one from the pipe when exhausted. ok is
// false once the pipe has nothing left to offer right now (underrun,
// not necessarily end of stream).
func (pl *Player) nextFrame() (samples []float32, ok bool) {
	if pl.current == nil || pl.offset >= pl.current.Length {
		pl.advance()
	}
	if pl.current == nil {
		return nil, false
	}

	c := pl.current
	channels := int(c.Format.Channels)
	frame := make([]float32, channels)
	for ch := 0; ch < channels; ch++ {
		idx := pl.offset + ch*2
		if idx+1 >= c.Length {
			return nil, false
		}
		s := int16(c.Data[idx]) | int16(c.Data[idx+1])<<8
		frame[ch] = float32(s) / 32768.0
	}
	pl.offset += channels * 2

	return frame, true
}

func (pl *Player) advance() {
	if pl.current != nil {
		pl.buf.Return(pl.current)
		pl.current = nil
	}

	c := pl.pipe.Shift()
	for c != nil && c.Empty() {
		pl.buf.Return(c)
		c = pl.pipe.Shift()
	}
	pl.current = c
	pl.offset = 0
}

// Seek requests a seek on the active session.
func (pl *Player) Seek(where float64) bool {
	return pl.dc.Seek(where)
}

// Stop halts the active session and tears down the PortAudio stream.
func (pl *Player) Stop() {
	pl.dc.Stop()
	pl.closeStream()
	pipe.Clear(pl.pipe, pl.buf)
	pl.current = nil
}

// Close stops the session, tears down PortAudio, and tells the decoder
// thread to quit.
func (pl *Player) Close() {
	pl.closeStream()
	pl.dc.Quit()
}

func (pl *Player) closeStream() {
	if pl.stream == nil {
		return
	}
	_ = pl.stream.Stop()
	_ = pl.stream.Close()
	portaudio.Terminate()
	pl.stream = nil
}

// WaitForData blocks until the decoder signals new pipe activity or
// timeout elapses, whichever comes first. Useful for a headless runner
// that wants to log progress without busy-polling.
func (pl *Player) WaitForData(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		pl.dc.WaitForSignal()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
