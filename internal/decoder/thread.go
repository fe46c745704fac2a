package decoder

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/soundwell/melodyd/internal/inputstream"
	"github.com/soundwell/melodyd/internal/replaygain"
	"github.com/soundwell/melodyd/internal/song"
)

// FormatPlugin decodes one compressed audio format. It lives in this
// package, rather than internal/plugin, because Decode is defined in
// terms of *Decoder, and defining it in internal/plugin would make that
// package import internal/decoder.
type FormatPlugin interface {
	Name() string
	Suffixes() []string
	MIMETypes() []string

	// Decode runs the plugin's entire decode loop against stream,
	// driving d.Initialized/Data/Tag/ReplayGain/MixRamp and honoring
	// d.GetCommand()/d.SeekWhere(). It returns when the stream ends, an
	// unrecoverable error occurs, or a STOP command is observed.
	Decode(d *Decoder, stream inputstream.Stream) error
}

// StreamOpener resolves a song's URL to an input stream. The decoder
// thread itself knows nothing about files vs. HTTP vs. archives; it
// delegates entirely to this, so tests can substitute a fake.
type StreamOpener func(url string) (inputstream.Stream, error)

// Thread runs the decoder side of the control protocol: wait for a
// command, act on START/STOP/QUIT, repeat. It is the Go analogue of
// decoder_thread() in original_source/src/decoder_thread.c.
type Thread struct {
	dc            *Control
	plugins       []FormatPlugin
	openStream    StreamOpener
	replayGainCfg replaygain.Config
	debug         bool
}

// NewThread builds a decoder thread bound to dc. plugins are tried, in
// order, against each song until one claims it by suffix or MIME; the
// first Decode call that returns (for any reason) ends the session.
func NewThread(dc *Control, plugins []FormatPlugin, openStream StreamOpener, cfg replaygain.Config, debug bool) *Thread {
	return &Thread{dc: dc, plugins: plugins, openStream: openStream, replayGainCfg: cfg, debug: debug}
}

func (t *Thread) logf(format string, args ...interface{}) {
	if t.debug {
		log.Printf("[DECODER] "+format, args...)
	}
}

// Run is the decoder thread's main loop. It blocks until Control.Quit
// is called, and should be started in its own goroutine by the process
// that owns the Control (see cmd/melodyd).
func (t *Thread) Run() {
	dc := t.dc
	for {
		dc.lock()
		for dc.command == CommandNone && !dc.quit {
			dc.cond.Wait()
		}
		quit := dc.quit
		cmd := dc.command
		dc.unlock()

		if quit && cmd != CommandStart {
			t.handleStop()
			return
		}

		switch cmd {
		case CommandStart:
			t.handleStart()
		case CommandStop:
			t.handleStop()
		case CommandSeek:
			// A SEEK with nothing running: acknowledge and move on,
			// mirroring the original's defensive handling of a stray
			// seek arriving between sessions.
			t.handleStop()
		}
	}
}

func (t *Thread) handleStop() {
	dc := t.dc
	dc.lock()
	dc.state = StateStop
	dc.command = CommandNone
	dc.signal()
	dc.unlock()
}

func (t *Thread) selectPlugin(s *song.Song, stream inputstream.Stream) FormatPlugin {
	suffix := ""
	if idx := strings.LastIndexByte(s.URL, '.'); idx >= 0 {
		suffix = strings.ToLower(s.URL[idx+1:])
	}
	mime := stream.MIME()

	for _, p := range t.plugins {
		for _, sfx := range p.Suffixes() {
			if sfx == suffix {
				return p
			}
		}
	}
	if mime != "" {
		for _, p := range t.plugins {
			for _, mt := range p.MIMETypes() {
				if strings.EqualFold(mt, mime) {
					return p
				}
			}
		}
	}
	return nil
}

func (t *Thread) handleStart() {
	dc := t.dc

	dc.lock()
	s := dc.song
	dc.state = StateStart
	dc.command = CommandNone
	dc.signal()
	dc.unlock()

	sessionID := uuid.New().String()[:8]
	t.logf("[%s] starting %s", sessionID, s.URL)

	stream, err := t.openStream(s.URL)
	if err != nil {
		t.logf("[%s] open stream failed: %v", sessionID, err)
		dc.lock()
		dc.state = StateError
		dc.signal()
		dc.unlock()
		return
	}
	defer stream.Close()

	plug := t.selectPlugin(s, stream)
	if plug == nil {
		t.logf("[%s] no plugin claims %s", sessionID, s.URL)
		dc.lock()
		dc.state = StateError
		dc.signal()
		dc.unlock()
		return
	}

	d := NewDecoder(dc, t.replayGainCfg, s.Tag, s.EndSeconds())
	d.Timestamp(s.StartSeconds())

	err = plug.Decode(d, stream)

	d.flushChunk()

	dc.lock()
	defer dc.unlock()

	switch dc.command {
	case CommandStop:
		dc.state = StateStop
		dc.command = CommandNone
		dc.signal()
		return
	}

	if err != nil {
		t.logf("[%s] %s: decode error: %v", sessionID, plug.Name(), err)
		dc.state = StateError
		dc.signal()
		return
	}

	switch dc.state {
	case StateDecode:
		dc.state = StateStop
	case StateStart:
		// The plugin returned without ever calling Initialized.
		dc.state = StateError
	}
	dc.signal()
}

// ErrNoPlugin is a sentinel for the case where no configured plugin can
// decode a URL. Nothing in this module returns it: handleStart logs
// that case and moves the control block to StateError.
var ErrNoPlugin = fmt.Errorf("decoder: no plugin claims this stream")
