// Package decoder implements the decoder control block (DC), the
// command protocol between the player thread and the decoder thread,
// and the decoder-side API a format plugin uses during one session.
//
// This is a direct translation of original_source/src/decoder_control.c
// and decoder_api.c: one mutex guards {state, command, seek_*,
// mixramp_*}, one condition variable is broadcast on every transition,
// and the player-facing command-submission primitive blocks until the
// decoder thread acknowledges. A channel is deliberately not used in
// place of `command` — the player needs synchronous, blocking
// acknowledgement, which Go channels don't give you for free the way a
// mutex+cond rendezvous does.
package decoder

import (
	"log"
	"sync"

	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/pipe"
	"github.com/soundwell/melodyd/internal/song"
)

// State is the decoder thread's published lifecycle state. Only the
// decoder thread writes it.
type State int

const (
	StateStop State = iota
	StateStart
	StateDecode
	StateError
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "stop"
	case StateStart:
		return "start"
	case StateDecode:
		return "decode"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Command is the player thread's request register. Only the player
// thread writes it (the decoder only ever sets it back to
// CommandNone), except for seek errors which the decoder records
// separately in SeekError.
type Command int

const (
	CommandNone Command = iota
	CommandStart
	CommandSeek
	CommandStop
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandStart:
		return "start"
	case CommandSeek:
		return "seek"
	case CommandStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Control is the decoder control block (DC): the rendezvous record
// shared by the player thread and the decoder thread.
type Control struct {
	mu   sync.Mutex
	cond *sync.Cond

	state   State
	command Command
	quit    bool

	inFormat  audioformat.Format
	outFormat audioformat.Format
	seekable  bool
	totalTime float64

	seekWhere float64
	seekError bool

	song   *song.Song
	buffer *buffer.Buffer
	pipe   *pipe.Pipe

	replayGainDb     float64
	replayGainPrevDb float64

	mixrampStart   string
	mixrampEnd     string
	mixrampPrevEnd string

	// playerNotify is broadcast whenever state changes in a way the
	// player thread's own wait loop (outside this package) might care
	// about, e.g. chunks becoming available. It is distinct from cond,
	// which only ever guards command acknowledgement.
	playerNotify *sync.Cond

	debug bool
}

// NewControl creates a DC in the STOP state, idle, with no session
// installed.
func NewControl(debug bool) *Control {
	dc := &Control{state: StateStop, command: CommandNone, debug: debug}
	dc.cond = sync.NewCond(&dc.mu)
	dc.playerNotify = sync.NewCond(&dc.mu)
	return dc
}

func (dc *Control) logf(format string, args ...interface{}) {
	if dc.debug {
		log.Printf("[DC] "+format, args...)
	}
}

// --- locking primitives, mirroring decoder_lock/decoder_unlock/decoder_signal ---

func (dc *Control) lock()   { dc.mu.Lock() }
func (dc *Control) unlock() { dc.mu.Unlock() }

// signal wakes both the command waiters and the player-facing notify
// condition; every DC state transition broadcasts.
func (dc *Control) signal() {
	dc.cond.Broadcast()
	dc.playerNotify.Broadcast()
}

// NotifyPlayer lets the decoder thread (or plugin code inside it) wake
// a player that may be blocked waiting for pipe data, without going
// through the command protocol. It must be called without holding the
// lock the caller may already hold from elsewhere; it takes its own.
func (dc *Control) NotifyPlayer() {
	dc.mu.Lock()
	dc.playerNotify.Broadcast()
	dc.mu.Unlock()
}

// WaitForSignal blocks until NotifyPlayer, or any command
// acknowledgement, wakes it. Intended for a player thread polling pipe
// occupancy.
func (dc *Control) WaitForSignal() {
	dc.mu.Lock()
	dc.playerNotify.Wait()
	dc.mu.Unlock()
}

func (dc *Control) commandWaitLocked() {
	for dc.command != CommandNone {
		dc.cond.Wait()
	}
}

func (dc *Control) commandLocked(cmd Command) {
	dc.command = cmd
	dc.signal()
	dc.commandWaitLocked()
}

func (dc *Control) commandBlocking(cmd Command) {
	dc.lock()
	dc.commandLocked(cmd)
	dc.unlock()
}

func (dc *Control) commandAsync(cmd Command) {
	dc.lock()
	dc.command = cmd
	dc.signal()
	dc.unlock()
}

// --- player-facing operations (§4.1) ---

// Start installs the session inputs and blocks until the decoder
// thread has acknowledged the START command and the session has left
// the START state. Precondition: the decoder thread is idle (state
// STOP, no command in flight). Postcondition: state is one of {DECODE,
// ERROR, STOP}.
func (dc *Control) Start(s *song.Song, buf *buffer.Buffer, p *pipe.Pipe) {
	dc.lock()
	dc.song = s
	dc.buffer = buf
	dc.pipe = p
	dc.commandLocked(CommandStart)
	for dc.state == StateStart {
		dc.cond.Wait()
	}
	dc.unlock()
}

// Stop cancels any outstanding command and, if the decoder is still in
// START or DECODE, issues STOP again so the in-flight session
// terminates. It is idempotent from STOP/ERROR: open question resolved
// in DESIGN.md — Stop never forces the state to STOP from ERROR, it
// only ensures command is NONE and any running session unwinds.
func (dc *Control) Stop() {
	dc.lock()
	defer dc.unlock()

	if dc.command != CommandNone {
		// Attempt to cancel the current command. If it's too late and
		// the decoder thread is already executing the old command,
		// we'll issue STOP again below.
		dc.commandLocked(CommandStop)
	}

	if dc.state != StateStop && dc.state != StateError {
		dc.commandLocked(CommandStop)
	}
}

// Seek requests a seek to where (seconds). Preconditions: state is not
// START, where >= 0. Returns false immediately, without contacting the
// decoder thread, if the state is STOP/ERROR or the stream declared
// itself unseekable.
func (dc *Control) Seek(where float64) bool {
	dc.lock()

	if dc.state == StateStart {
		dc.unlock()
		panic("decoder: Seek called while state == START")
	}
	if where < 0 {
		dc.unlock()
		panic("decoder: Seek called with where < 0")
	}

	if dc.state == StateStop || dc.state == StateError || !dc.seekable {
		dc.unlock()
		return false
	}

	dc.seekWhere = where
	dc.seekError = false
	dc.commandLocked(CommandSeek)

	failed := dc.seekError
	dc.unlock()
	return !failed
}

// Quit marks the control block for shutdown and submits STOP
// asynchronously; the caller is responsible for joining the decoder
// goroutine (e.g. via a WaitGroup or <-done channel) after this
// returns.
func (dc *Control) Quit() {
	dc.lock()
	dc.quit = true
	dc.command = CommandStop
	dc.signal()
	dc.unlock()
}

// --- read-only accessors the player thread uses after a command completes ---

func (dc *Control) State() State {
	dc.lock()
	defer dc.unlock()
	return dc.state
}

func (dc *Control) Seekable() bool {
	dc.lock()
	defer dc.unlock()
	return dc.seekable
}

func (dc *Control) TotalTime() float64 {
	dc.lock()
	defer dc.unlock()
	return dc.totalTime
}

func (dc *Control) OutAudioFormat() audioformat.Format {
	dc.lock()
	defer dc.unlock()
	return dc.outFormat
}

func (dc *Control) InAudioFormat() audioformat.Format {
	dc.lock()
	defer dc.unlock()
	return dc.inFormat
}

func (dc *Control) ReplayGainDb() (current, previous float64) {
	dc.lock()
	defer dc.unlock()
	return dc.replayGainDb, dc.replayGainPrevDb
}

func (dc *Control) Mixramp() (start, end, prevEnd string) {
	dc.lock()
	defer dc.unlock()
	return dc.mixrampStart, dc.mixrampEnd, dc.mixrampPrevEnd
}

// --- mixramp ownership (dc_mixramp_start/end/prev_end) ---

// SetMixrampStart replaces the owned mixramp_start string. Replacing
// always releases the previous value; in Go that's just letting the GC
// reclaim it, but the call shape mirrors the original's free-then-set.
func (dc *Control) SetMixrampStart(s string) {
	dc.lock()
	dc.mixrampStart = s
	dc.logf("mixramp_start = %q", s)
	dc.unlock()
}

func (dc *Control) SetMixrampEnd(s string) {
	dc.lock()
	dc.mixrampEnd = s
	dc.logf("mixramp_end = %q", s)
	dc.unlock()
}

func (dc *Control) SetMixrampPrevEnd(s string) {
	dc.lock()
	dc.mixrampPrevEnd = s
	dc.logf("mixramp_prev_end = %q", s)
	dc.unlock()
}

func (dc *Control) SetReplayGainDb(db float64) {
	dc.lock()
	dc.replayGainPrevDb = dc.replayGainDb
	dc.replayGainDb = db
	dc.unlock()
}
