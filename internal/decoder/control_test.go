package decoder

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soundwell/melodyd/internal/buffer"
	"github.com/soundwell/melodyd/internal/inputstream"
	"github.com/soundwell/melodyd/internal/pipe"
	"github.com/soundwell/melodyd/internal/replaygain"
	"github.com/soundwell/melodyd/internal/song"
)

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "none", CommandNone.String())
	assert.Equal(t, "start", CommandStart.String())
	assert.Equal(t, "seek", CommandSeek.String())
	assert.Equal(t, "stop", CommandStop.String())
	assert.Equal(t, "unknown", Command(99).String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stop", StateStop.String())
	assert.Equal(t, "start", StateStart.String())
	assert.Equal(t, "decode", StateDecode.String())
	assert.Equal(t, "error", StateError.String())
}

func TestControl_SeekDuringStartPanics(t *testing.T) {
	dc := NewControl(false)
	dc.lock()
	dc.state = StateStart
	dc.unlock()

	assert.Panics(t, func() { dc.Seek(1) })
}

func TestControl_SeekNegativePanics(t *testing.T) {
	dc := NewControl(false)
	assert.Panics(t, func() { dc.Seek(-1) })
}

func TestControl_SeekRejectedWhenStopped(t *testing.T) {
	dc := NewControl(false)
	assert.False(t, dc.Seek(10))
}

func TestControl_SeekRejectedWhenUnseekable(t *testing.T) {
	dc := NewControl(false)
	dc.lock()
	dc.state = StateDecode
	dc.seekable = false
	dc.unlock()

	assert.False(t, dc.Seek(10))
}

func TestControl_MixrampOwnershipIsSingleLatestWrite(t *testing.T) {
	dc := NewControl(false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			dc.SetMixrampStart(string(rune('a' + n)))
		}(i)
	}
	wg.Wait()

	start, _, _ := dc.Mixramp()
	assert.Len(t, start, 1)
}

// noopPlugin claims nothing and is never selected; it exists so a
// Thread can be constructed without a real format plugin for tests
// that only exercise the idle command protocol.
type noopPlugin struct{}

func (noopPlugin) Name() string        { return "noop" }
func (noopPlugin) Suffixes() []string  { return nil }
func (noopPlugin) MIMETypes() []string { return nil }
func (noopPlugin) Decode(d *Decoder, stream inputstream.Stream) error {
	return nil
}

func TestThread_QuitWhileIdleReturns(t *testing.T) {
	dc := NewControl(false)
	th := NewThread(dc, []FormatPlugin{noopPlugin{}}, nil, replaygain.Config{}, false)

	done := make(chan struct{})
	go func() {
		th.Run()
		close(done)
	}()

	// Give Run a moment to reach its wait, then quit it.
	time.Sleep(20 * time.Millisecond)
	dc.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestControl_StartInstallsSessionAndAcknowledges(t *testing.T) {
	dc := NewControl(false)
	buf := buffer.New(4)
	p := pipe.New()

	opened := make(chan struct{})
	opener := func(url string) (inputstream.Stream, error) {
		close(opened)
		return nil, assertErr
	}

	th := NewThread(dc, []FormatPlugin{noopPlugin{}}, opener, replaygain.Config{}, false)
	go th.Run()
	defer dc.Quit()

	dc.Start(&song.Song{URL: "song.mp3", Seekable: true}, buf, p)

	// Property 1: command acknowledgement. Start blocks until the
	// decoder thread has observed and cleared the command.
	assert.Equal(t, CommandNone, dc.commandSnapshot())

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("decoder thread never opened the stream")
	}
}

// commandSnapshot is a test-only accessor; production code never needs
// to read command directly (State/GetCommand cover the real uses).
func (dc *Control) commandSnapshot() Command {
	dc.lock()
	defer dc.unlock()
	return dc.command
}

var assertErr = errStreamOpenFailed{}

type errStreamOpenFailed struct{}

func (errStreamOpenFailed) Error() string { return "stream open failed" }
