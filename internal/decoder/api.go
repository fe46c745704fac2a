package decoder

import (
	"errors"
	"time"

	"github.com/soundwell/melodyd/internal/audioformat"
	"github.com/soundwell/melodyd/internal/chunk"
	"github.com/soundwell/melodyd/internal/inputstream"
	"github.com/soundwell/melodyd/internal/pipe"
	"github.com/soundwell/melodyd/internal/replaygain"
	"github.com/soundwell/melodyd/internal/resample"
	"github.com/soundwell/melodyd/internal/tag"
)

// pollInterval is the cooperative-yield sleep a format plugin's call
// into this API falls back to when it must wait for either buffer
// space or stream data, mirroring decoder_api.c's g_usleep(10000). A
// real condition variable can't be used here: the wait must wake up
// early the moment Control.command stops being CommandNone, and that
// transition is signalled on Control's own cond, not on any per-call
// wait the plugin could hold.
const pollInterval = 10 * time.Millisecond

// ErrInterrupted is returned from Read when the player thread has
// issued STOP or SEEK while a plugin was blocked reading the stream.
var ErrInterrupted = errors.New("decoder: interrupted by command")

// Decoder is the session handle a format plugin receives for the
// lifetime of one decode. It is the Go analogue of struct decoder in
// original_source/src/decoder_api.c: everything a plugin may call while
// it owns the decoder thread.
type Decoder struct {
	dc *Control

	chunk *chunk.Chunk

	conv    *resample.Converter
	convSrc audioformat.Format
	convSet bool

	// songTag is the catalog-supplied tag, sent once as a stand-in
	// stream tag if the input stream never reports one of its own (see
	// updateStreamTag). streamTag and decoderTag are the two live tag
	// sources decoder_data/Tag merge, mirroring decoder_api.c's
	// decoder->song_tag/stream_tag/decoder_tag trio.
	songTag    *tag.Tag
	streamTag  *tag.Tag
	decoderTag *tag.Tag

	// seeking is set by SeekWhere and cleared by CommandFinished (on a
	// successful seek) or SeekError (on a failed one); it marks whether
	// CommandFinished must discard the pre-seek chunk and pipe.
	seeking bool

	timestamp  float64
	endSeconds float64 // 0 = play to the end of the stream

	replayGainCfg    replaygain.Config
	replayGainInfo   *replaygain.Info
	replayGainSerial uint32
}

// NewDecoder creates a session handle bound to dc. songTag is the
// catalog-supplied tag used as a stand-in stream tag until (and unless)
// the input stream reports its own. endSeconds, if positive, caps the
// session at song.end_ms the way decoder_data's range check does in the
// original: once the running timestamp reaches it, Data starts
// reporting CommandStop instead of accepting further PCM.
func NewDecoder(dc *Control, cfg replaygain.Config, songTag *tag.Tag, endSeconds float64) *Decoder {
	return &Decoder{dc: dc, replayGainCfg: cfg, songTag: songTag, endSeconds: endSeconds}
}

// Initialized implements decoder_initialized: the plugin calls this
// exactly once, after it has determined the stream's audio format and
// (if known) seekability and total time. It moves the control block
// from START to DECODE.
func (d *Decoder) Initialized(inFormat audioformat.Format, seekable bool, totalTime float64) {
	dc := d.dc
	dc.lock()
	dc.inFormat = inFormat
	dc.outFormat = resample.SelectOutputFormat(inFormat, nil)
	dc.seekable = seekable
	dc.totalTime = totalTime
	dc.state = StateDecode
	dc.signal()
	dc.unlock()
}

// GetCommand implements decoder_get_command: a plugin's decode loop
// polls this on every iteration to notice SEEK/STOP.
func (d *Decoder) GetCommand() Command {
	dc := d.dc
	dc.lock()
	defer dc.unlock()
	return dc.command
}

// CommandFinished implements decoder_command_finished: the plugin
// acknowledges it has acted on the current command (a SEEK retry loop
// must call SeekError first if the seek failed). If the command being
// acknowledged is a successful seek (seeking is set), this discards the
// partially-filled chunk and the whole pipe — they hold pre-seek audio
// — and resets the session timestamp to the seek target, per
// decoder_api.c's decoder_command_finished.
func (d *Decoder) CommandFinished() {
	dc := d.dc
	dc.lock()
	defer dc.unlock()
	if dc.command == CommandNone {
		panic("decoder: CommandFinished called with no command pending")
	}

	if d.seeking {
		d.seeking = false

		if d.chunk != nil {
			dc.buffer.Return(d.chunk)
			d.chunk = nil
		}
		pipe.Clear(dc.pipe, dc.buffer)

		d.timestamp = dc.seekWhere
	}

	dc.command = CommandNone
	dc.signal()
}

// SeekWhere implements decoder_seek_where: the position, in seconds,
// the plugin should seek its stream to. Calling this marks the session
// as seeking, so the next CommandFinished discards pre-seek audio.
func (d *Decoder) SeekWhere() float64 {
	dc := d.dc
	dc.lock()
	defer dc.unlock()
	d.seeking = true
	return dc.seekWhere
}

// SeekError implements decoder_seek_error: the plugin calls this
// before CommandFinished if the seek could not be performed. Since the
// stream position never actually changed, this clears seeking so the
// following CommandFinished does not discard anything.
func (d *Decoder) SeekError() {
	dc := d.dc
	dc.lock()
	dc.seekError = true
	dc.unlock()
	d.seeking = false
}

// Read implements decoder_read: a command-aware wrapper around the
// input stream's Read. It never returns 0, nil — it keeps polling,
// sleeping pollInterval between attempts, until the stream produces
// bytes, returns an error, or the player thread issues a command,
// which is reported as ErrInterrupted so the plugin's loop can check
// GetCommand and react. Calling Read with a nil stream is a
// programming error in the caller, not a recoverable condition — the
// original allowed this and silently treated it as idle; this
// implementation forbids it outright.
func (d *Decoder) Read(stream inputstream.Stream, buf []byte) (int, error) {
	if stream == nil {
		panic("decoder: Read called with a nil stream")
	}

	for {
		if d.GetCommand() != CommandNone {
			return 0, ErrInterrupted
		}

		n, err := stream.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}

		time.Sleep(pollInterval)
	}
}

// Timestamp implements decoder_timestamp: records the position, in
// seconds since the start of the song, that the next Data call's bytes
// begin at.
func (d *Decoder) Timestamp(t float64) {
	d.timestamp = t
}

// getChunk implements get_chunk: it returns the chunk currently being
// filled, acquiring a fresh one from the buffer if necessary. It
// blocks, cooperatively, only while the buffer is fully checked out
// and no command is pending; the moment a command appears it returns
// nil so the caller can bail out without ever touching Buffer.Wait
// (Buffer has none, by design: this loop is the only place the
// command-aware wait needs to happen).
func (d *Decoder) getChunk() *chunk.Chunk {
	if d.chunk != nil {
		return d.chunk
	}

	dc := d.dc
	for {
		dc.lock()
		cmd := dc.command
		buf := dc.buffer
		dc.unlock()

		if cmd != CommandNone {
			return nil
		}

		c := buf.Acquire()
		if c != nil {
			d.chunk = c
			return c
		}

		time.Sleep(pollInterval)
	}
}

// flushChunk implements flush_chunk: push the chunk currently being
// filled into the pipe if it carries data (or a tag), or return it
// unused to the buffer otherwise, and wake any player thread blocked
// waiting for pipe occupancy.
func (d *Decoder) flushChunk() {
	c := d.chunk
	if c == nil {
		return
	}
	d.chunk = nil

	if c.Empty() && c.Tag == nil {
		d.dc.buffer.Return(c)
		return
	}

	d.dc.pipe.Push(c)
	d.dc.NotifyPlayer()
}

// updateStreamTag implements update_stream_tag: it refreshes streamTag
// from stream.Tag(), falling back to the catalog-supplied songTag,
// consumed at most once, if the stream has never reported a tag of its
// own. It reports whether streamTag now holds something worth sending.
func (d *Decoder) updateStreamTag(stream inputstream.Stream) bool {
	var t *tag.Tag
	if stream != nil {
		t = stream.Tag()
	}
	if t == nil {
		t = d.songTag
		if t == nil {
			return false
		}
		d.songTag = nil
	}
	d.streamTag = t
	return true
}

// sendTag implements do_send_tag: flush whatever chunk is partially
// filled so the tag starts a fresh one, attach it to a freshly acquired
// chunk carrying no PCM, and flush that chunk immediately so the tag
// change lands at the right point in the pipe rather than sharing a
// chunk with whatever PCM follows it. Returns the pending command if
// the buffer has nothing free to give.
func (d *Decoder) sendTag(t *tag.Tag) Command {
	if d.chunk != nil {
		d.flushChunk()
	}

	c := d.getChunk()
	if c == nil {
		return d.GetCommand()
	}

	c.Tag = t
	d.flushChunk()
	return CommandNone
}

// Data implements decoder_data: the core PCM submission pipeline. data
// is raw, undecoded-format PCM in inFormat; it is resampled to the
// session's out_audio_format (selected once, at Initialized time) and
// copied into as many chunks as needed. stream is consulted for a
// freshly observed in-band tag (e.g. ICY metadata) on every call, the
// same way decoder_data refreshes its stream tag before touching PCM.
// It returns the command now pending (CommandNone if none), exactly
// like decoder_get_command would after the call — letting the plugin
// fold the post-write command check into the call site, the same shape
// decoder_data has in the original.
func (d *Decoder) Data(stream inputstream.Stream, data []byte, inFormat audioformat.Format, bitrateKbps uint16) Command {
	if d.endSeconds > 0 && d.timestamp >= d.endSeconds {
		d.flushChunk()
		return CommandStop
	}

	cmd := d.GetCommand()
	if cmd == CommandStop || cmd == CommandSeek || len(data) == 0 {
		return cmd
	}

	if d.updateStreamTag(stream) {
		toSend := d.streamTag
		if d.decoderTag != nil {
			toSend = tag.Merge(d.decoderTag, d.streamTag)
		}
		if sendCmd := d.sendTag(toSend); sendCmd != CommandNone {
			return sendCmd
		}
	}

	outFormat := d.dc.OutAudioFormat()
	if !d.convSet || d.convSrc != inFormat {
		conv, err := resample.NewConverter(inFormat, outFormat)
		if err != nil {
			return CommandStop
		}
		d.conv, d.convSrc, d.convSet = conv, inFormat, true
	}

	converted, err := d.conv.Convert(data)
	if err != nil {
		return CommandStop
	}

	for len(converted) > 0 {
		c := d.getChunk()
		if c == nil {
			return d.GetCommand()
		}

		dest, ok := c.Write(outFormat, d.timestamp, bitrateKbps, d.replayGainSerial)
		if !ok {
			d.flushChunk()
			continue
		}

		n := len(dest)
		if n > len(converted) {
			n = len(converted)
		}
		copy(dest, converted[:n])
		d.timestamp += float64(n) / float64(outFormat.BytesPerSecond())

		if c.Expand(n) {
			d.flushChunk()
		}
		converted = converted[n:]
	}

	return d.GetCommand()
}

// Tag implements decoder_tag: a plugin calls this when it has its own
// tag to report (distinct from whatever the input stream itself
// carries, e.g. an ID3 frame the format decoder parsed directly). It is
// merged over the current stream tag, if any — decoderTag wins per
// item type, since it is the newer information in this call path — and
// sent the same way sendTag sends a refreshed stream tag.
func (d *Decoder) Tag(t *tag.Tag) Command {
	d.decoderTag = t

	toSend := t
	if d.streamTag != nil {
		toSend = tag.Merge(d.streamTag, t)
	}

	return d.sendTag(toSend)
}

// ReplayGain implements decoder_replay_gain: the plugin reports
// whatever gain info it parsed (or nil, if none), and this computes the
// dB value and epoch serial every subsequent chunk will carry until the
// next call. When info is non-nil, a partially filled chunk is flushed
// so the new gain values do not apply retroactively to samples already
// written under the old serial. A nil info resets the serial to 0
// without flushing.
func (d *Decoder) ReplayGain(info *replaygain.Info) {
	d.replayGainInfo = info
	db, serial := replaygain.Apply(d.replayGainCfg, info)
	d.replayGainSerial = serial
	d.dc.SetReplayGainDb(db)

	if info != nil {
		d.flushChunk()
	}
}

// MixRamp implements decoder_mixramp: the plugin reports the start and
// end MixRamp tags it parsed from the stream, if any.
func (d *Decoder) MixRamp(start, end string) {
	d.dc.SetMixrampStart(start)
	d.dc.SetMixrampEnd(end)
}
