package inputstream

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/soundwell/melodyd/internal/tag"
)

// HTTPStream buffers a remote file into memory as it downloads in the
// background, and serves Reads from the buffer — the same
// download-ahead-of-playback shape as the teacher's
// internal/audio.StreamReader, generalized into the Stream contract
// instead of io.ReadCloser.
type HTTPStream struct {
	url    string
	mime   string
	client *retryablehttp.Client
	limit  *rate.Limiter

	mu         sync.Mutex
	cond       *sync.Cond
	buf        []byte
	position   int64
	total      int64 // -1 until Content-Length is known
	downloaded int64
	done       bool
	err        error

	cancel context.CancelFunc
	debug  bool
}

// OpenHTTP starts downloading url in the background and returns a
// Stream that serves reads from the buffered-so-far bytes, blocking
// cooperatively until more data arrives. requestsPerSecond/burst
// configure the rate limiter the background download waits on once,
// before it issues its request; the client's own retries (up to 3) are
// not throttled by it.
func OpenHTTP(ctx context.Context, url string, requestsPerSecond float64, burst int, debug bool) (*HTTPStream, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	dlCtx, cancel := context.WithCancel(ctx)

	s := &HTTPStream{
		url:    url,
		client: client,
		limit:  rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		total:  -1,
		cancel: cancel,
		debug:  debug,
	}
	s.cond = sync.NewCond(&s.mu)

	go s.download(dlCtx)

	return s, nil
}

func (s *HTTPStream) logf(format string, args ...interface{}) {
	if s.debug {
		log.Printf("[STREAM] "+format, args...)
	}
}

func (s *HTTPStream) download(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		s.cond.Broadcast()
	}()

	if err := s.limit.Wait(ctx); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		s.mu.Lock()
		s.err = fmt.Errorf("inputstream: HTTP %d for %s", resp.StatusCode, s.url)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.mime = resp.Header.Get("Content-Type")
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if v, perr := strconv.ParseInt(cl, 10, 64); perr == nil {
			s.total = v
		}
	}
	s.mu.Unlock()

	chunk := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, rerr := resp.Body.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			s.buf = append(s.buf, chunk[:n]...)
			s.downloaded += int64(n)
			s.mu.Unlock()
			s.cond.Broadcast()
		}
		if rerr != nil {
			if rerr != io.EOF {
				s.mu.Lock()
				s.err = rerr
				s.mu.Unlock()
			}
			return
		}
	}
}

func (s *HTTPStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.err != nil {
			return 0, s.err
		}

		available := int64(len(s.buf)) - s.position
		if available > 0 {
			n := int64(len(p))
			if n > available {
				n = available
			}
			copy(p, s.buf[s.position:s.position+n])
			s.position += n
			return int(n), nil
		}

		if s.done {
			return 0, io.EOF
		}

		s.cond.Wait()
	}
}

func (s *HTTPStream) Seek(offset int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for int64(len(s.buf)) < offset && !s.done {
		s.cond.Wait()
	}
	if offset > int64(len(s.buf)) {
		return false, fmt.Errorf("inputstream: seek past buffered region")
	}
	s.position = offset
	return true, nil
}

func (s *HTTPStream) Seekable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total > 0
}

func (s *HTTPStream) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *HTTPStream) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *HTTPStream) EOF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done && s.position >= int64(len(s.buf))
}

func (s *HTTPStream) MIME() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mime
}

// Tag never surfaces an in-band tag for a plain HTTP stream; a
// shoutcast/ICY variant would override this.
func (s *HTTPStream) Tag() *tag.Tag { return nil }

func (s *HTTPStream) Close() error {
	s.cancel()
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.cond.Broadcast()
	return nil
}

// Progress reports how much of the stream has been downloaded so far,
// and the total if known.
func (s *HTTPStream) Progress() (downloaded, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloaded, s.total
}
