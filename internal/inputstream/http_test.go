package inputstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStream_ReadsFullBody(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(body)
	}))
	defer srv.Close()

	s, err := OpenHTTP(context.Background(), srv.URL, 100, 10, false)
	require.NoError(t, err)
	defer s.Close()

	got, err := io.ReadAll(readerFunc(s.Read))
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestHTTPStream_MIMEFromResponseHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	s, err := OpenHTTP(context.Background(), srv.URL, 100, 10, false)
	require.NoError(t, err)
	defer s.Close()

	deadline := time.After(2 * time.Second)
	for s.MIME() == "" {
		select {
		case <-deadline:
			t.Fatal("MIME never populated")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	assert.Equal(t, "audio/mpeg", s.MIME())
}

func TestHTTPStream_NotFoundSurfacesAsReadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := OpenHTTP(context.Background(), srv.URL, 100, 10, false)
	require.NoError(t, err)
	defer s.Close()

	buf := make([]byte, 16)
	_, err = s.Read(buf)
	assert.Error(t, err)
}

// readerFunc adapts a Read method value to io.Reader for io.ReadAll.
type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
