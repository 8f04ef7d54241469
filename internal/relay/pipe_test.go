package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// chunkedReader returns data in fixed-size reads to mimic a chunked upstream.
type chunkedReader struct {
	data   []byte
	size   int
	closed atomic.Bool
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func (c *chunkedReader) Close() error {
	c.closed.Store(true)
	return nil
}

type flushCounter struct {
	*httptest.ResponseRecorder
	flushes int
}

func (f *flushCounter) Flush() { f.flushes++ }

func TestPipe_ByteIdentical(t *testing.T) {
	payload := []byte("data: {\"choices\":[{\"delta\":{\"content\":\"h\\u00e9llo \xf0\x9f\x98\x80\"}}]}\r\n\r\n: keep-alive\n\ndata: [DONE]\n\n\x00\xff")

	for _, size := range []int{1, 3, 7, 64, len(payload)} {
		src := &chunkedReader{data: append([]byte(nil), payload...), size: size}
		dst := &flushCounter{ResponseRecorder: httptest.NewRecorder()}

		n, err := Pipe(context.Background(), dst, src)
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", size, err)
		}
		if n != int64(len(payload)) {
			t.Errorf("size %d: wrote %d bytes, want %d", size, n, len(payload))
		}
		if !bytes.Equal(dst.Body.Bytes(), payload) {
			t.Errorf("size %d: output differs from input", size)
		}
		wantFlushes := (len(payload) + size - 1) / size
		if dst.flushes != wantFlushes {
			t.Errorf("size %d: expected %d flushes, got %d", size, wantFlushes, dst.flushes)
		}
		if !src.closed.Load() {
			t.Errorf("size %d: source not closed", size)
		}
	}
}

func TestPipe_CancelStopsAndClosesSource(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	dst := httptest.NewRecorder()

	done := make(chan error, 1)
	go func() {
		_, err := Pipe(ctx, dst, pr)
		done <- err
	}()

	if _, err := pw.Write([]byte("data: first\n\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pipe did not stop after cancellation")
	}

	// The upstream side sees the reader closed.
	if _, err := pw.Write([]byte("more")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected upstream writes to fail after cancel, got %v", err)
	}
	if dst.Body.String() != "data: first\n\n" {
		t.Errorf("unexpected body %q", dst.Body.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPipe_WriteErrorStops(t *testing.T) {
	src := &chunkedReader{data: []byte("data: x\n\n"), size: 4}
	_, err := Pipe(context.Background(), failingWriter{}, src)
	if err == nil || err.Error() != "broken pipe" {
		t.Errorf("expected write error, got %v", err)
	}
	if !src.closed.Load() {
		t.Error("source must be closed on write error")
	}
}
