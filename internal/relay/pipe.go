package relay

import (
	"context"
	"io"
	"net/http"
)

const pipeBufferSize = 32 * 1024

// Pipe copies src to dst unchanged, flushing after every read so event-stream
// frames reach the caller as soon as upstream produces them. When ctx is
// cancelled src is closed, which unblocks a pending read, and Pipe returns
// ctx.Err(). src is always closed on return. The returned count is the
// number of bytes written to dst.
func Pipe(ctx context.Context, dst io.Writer, src io.ReadCloser) (int64, error) {
	defer src.Close()
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()

	flush := flusherFor(dst)
	buf := make([]byte, pipeBufferSize)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			flush()
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			if rerr == io.EOF {
				return written, nil
			}
			return written, rerr
		}
	}
}

func flusherFor(w io.Writer) func() {
	switch f := w.(type) {
	case http.Flusher:
		return f.Flush
	case http.ResponseWriter:
		rc := http.NewResponseController(f)
		return func() { _ = rc.Flush() }
	default:
		return func() {}
	}
}
