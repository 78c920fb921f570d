package proxy

import (
	"bufio"
	"context"
	"io"
)

// teeBuffer accumulates a copy of the origin response body, up to limit
// bytes, for a possible cache insert. Once the cumulative size would
// exceed limit it poisons itself and discards everything it is holding,
// so an oversize response is simply never cached.
type teeBuffer struct {
	buf      []byte
	limit    int
	poisoned bool
}

func newTeeBuffer(limit int) *teeBuffer {
	return &teeBuffer{limit: limit}
}

func (t *teeBuffer) Write(p []byte) (int, error) {
	if !t.poisoned {
		if len(t.buf)+len(p) > t.limit {
			t.poisoned = true
			t.buf = nil
		} else {
			t.buf = append(t.buf, p...)
		}
	}
	return len(p), nil
}

const copyChunkSize = 32 * 1024

// countingWriter tracks how many bytes actually reached the underlying
// writer, so a mid-stream failure can be told apart from one that happened
// before any response bytes left for the client.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// partialResponseError wraps an origin failure that occurred after bytes
// had already reached the client. The response has already begun, so it
// cannot be replaced with an error page — the caller must just close the
// connection.
type partialResponseError struct {
	err error
}

func (e *partialResponseError) Error() string { return e.err.Error() }
func (e *partialResponseError) Unwrap() error { return e.err }

// forwardOrigin writes the synthesized request (request line, rewritten
// client headers, proxy-supplied headers) to origin, then streams the
// response back to client while tee-buffering it for a possible cache
// insert.
func forwardOrigin(ctx context.Context, origin io.ReadWriter, client io.Writer, req *Request, clientHeaders *bufio.Reader, cache *Cache) error {
	if _, err := io.WriteString(origin, req.OriginRequestLine()); err != nil {
		return badGateway("writing request line: " + err.Error())
	}

	gotHost, err := rewriteHeaders(clientHeaders, origin)
	if err != nil {
		return err
	}
	if err := writeProxyHeaders(origin, req.Host, gotHost); err != nil {
		return badGateway("writing proxy headers: " + err.Error())
	}

	tee := newTeeBuffer(cache.MaxObjectSize())
	cw := &countingWriter{w: client}
	mw := io.MultiWriter(cw, tee)

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(mw, origin, buf); err != nil {
		wrapped := badGateway("streaming origin response: " + err.Error())
		if cw.n > 0 {
			return &partialResponseError{err: wrapped}
		}
		return wrapped
	}

	if !tee.poisoned && len(tee.buf) > 0 {
		return cache.Insert(ctx, req.Fingerprint(), tee.buf)
	}
	return nil
}
