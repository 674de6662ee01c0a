package http

import (
	"bufio"
	"io"

	"github.com/searchktools/docroot-server/core/pools"
)

// DefaultChunkSize is the payload size of each chunk in a chunked body
const DefaultChunkSize = 512

// ResponseWriter frames responses onto a connection. Every response closes
// the connection, so each method writes one complete response and flushes.
type ResponseWriter struct {
	w         *bufio.Writer
	chunkSize int

	// Pre-allocated head buffer
	head []byte
}

// NewResponseWriter wraps w. A chunkSize <= 0 selects DefaultChunkSize.
func NewResponseWriter(w io.Writer, chunkSize int) *ResponseWriter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ResponseWriter{
		w:         bufio.NewWriter(w),
		chunkSize: chunkSize,
		head:      make([]byte, 0, 256),
	}
}

// writeHead writes the status line, the given name/value pairs and the
// blank line that ends the head
func (rw *ResponseWriter) writeHead(code int, headers ...string) error {
	rw.head = rw.head[:0]
	rw.head = append(rw.head, "HTTP/1.1 "...)
	rw.head = appendInt(rw.head, code)
	rw.head = append(rw.head, ' ')
	rw.head = append(rw.head, StatusText(code)...)
	rw.head = append(rw.head, "\r\n"...)

	for i := 0; i+1 < len(headers); i += 2 {
		rw.head = append(rw.head, headers[i]...)
		rw.head = append(rw.head, ": "...)
		rw.head = append(rw.head, headers[i+1]...)
		rw.head = append(rw.head, "\r\n"...)
	}
	rw.head = append(rw.head, "\r\n"...)

	_, err := rw.w.Write(rw.head)
	return err
}

func (rw *ResponseWriter) lengthHeaders(contentType string, length int) []string {
	return []string{
		"Content-Type", contentType,
		"Content-Length", string(appendInt(nil, length)),
		"Connection", "close",
	}
}

// WriteEmpty sends a status line with no body
func (rw *ResponseWriter) WriteEmpty(code int) error {
	if err := rw.writeHead(code, "Content-Length", "0", "Connection", "close"); err != nil {
		return err
	}
	return rw.w.Flush()
}

// WriteFixed sends body with a Content-Length header
func (rw *ResponseWriter) WriteFixed(code int, contentType string, body []byte) error {
	if err := rw.writeHead(code, rw.lengthHeaders(contentType, len(body))...); err != nil {
		return err
	}
	if _, err := rw.w.Write(body); err != nil {
		return err
	}
	return rw.w.Flush()
}

// WriteHeadOnly sends the headers a fixed-length response of the given
// length would carry, without the body
func (rw *ResponseWriter) WriteHeadOnly(code int, contentType string, length int) error {
	if err := rw.writeHead(code, rw.lengthHeaders(contentType, length)...); err != nil {
		return err
	}
	return rw.w.Flush()
}

// WriteChunked streams body from src using chunked transfer encoding.
// Every chunk except possibly the last carries exactly chunkSize bytes.
func (rw *ResponseWriter) WriteChunked(code int, contentType string, src io.Reader) error {
	err := rw.writeHead(code,
		"Content-Type", contentType,
		"Transfer-Encoding", "chunked",
		"Connection", "close",
	)
	if err != nil {
		return err
	}

	buf := pools.GetBytes(rw.chunkSize)
	defer pools.PutBytes(buf)

	cw := NewChunkedWriter(rw.w)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			if _, werr := cw.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := cw.Close(); err != nil {
		return err
	}
	return rw.w.Flush()
}

// ChunkedWriter writes each Write call as one chunk. Close writes the
// terminal zero-length chunk; it does not close the underlying writer.
type ChunkedWriter struct {
	w      io.Writer
	prefix []byte
	closed bool
}

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{
		w:      w,
		prefix: make([]byte, 0, 18),
	}
}

func (cw *ChunkedWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, io.ErrClosedPipe
	}
	// a zero-length chunk would end the body
	if len(p) == 0 {
		return 0, nil
	}

	cw.prefix = appendHex(cw.prefix[:0], len(p))
	cw.prefix = append(cw.prefix, "\r\n"...)
	if _, err := cw.w.Write(cw.prefix); err != nil {
		return 0, err
	}

	n, err := cw.w.Write(p)
	if err != nil {
		return n, err
	}

	if _, err := io.WriteString(cw.w, "\r\n"); err != nil {
		return n, err
	}
	return n, nil
}

func (cw *ChunkedWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	_, err := io.WriteString(cw.w, "0\r\n\r\n")
	return err
}
