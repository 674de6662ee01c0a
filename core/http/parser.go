package http

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var (
	ErrHeaderTooLarge = errors.New("request head too large")
)

// DefaultMaxHeaderBytes bounds the request head when no limit is given
const DefaultMaxHeaderBytes = 64 << 10

// ReadRequest reads a request head line by line until an empty line or the
// end of the stream. A missing or malformed request line is not an error:
// the resulting Request simply has an empty method and target.
//
// Only transport errors and ErrHeaderTooLarge are returned. Body bytes, if
// any, stay buffered in br.
func ReadRequest(br *bufio.Reader, maxHeaderBytes int) (*Request, error) {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}

	var (
		raw   strings.Builder
		lines []string
		total int
	)

	for {
		line, err := readLine(br, &total, maxHeaderBytes)
		if err != nil && err != io.EOF {
			return nil, err
		}

		eof := err == io.EOF
		line = trimEOL(line)

		if line == "" {
			// empty line terminates the head; at EOF nothing was left
			break
		}

		raw.WriteString(line)
		raw.WriteString("\r\n")
		lines = append(lines, line)

		if eof {
			break
		}
	}

	req := &Request{RawText: raw.String()}
	if len(lines) > 0 {
		parseRequestLine(req, lines[0])
		req.HeaderLines = lines[1:]
	}
	req.Method = ParseMethod(req.MethodName)

	return req, nil
}

// parseRequestLine splits METHOD TARGET [VERSION] on single spaces
func parseRequestLine(req *Request, line string) {
	parts := strings.Split(line, " ")
	req.MethodName = parts[0]
	if len(parts) > 1 {
		req.Target = parts[1]
	}
	if len(parts) > 2 {
		req.Proto = parts[2]
	}
}

// readLine reads up to and including '\n', adding what it consumes to
// total. It fails with ErrHeaderTooLarge as soon as total passes max, so at
// most one buffer beyond the limit is ever read.
func readLine(br *bufio.Reader, total *int, max int) (string, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		*total += len(frag)
		if *total > max {
			return "", ErrHeaderTooLarge
		}
		line = append(line, frag...)

		if err == bufio.ErrBufferFull {
			continue
		}
		return string(line), err
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
