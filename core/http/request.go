package http

import (
	"strconv"
	"strings"
)

// Method is the dispatch class of a request method
type Method int

const (
	MethodOther Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodTrace
)

// ParseMethod maps a method token to its dispatch class (case-sensitive)
func ParseMethod(token string) Method {
	switch token {
	case "GET":
		return MethodGet
	case "HEAD":
		return MethodHead
	case "POST":
		return MethodPost
	case "TRACE":
		return MethodTrace
	default:
		return MethodOther
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	case MethodTrace:
		return "TRACE"
	default:
		return "OTHER"
	}
}

// Header names consulted by the dispatcher. Matching is exact and
// case-sensitive on the "key:" prefix of a raw header line.
const (
	HeaderContentLength = "Content-Length"
	HeaderChunked       = "chunked"
)

// Request is a parsed request head. It is not modified after parsing.
type Request struct {
	Method     Method
	MethodName string
	Target     string
	Proto      string

	// HeaderLines holds raw header lines in arrival order, duplicates kept
	HeaderLines []string

	// RawText is every head line followed by CRLF
	RawText string
}

// Header returns the trimmed value of the first header line starting with
// "key:". The key comparison is case-sensitive.
func (r *Request) Header(key string) (string, bool) {
	prefix := key + ":"
	for _, line := range r.HeaderLines {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// ContentLength returns the declared body length. A missing, malformed or
// negative Content-Length yields 0.
func (r *Request) ContentLength() int {
	v, ok := r.Header(HeaderContentLength)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// WantsChunked reports whether the client opted into a chunked response
// with the non-standard "chunked: yes" header line.
func (r *Request) WantsChunked() bool {
	prefix := HeaderChunked + ":"
	for _, line := range r.HeaderLines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		// value ends at the next colon, if any
		value := line[len(prefix):]
		if i := strings.IndexByte(value, ':'); i >= 0 {
			value = value[:i]
		}
		if strings.EqualFold(strings.TrimSpace(value), "yes") {
			return true
		}
	}
	return false
}
