package core

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/searchktools/docroot-server/config"
	"github.com/searchktools/docroot-server/core/http"
	"github.com/searchktools/docroot-server/core/observability"
	"github.com/searchktools/docroot-server/core/static"
)

// Handler serves one connection: it reads a single request, writes a
// single response and returns. It holds only immutable state and is shared
// by all workers.
type Handler struct {
	resolver *static.Resolver
	mimes    *static.MimeTable
	monitor  *observability.Monitor

	chunkSize      int
	maxHeaderBytes int
	maxBodyBytes   int
	escapeForm     bool
	quiet          bool
}

// NewHandler builds a handler from cfg. monitor may be nil.
func NewHandler(cfg *config.Config, monitor *observability.Monitor) (*Handler, error) {
	resolver, err := static.NewResolver(cfg.Root, cfg.DefaultPage)
	if err != nil {
		return nil, err
	}

	return &Handler{
		resolver:       resolver,
		mimes:          static.NewMimeTable(cfg.MimeOverrides),
		monitor:        monitor,
		chunkSize:      cfg.ChunkSize,
		maxHeaderBytes: cfg.MaxHeaderBytes,
		maxBodyBytes:   cfg.MaxBodyBytes,
		escapeForm:     cfg.EscapeFormHTML,
		quiet:          cfg.Quiet,
	}, nil
}

// Handle serves a single request read from rw using cfg
func Handle(rw io.ReadWriter, cfg *config.Config) error {
	h, err := NewHandler(cfg, nil)
	if err != nil {
		return err
	}
	return h.Handle(rw)
}

// Handle reads one request from rw and writes the response to it. The
// returned error is a transport failure; protocol problems are answered
// with a status code instead.
func (h *Handler) Handle(rw io.ReadWriter) error {
	start := h.monitor.StartTrace()

	br := bufio.NewReader(rw)
	out := http.NewResponseWriter(rw, h.chunkSize)

	req, err := http.ReadRequest(br, h.maxHeaderBytes)
	if err != nil {
		if errors.Is(err, http.ErrHeaderTooLarge) {
			h.monitor.EndTrace(observability.RouteKey("OTHER", http.StatusBadRequest), start, false)
			return out.WriteEmpty(http.StatusBadRequest)
		}
		return fmt.Errorf("read request: %w", err)
	}

	h.logRequest(req)

	status, err := h.dispatch(req, br, out)
	h.monitor.EndTrace(observability.RouteKey(req.Method.String(), status), start,
		err != nil || status >= http.StatusInternalServerError)
	return err
}

func (h *Handler) logRequest(req *http.Request) {
	if h.quiet {
		return
	}
	log.Printf("request: '%s' '%s'", req.MethodName, req.Target)
	for _, line := range req.HeaderLines {
		log.Printf("  header: '%s'", line)
	}
}

// dispatch routes by method. The path check runs first for every method,
// before any filesystem access.
func (h *Handler) dispatch(req *http.Request, body *bufio.Reader, out *http.ResponseWriter) (int, error) {
	file, err := h.resolver.Locate(req.Target)
	if err != nil {
		if !h.quiet {
			log.Printf("rejected: %v", err)
		}
		return http.StatusBadRequest, out.WriteFixed(http.StatusBadRequest, ContentTypeText, []byte(badPathMessage))
	}

	switch req.Method {
	case http.MethodGet:
		return h.serveFile(out, file, req.WantsChunked(), true)
	case http.MethodHead:
		return h.serveFile(out, file, false, false)
	case http.MethodPost:
		return h.serveForm(req, body, out)
	case http.MethodTrace:
		return http.StatusOK, out.WriteFixed(http.StatusOK, ContentTypeTrace, []byte(req.RawText))
	default:
		return http.StatusNotImplemented, out.WriteEmpty(http.StatusNotImplemented)
	}
}

// serveFile answers GET (withBody) and HEAD for file
func (h *Handler) serveFile(out *http.ResponseWriter, file string, chunked, withBody bool) (int, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return http.StatusNotFound, out.WriteEmpty(http.StatusNotFound)
		}
		log.Printf("read %s: %v", file, err)
		return http.StatusInternalServerError, out.WriteEmpty(http.StatusInternalServerError)
	}

	contentType := h.mimes.ContentType(file, data)

	switch {
	case !withBody:
		return http.StatusOK, out.WriteHeadOnly(http.StatusOK, contentType, len(data))
	case chunked:
		return http.StatusOK, out.WriteChunked(http.StatusOK, contentType, bytes.NewReader(data))
	default:
		return http.StatusOK, out.WriteFixed(http.StatusOK, contentType, data)
	}
}

// serveForm handles POST. Only ParamsInfoTarget is recognized.
func (h *Handler) serveForm(req *http.Request, br *bufio.Reader, out *http.ResponseWriter) (int, error) {
	if req.Target != ParamsInfoTarget {
		return http.StatusNotFound, out.WriteEmpty(http.StatusNotFound)
	}

	n := req.ContentLength()
	if n > h.maxBodyBytes {
		return http.StatusBadRequest, out.WriteEmpty(http.StatusBadRequest)
	}

	body := make([]byte, n)
	got, err := io.ReadFull(br, body)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read body: %w", err)
	}

	params := http.DecodeForm(string(body[:got]))
	page := renderParamsInfo(params, h.escapeForm)
	return http.StatusOK, out.WriteFixed(http.StatusOK, ContentTypeHTML, []byte(page))
}

// renderParamsInfo renders the form report page. The message is embedded
// verbatim unless escape is set.
func renderParamsInfo(params map[string]string, escape bool) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head><title>Form Submission</title></head><body>")
	b.WriteString("<h1>Form Submission Details</h1>")

	if msg, ok := params[FieldMessage]; ok {
		if escape {
			msg = html.EscapeString(msg)
		}
		b.WriteString("<p><b>Message:</b> " + msg + "</p>")
	} else {
		b.WriteString("<p><b>Message:</b> (No message provided)</p>")
	}

	if params[FieldLoveCN] == "yes" {
		b.WriteString("<p><b>I love Computer Networks:</b> Yes</p>")
	} else {
		b.WriteString("<p><b>I love Computer Networks:</b> No</p>")
	}

	b.WriteString("</body></html>")
	return b.String()
}
