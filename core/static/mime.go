package static

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultContentType is returned when nothing else identifies a file
const DefaultContentType = "application/octet-stream"

// defaultTypes is keyed by lowercase extension without the dot
var defaultTypes = map[string]string{
	"html": "text/html",
	"htm":  "text/html",
	"txt":  "text/plain",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",
	"pdf":  "application/pdf",
}

// MimeTable maps file extensions to content types. It is never modified
// after construction, so one table is shared by all connections.
type MimeTable struct {
	types map[string]string
}

// NewMimeTable builds a table from the defaults plus overrides. Override
// keys are normalized to lowercase without a leading dot.
func NewMimeTable(overrides map[string]string) *MimeTable {
	types := make(map[string]string, len(defaultTypes)+len(overrides))
	for ext, typ := range defaultTypes {
		types[ext] = typ
	}
	for ext, typ := range overrides {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" || typ == "" {
			continue
		}
		types[ext] = typ
	}
	return &MimeTable{types: types}
}

// Lookup returns the table entry for ext (no dot, any case)
func (m *MimeTable) Lookup(ext string) (string, bool) {
	typ, ok := m.types[strings.ToLower(ext)]
	return typ, ok
}

// ContentType resolves the content type of the file called name. The table
// is consulted first, then the platform MIME database, then content
// sniffing over content.
func (m *MimeTable) ContentType(name string, content []byte) string {
	ext := Extension(name)
	if ext != "" {
		if typ, ok := m.types[ext]; ok {
			return typ
		}
		if typ := mime.TypeByExtension("." + ext); typ != "" {
			return typ
		}
	}

	if len(content) > 0 {
		return http.DetectContentType(content)
	}
	return DefaultContentType
}

// Extension returns the lowercase text after the last '.' of the base name
func Extension(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
