package static

import (
	"sync"
	"testing"
)

func TestContentTypeTable(t *testing.T) {
	m := NewMimeTable(nil)

	tests := map[string]string{
		"/www/index.html": "text/html",
		"/www/INDEX.HTM":  "text/html",
		"photo.JPG":       "image/jpeg",
		"photo.jpeg":      "image/jpeg",
		"anim.gif":        "image/gif",
		"old.bmp":         "image/bmp",
		"notes.txt":       "text/plain",
		"favicon.ico":     "image/x-icon",
		"app.js":          "application/javascript",
	}

	for name, want := range tests {
		if got := m.ContentType(name, nil); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestContentTypeOverrides(t *testing.T) {
	m := NewMimeTable(map[string]string{
		".WEBP": "image/webp",
		"html":  "text/html; charset=utf-8",
		"":      "ignored/empty-ext",
		"nope":  "",
	})

	if got := m.ContentType("pic.webp", nil); got != "image/webp" {
		t.Errorf("Expected image/webp, got %q", got)
	}
	if got := m.ContentType("a.html", nil); got != "text/html; charset=utf-8" {
		t.Errorf("Expected html override, got %q", got)
	}
	if _, ok := m.Lookup("nope"); ok {
		t.Error("Empty override value should be ignored")
	}

	// defaults are untouched by another table's overrides
	if got := NewMimeTable(nil).ContentType("a.html", nil); got != "text/html" {
		t.Errorf("Expected default text/html, got %q", got)
	}
}

func TestContentTypeSniffing(t *testing.T) {
	m := NewMimeTable(nil)

	if got := m.ContentType("page.nosuchext123", []byte("<!DOCTYPE html><html></html>")); got != "text/html; charset=utf-8" {
		t.Errorf("Expected sniffed html, got %q", got)
	}
	if got := m.ContentType("README", []byte("hello world\n")); got != "text/plain; charset=utf-8" {
		t.Errorf("Expected sniffed text, got %q", got)
	}
	if got := m.ContentType("README", nil); got != DefaultContentType {
		t.Errorf("Expected %s for empty unknown file, got %q", DefaultContentType, got)
	}
	if got := m.ContentType("blob", []byte{0x00, 0x01, 0x02, 0xfe}); got != DefaultContentType {
		t.Errorf("Expected %s for binary, got %q", DefaultContentType, got)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"index.html":        "html",
		"archive.tar.GZ":    "gz",
		".bashrc":           "bashrc",
		"/dir.d/file":       "",
		"file.":             "",
		"noext":             "",
		"/www/sub/page.HTM": "htm",
	}

	for name, want := range tests {
		if got := Extension(name); got != want {
			t.Errorf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestMimeTableConcurrentReads(t *testing.T) {
	m := NewMimeTable(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if m.ContentType("a.png", nil) != "image/png" {
					t.Error("unexpected content type")
					return
				}
			}
		}()
	}
	wg.Wait()
}
