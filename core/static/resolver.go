package static

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("path escapes document root")
)

// Resource is a request target resolved against a document root
type Resource struct {
	// Path is absolute and normalized
	Path string

	// WithinRoot is true iff Path is the root or nested under it
	WithinRoot bool
}

// Resolve resolves target against root without touching the filesystem.
// One leading '/' is stripped; a remainder that is still absolute resolves
// to itself, anything else is joined to root. Query and fragment components
// are ignored.
func Resolve(root, target string) Resource {
	root = cleanRoot(root)

	rel := stripQuery(target)
	rel = strings.TrimPrefix(rel, "/")

	var resolved string
	if filepath.IsAbs(rel) {
		resolved = filepath.Clean(rel)
	} else {
		resolved = filepath.Join(root, rel)
	}

	return Resource{
		Path:       resolved,
		WithinRoot: within(root, resolved),
	}
}

// Resolver maps request targets to files under one document root. It is
// immutable and safe for concurrent use.
type Resolver struct {
	root        string
	defaultPage string
}

// NewResolver creates a resolver. root is made absolute; any '~' must
// already be expanded.
func NewResolver(root, defaultPage string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("static: empty document root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("static: resolve root %q: %w", root, err)
	}
	return &Resolver{
		root:        abs,
		defaultPage: defaultPage,
	}, nil
}

// Root returns the absolute document root
func (r *Resolver) Root() string {
	return r.root
}

// Locate returns the file that serves target. The default page is chosen
// for "/", the empty target, and any target resolving to the root itself.
// ErrOutsideRoot is returned before any filesystem access when the target,
// or the final path, falls outside the root.
func (r *Resolver) Locate(target string) (string, error) {
	res := Resolve(r.root, target)
	if !res.WithinRoot {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, target)
	}

	var name string
	if target == "/" || res.Path == r.root {
		name = r.defaultPage
	} else {
		rel, err := filepath.Rel(r.root, res.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrOutsideRoot, target)
		}
		name = rel
	}

	file := filepath.Join(r.root, name)
	if !within(r.root, file) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	return file, nil
}

func cleanRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}

// within is a component-wise prefix check
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

func stripQuery(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}
