// Package fs stores downloaded documents and diagnostics on disk.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/billfetch"
)

// Ensure FileStore implements billfetch.FileStore at compile time.
var _ billfetch.FileStore = (*FileStore)(nil)

// FileStore writes files into a single directory. Each write goes to a
// temporary file that is renamed into place, so a crash never leaves a
// truncated document behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a new FileStore rooted at dir. The directory is
// created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// ProviderDir returns the download directory of a provider under root.
func ProviderDir(root, providerID string) string {
	return filepath.Join(root, providerID)
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Write stores data under name, replacing any existing file.
func (s *FileStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return billfetch.Errorf(billfetch.EINVALID, "invalid file name %q", name)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return billfetch.Errorf(billfetch.EINVALID, "file name %q must not contain path separators", name)
	}
	return nil
}

// DiagnosticsDir is the subdirectory diagnostics are written to.
const DiagnosticsDir = "debug"

// Diagnostics writes page snapshots for offline inspection.
type Diagnostics struct {
	store *FileStore
}

// NewDiagnostics creates a Diagnostics writing under dir/debug.
func NewDiagnostics(dir string) *Diagnostics {
	return &Diagnostics{store: NewFileStore(filepath.Join(dir, DiagnosticsDir))}
}

// Save writes the page HTML as <name>.html and returns its path. The page
// URL is recorded in a leading comment.
func (d *Diagnostics) Save(ctx context.Context, name, pageURL, html string) (string, error) {
	content := fmt.Sprintf("<!-- %s -->\n%s", strings.ReplaceAll(pageURL, "--", "%2D%2D"), html)
	return d.store.Write(ctx, sanitize(name)+".html", []byte(content))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
