// Package staging manages the scratch directories that extractors use to
// hold images between pulling them out of a document and recognizing them.
//
// Every call to [Manager.Acquire] returns a new [Area] backed by its own
// uniquely named directory, so concurrent extractions never see each
// other's files. Callers defer [Area.Release] immediately after acquiring:
//
//	area, err := mgr.Acquire("docx")
//	if err != nil {
//	    return nil, err
//	}
//	defer area.Release()
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrReleased is returned when an Area is used after Release.
	ErrReleased = errors.New("staging area already released")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid staging file name")
)

// Manager creates staging areas below a root directory.
type Manager struct {
	root string
}

// NewManager returns a Manager rooted at root. An empty root uses the
// system temporary directory.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the directory under which areas are created.
func (m *Manager) Root() string {
	if m == nil || m.root == "" {
		return os.TempDir()
	}
	return m.root
}

// Acquire creates a fresh, empty area. The prefix only makes directory
// listings readable; uniqueness comes from a random token.
func (m *Manager) Acquire(prefix string) (*Area, error) {
	root := m.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("staging root: %w", err)
	}

	if prefix == "" {
		prefix = "blockstream"
	}
	dir := filepath.Join(root, prefix+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging area: %w", err)
	}

	return &Area{dir: dir}, nil
}

// Area is one exclusively owned scratch directory.
type Area struct {
	mu       sync.Mutex
	dir      string
	released bool
}

// Dir returns the directory backing the area.
func (a *Area) Dir() string {
	return a.dir
}

// path validates name and returns its location inside the area.
func (a *Area) path(name string) (string, error) {
	a.mu.Lock()
	released := a.released
	a.mu.Unlock()
	if released {
		return "", ErrReleased
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(a.dir, name), nil
}

// Write stores data under name and returns the full path.
func (a *Area) Write(name string, data []byte) (string, error) {
	p, err := a.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write staged file: %w", err)
	}
	return p, nil
}

// Create opens a new file under name for writing.
func (a *Area) Create(name string) (*os.File, error) {
	p, err := a.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	return f, nil
}

// Copy copies the file at src into the area under name.
func (a *Area) Copy(name, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := a.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("copy into staging: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("copy into staging: %w", err)
	}
	return out.Name(), nil
}

// Remove deletes a staged file. Removing a file that is already gone is
// not an error.
func (a *Area) Remove(path string) error {
	if filepath.Dir(path) != filepath.Clean(a.dir) {
		return fmt.Errorf("%w: %q is outside the area", ErrInvalidName, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// files lists the names currently staged, sorted.
func (a *Area) files() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Release removes the area and everything in it. It is safe to call more
// than once and on a nil Area.
func (a *Area) Release() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true
	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("release staging area: %w", err)
	}
	return nil
}
