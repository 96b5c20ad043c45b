package htmldoc

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsafePath is returned for archive entries that would land outside
	// the expansion directory.
	ErrUnsafePath = errors.New("unsafe path in archive")
	// ErrArchiveTooLarge is returned when the expanded archive exceeds
	// maxExpandedSize.
	ErrArchiveTooLarge = errors.New("archive expands beyond size limit")
)

// maxExpandedSize bounds the total bytes written while expanding one
// archive.
const maxExpandedSize = 1 << 30

// expand unpacks the zip archive at src into dest, which must exist.
// Symbolic links are skipped.
func expand(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()

	var written int64
	for _, f := range zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			continue
		case f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		n, err := expandFile(f, target, maxExpandedSize-written)
		written += n
		if err != nil {
			return fmt.Errorf("expanding %s: %w", f.Name, err)
		}
	}
	return nil
}

func expandFile(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if err != nil {
		return n, err
	}
	if n > budget {
		return n, ErrArchiveTooLarge
	}
	return n, nil
}

// safeJoin resolves an archive entry name below root, rejecting absolute
// names and any that climb out with "..".
func safeJoin(root, name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if name == "" || strings.HasPrefix(name, "/") || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return target, nil
}

// within reports whether path lies inside root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
