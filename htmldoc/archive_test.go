package htmldoc

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSafeJoin(t *testing.T) {
	root := filepath.FromSlash("/tmp/root")
	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{"plain", "a.html", filepath.Join(root, "a.html"), false},
		{"nested", "pages/b.htm", filepath.Join(root, "pages", "b.htm"), false},
		{"inner dotdot", "pages/../a.html", filepath.Join(root, "a.html"), false},
		{"escape", "../evil.txt", "", true},
		{"deep escape", "a/../../evil.txt", "", true},
		{"backslash escape", `..\evil.txt`, "", true},
		{"absolute", "/etc/passwd", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safeJoin(root, tt.entry)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Errorf("safeJoin(%q) error = %v, want ErrUnsafePath", tt.entry, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("safeJoin(%q) error = %v", tt.entry, err)
			}
			if got != tt.want {
				t.Errorf("safeJoin(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}
