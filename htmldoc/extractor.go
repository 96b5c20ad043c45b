package htmldoc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tsawler/blockstream/internal/blockseq"
	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/ocr"
	"github.com/tsawler/blockstream/staging"
)

// Extractor turns ZIP archives of HTML pages into blocks.
type Extractor struct {
	ocr     *ocr.Adapter
	staging *staging.Manager
	logger  *slog.Logger

	// Concurrency is the number of images recognized at once.
	Concurrency int
}

// NewExtractor returns an extractor that expands archives and stages
// images under mgr.
func NewExtractor(adapter *ocr.Adapter, mgr *staging.Manager) *Extractor {
	if adapter == nil {
		adapter = ocr.NewAdapter(nil, ocr.Config{}, nil)
	}
	return &Extractor{ocr: adapter, staging: mgr, logger: slog.Default()}
}

// WithLogger sets the logger used for pages that cannot be parsed.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Extract expands the archive at filename and returns the blocks of every
// HTML page inside it. All expanded files are removed before returning.
func (e *Extractor) Extract(ctx context.Context, filename string) ([]model.Block, error) {
	expanded, err := e.staging.Acquire("zip")
	if err != nil {
		return nil, err
	}
	defer expanded.Release()

	if err := expand(filename, expanded.Dir()); err != nil {
		return nil, err
	}

	images, err := e.staging.Acquire("zipimg")
	if err != nil {
		return nil, err
	}
	defer images.Release()

	pages, err := htmlFiles(expanded.Dir())
	if err != nil {
		return nil, err
	}

	var seq blockseq.Sequence
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.addPage(&seq, images, expanded.Dir(), page)
	}

	return seq.Resolve(ctx, e.Concurrency)
}

// addPage appends the Meta block for page followed by its body blocks.
// A page that cannot be parsed contributes only its Meta block.
func (e *Extractor) addPage(seq *blockseq.Sequence, area *staging.Area, root, page string) {
	rel, err := filepath.Rel(root, page)
	if err != nil {
		rel = filepath.Base(page)
	}
	seq.Add(model.Meta{Content: filepath.ToSlash(rel)})

	rd, err := Open(page)
	if err != nil {
		e.logger.Warn("skipping unreadable page", slog.String("page", filepath.ToSlash(rel)), slog.String("error", err.Error()))
		return
	}

	for _, el := range rd.Elements() {
		switch el.Kind {
		case ElementText:
			seq.AddText(el.Text)
		case ElementImage:
			src, ok := resolveSrc(root, filepath.Dir(page), el.Src)
			if !ok {
				continue
			}
			// Staged names carry the slot index so images with the same
			// base name in different folders never collide.
			staged := strconv.Itoa(seq.Len()) + "_" + filepath.Base(src)
			seq.AddImage(filepath.Base(src), func(ctx context.Context) string {
				return e.ocr.RecognizeFile(ctx, area, staged, src)
			})
		}
	}
}

// resolveSrc maps an img src to a regular file inside root. Sources that
// are remote, inline, escape root, or do not exist are rejected.
func resolveSrc(root, dir, src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}

	var p string
	if strings.HasPrefix(u.Path, "/") {
		p = filepath.Join(root, filepath.FromSlash(path.Clean(u.Path)))
	} else {
		p = filepath.Join(dir, filepath.FromSlash(u.Path))
	}
	if !within(root, p) {
		return "", false
	}

	info, err := os.Lstat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// htmlFiles lists the .html and .htm files under root. Within each
// directory the files come first, sorted by name, followed by the
// subdirectories in name order.
func htmlFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	var files, dirs []string
	for _, entry := range entries {
		p := filepath.Join(root, entry.Name())
		switch {
		case entry.IsDir():
			dirs = append(dirs, p)
		case entry.Type().IsRegular() && isHTML(entry.Name()):
			files = append(files, p)
		}
	}

	for _, d := range dirs {
		sub, err := htmlFiles(d)
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}
	return files, nil
}

func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
