// Package docx extracts ordered blocks from DOCX (Office Open XML)
// documents.
//
// The body is streamed in document order, so paragraphs and tables come
// out interleaved exactly as they appear. Within a paragraph, text that
// precedes a drawing is emitted before the drawing's image, and text that
// follows it after:
//
//	ex := docx.NewExtractor(adapter, staging.NewManager(""))
//	blocks, err := ex.Extract(ctx, "report.docx")
//
// Images are paired with drawings through the drawing's relationship id.
// When a drawing's reference cannot be resolved, the next image not yet
// used, in archive order, is taken instead.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrInvalidArchive is returned for files that are not a readable DOCX
// package.
var ErrInvalidArchive = errors.New("invalid docx archive")

const mediaPrefix = "word/media/"

// Reader provides access to the parts of a DOCX package.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	rels      map[string]relationshipXML
	media     []*zip.File
}

// Open opens a DOCX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: opening ZIP archive: %v", ErrInvalidArchive, err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		r.files[f.Name] = f
		if strings.HasPrefix(f.Name, mediaPrefix) && !f.FileInfo().IsDir() {
			r.media = append(r.media, f)
		}
	}

	// Validate required files exist
	if err := r.validate(); err != nil {
		zr.Close()
		return nil, err
	}

	if err := r.parseRelationships(); err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: parsing relationships: %v", ErrInvalidArchive, err)
	}

	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.zipReader != nil {
		err := r.zipReader.Close()
		r.zipReader = nil
		return err
	}
	return nil
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	required := []string{
		"[Content_Types].xml",
		"word/document.xml",
	}

	for _, name := range required {
		if r.files[name] == nil {
			return fmt.Errorf("%w: missing required file: %s", ErrInvalidArchive, name)
		}
	}

	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f := r.files[name]
	if f == nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseRelationships parses the document relationships file. The file is
// optional; without it no drawing can be resolved by id.
func (r *Reader) parseRelationships() error {
	r.rels = make(map[string]relationshipXML)

	data, err := r.getFileContent("word/_rels/document.xml.rels")
	if err != nil {
		return nil
	}

	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return err
	}
	for _, rel := range rels.Relationships {
		r.rels[rel.ID] = rel
	}
	return nil
}

// body parses word/document.xml into its ordered top-level elements.
func (r *Reader) body() ([]bodyElement, error) {
	rc, err := r.files["word/document.xml"].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening document.xml: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()

	elements, err := parseBody(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document.xml: %v", ErrInvalidArchive, err)
	}
	return elements, nil
}

// mediaNames returns the names of the embedded media files in archive order.
func (r *Reader) mediaNames() []string {
	names := make([]string, len(r.media))
	for i, f := range r.media {
		names[i] = f.Name
	}
	return names
}

// resolveImage maps a relationship id to the archive path of an internal
// media part. It reports false for unknown ids and external targets.
func (r *Reader) resolveImage(id string) (string, bool) {
	rel, ok := r.rels[id]
	if !ok || strings.EqualFold(rel.TargetMode, "External") || rel.Target == "" {
		return "", false
	}

	target := strings.ReplaceAll(rel.Target, "\\", "/")
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		p = path.Clean(path.Join("word", target))
	}

	if r.files[p] == nil {
		return "", false
	}
	return p, true
}
