// Package export frames extraction records for output. Three framings are
// supported: a JSON array of blocks, JSON Lines with one record per line,
// and flattened plain text.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/blockstream/model"
)

// Format selects an output framing.
type Format int

const (
	// FormatBlocks writes a JSON array of typed blocks
	FormatBlocks Format = iota
	// FormatJSONL writes one JSON object per record per line
	FormatJSONL
	// FormatText writes the flattened text of every block
	FormatText
)

// String returns the name accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatBlocks:
		return "blocks"
	case FormatJSONL:
		return "jsonl"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// FileExtension returns the typical file extension for this format
func (f Format) FileExtension() string {
	switch f {
	case FormatBlocks:
		return ".json"
	case FormatJSONL:
		return ".jsonl"
	default:
		return ".txt"
	}
}

// ParseFormat maps a user-supplied name to a Format. Matching ignores case
// and surrounding whitespace; "json" is an alias for "blocks".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocks", "json":
		return FormatBlocks, nil
	case "jsonl":
		return FormatJSONL, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", s)
	}
}

// Exporter writes records in a single format.
type Exporter struct {
	Format Format

	// PrettyPrint indents FormatBlocks output. JSONL is never indented.
	PrettyPrint bool
}

// New returns an exporter for f.
func New(f Format) *Exporter {
	return &Exporter{Format: f}
}

// ContentType returns the MIME type of the exporter's output.
func (e *Exporter) ContentType() string {
	switch e.Format {
	case FormatBlocks:
		return "application/json"
	case FormatJSONL:
		return "application/x-ndjson"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write frames records onto w.
//
// FormatBlocks writes the bare block array when given a single record and
// an array of record objects otherwise. FormatText separates the records
// of a multi-record write with a "== source ==" header.
func (e *Exporter) Write(w io.Writer, records ...*model.Record) error {
	switch e.Format {
	case FormatBlocks:
		return e.writeBlocks(w, records)
	case FormatJSONL:
		return e.writeJSONL(w, records)
	case FormatText:
		return e.writeText(w, records)
	default:
		return fmt.Errorf("unsupported export format: %v", e.Format)
	}
}

// String renders records to a string.
func (e *Exporter) String(records ...*model.Record) (string, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, records...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) writeBlocks(w io.Writer, records []*model.Record) error {
	enc := newEncoder(w)
	if e.PrettyPrint {
		enc.SetIndent("", "  ")
	}

	var v any
	if len(records) == 1 {
		v = Blocks(records[0].Blocks)
	} else {
		out := make([]RecordJSON, len(records))
		for i, r := range records {
			out[i] = Record(r)
		}
		v = out
	}

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}
	return nil
}

func (e *Exporter) writeJSONL(w io.Writer, records []*model.Record) error {
	enc := newEncoder(w)
	for _, r := range records {
		if err := enc.Encode(Record(r)); err != nil {
			return fmt.Errorf("failed to encode record %s: %w", r.Source, err)
		}
	}
	return nil
}

func (e *Exporter) writeText(w io.Writer, records []*model.Record) error {
	multi := len(records) > 1
	for i, r := range records {
		var sb strings.Builder
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if multi {
			sb.WriteString(frame(r.Source))
			sb.WriteString("\n\n")
		}
		sb.WriteString(Text(r))
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	if len(records) > 0 {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

// Text flattens a record's blocks and joins them with a blank line.
func Text(r *model.Record) string {
	parts := make([]string, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		if m, ok := b.(model.Meta); ok {
			parts = append(parts, frame(m.Content))
			continue
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

func frame(s string) string {
	return "== " + s + " =="
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}
