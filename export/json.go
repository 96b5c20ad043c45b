package export

import (
	"github.com/tsawler/blockstream/model"
)

// BlockJSON is the wire form of a block. Content holds a string for every
// kind except tables, where it holds the rows.
type BlockJSON struct {
	Type     string `json:"type"`
	Filename string `json:"filename,omitempty"`
	Content  any    `json:"content"`
}

// RecordJSON is the wire form of a record.
type RecordJSON struct {
	ID     string      `json:"id"`
	Source string      `json:"source"`
	Blocks []BlockJSON `json:"blocks"`
}

// TextJSON is a record flattened to text, as served by the HTTP endpoint.
type TextJSON struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Block converts b to its wire form. Meta content is framed as
// "== path ==".
func Block(b model.Block) BlockJSON {
	switch v := b.(type) {
	case model.Text:
		return BlockJSON{Type: v.Kind().String(), Content: v.Content}
	case model.Table:
		rows := v.Rows
		if rows == nil {
			rows = [][]string{}
		}
		return BlockJSON{Type: v.Kind().String(), Content: rows}
	case model.ImageOCR:
		return BlockJSON{Type: v.Kind().String(), Filename: v.Filename, Content: v.Content}
	case model.Meta:
		return BlockJSON{Type: v.Kind().String(), Content: frame(v.Content)}
	default:
		return BlockJSON{Type: b.Kind().String(), Content: b.String()}
	}
}

// Blocks converts a block sequence, never returning nil.
func Blocks(blocks []model.Block) []BlockJSON {
	out := make([]BlockJSON, len(blocks))
	for i, b := range blocks {
		out[i] = Block(b)
	}
	return out
}

// Record converts r to its wire form.
func Record(r *model.Record) RecordJSON {
	return RecordJSON{
		ID:     r.ID,
		Source: r.Source,
		Blocks: Blocks(r.Blocks),
	}
}

// Payload builds the per-record values the HTTP endpoint wraps in its
// "data" envelope. JSONL yields one encoded line per record, text yields
// TextJSON values, and blocks yields RecordJSON values.
func (e *Exporter) Payload(records []*model.Record) (any, error) {
	switch e.Format {
	case FormatJSONL:
		lines := make([]string, 0, len(records))
		for _, r := range records {
			s, err := New(FormatJSONL).String(r)
			if err != nil {
				return nil, err
			}
			lines = append(lines, s[:len(s)-1])
		}
		return lines, nil
	case FormatText:
		out := make([]TextJSON, len(records))
		for i, r := range records {
			out[i] = TextJSON{ID: r.ID, Source: r.Source, Text: Text(r)}
		}
		return out, nil
	default:
		out := make([]RecordJSON, len(records))
		for i, r := range records {
			out[i] = Record(r)
		}
		return out, nil
	}
}
