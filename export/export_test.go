package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tsawler/blockstream/model"
)

func sampleRecord() *model.Record {
	return &model.Record{
		ID:     "id-1",
		Source: "doc.docx",
		Blocks: []model.Block{
			model.Text{Content: "Intro <b>"},
			model.Table{Rows: [][]string{{"a", "b"}, {"c"}}},
			model.ImageOCR{Filename: "image1.png", Content: "caption"},
			model.Meta{Content: "sub/a.html"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"blocks", FormatBlocks, false},
		{"JSON", FormatBlocks, false},
		{" jsonl ", FormatJSONL, false},
		{"text", FormatText, false},
		{"csv", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatStrings(t *testing.T) {
	tests := []struct {
		f           Format
		name, ext   string
		contentType string
	}{
		{FormatBlocks, "blocks", ".json", "application/json"},
		{FormatJSONL, "jsonl", ".jsonl", "application/x-ndjson"},
		{FormatText, "text", ".txt", "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.f.FileExtension(); got != tt.ext {
			t.Errorf("FileExtension() = %q, want %q", got, tt.ext)
		}
		if got := New(tt.f).ContentType(); got != tt.contentType {
			t.Errorf("ContentType() = %q, want %q", got, tt.contentType)
		}
	}
}

func TestWriteBlocks(t *testing.T) {
	out, err := New(FormatBlocks).String(sampleRecord())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := `[{"type":"text","content":"Intro <b>"},` +
		`{"type":"table","content":[["a","b"],["c"]]},` +
		`{"type":"image_ocr","filename":"image1.png","content":"caption"},` +
		`{"type":"meta","content":"== sub/a.html =="}]` + "\n"
	if out != want {
		t.Errorf("got  %s\nwant %s", out, want)
	}
}

func TestWriteBlocksMultipleRecords(t *testing.T) {
	second := &model.Record{ID: "id-2", Source: "b.txt", Blocks: []model.Block{model.Text{Content: "x"}}}

	out, err := New(FormatBlocks).String(sampleRecord(), second)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var got []RecordJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not a record array: %v", err)
	}
	if len(got) != 2 || got[0].Source != "doc.docx" || got[1].ID != "id-2" {
		t.Errorf("unexpected records: %+v", got)
	}
	if len(got[0].Blocks) != 4 {
		t.Errorf("first record has %d blocks, want 4", len(got[0].Blocks))
	}
}

func TestWriteJSONL(t *testing.T) {
	second := &model.Record{ID: "id-2", Source: "empty.txt"}

	out, err := New(FormatJSONL).String(sampleRecord(), second)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}

	var first RecordJSON
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not JSON: %v", err)
	}
	if first.ID != "id-1" || first.Source != "doc.docx" || len(first.Blocks) != 4 {
		t.Errorf("unexpected first record: %+v", first)
	}

	if want := `{"id":"id-2","source":"empty.txt","blocks":[]}`; lines[1] != want {
		t.Errorf("line 2 = %s, want %s", lines[1], want)
	}
}

func TestWriteText(t *testing.T) {
	out, err := New(FormatText).String(sampleRecord())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := "Intro <b>\n\na\tb\nc\n\n[image1.png] caption\n\n== sub/a.html ==\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestWriteTextMultipleRecords(t *testing.T) {
	a := &model.Record{Source: "a.txt", Blocks: []model.Block{model.Text{Content: "one"}}}
	b := &model.Record{Source: "b.txt", Blocks: []model.Block{model.Text{Content: "two"}}}

	out, err := New(FormatText).String(a, b)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := "== a.txt ==\n\none\n\n== b.txt ==\n\ntwo\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPayload(t *testing.T) {
	r := sampleRecord()

	t.Run("jsonl", func(t *testing.T) {
		v, err := New(FormatJSONL).Payload([]*model.Record{r})
		if err != nil {
			t.Fatal(err)
		}
		lines, ok := v.([]string)
		if !ok || len(lines) != 1 {
			t.Fatalf("unexpected payload %#v", v)
		}
		if strings.HasSuffix(lines[0], "\n") {
			t.Error("line should not carry a trailing newline")
		}
		if !strings.HasPrefix(lines[0], `{"id":"id-1","source":"doc.docx"`) {
			t.Errorf("unexpected line %s", lines[0])
		}
	})

	t.Run("text", func(t *testing.T) {
		v, err := New(FormatText).Payload([]*model.Record{r})
		if err != nil {
			t.Fatal(err)
		}
		texts, ok := v.([]TextJSON)
		if !ok || len(texts) != 1 {
			t.Fatalf("unexpected payload %#v", v)
		}
		if texts[0].Text != Text(r) || texts[0].Source != "doc.docx" {
			t.Errorf("unexpected text payload %+v", texts[0])
		}
	})

	t.Run("blocks", func(t *testing.T) {
		v, err := New(FormatBlocks).Payload(nil)
		if err != nil {
			t.Fatal(err)
		}
		recs, ok := v.([]RecordJSON)
		if !ok || recs == nil || len(recs) != 0 {
			t.Fatalf("want empty non-nil slice, got %#v", v)
		}
	})
}
