package model

import (
	"testing"
)

// ============================================================================
// Block Tests
// ============================================================================

func TestNewText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", "hello", "hello", true},
		{"trimmed", "  hello world \n", "hello world", true},
		{"empty", "", "", false},
		{"whitespace only", " \t\r\n ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewText(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NewText(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got.Content != tt.want {
				t.Errorf("NewText(%q) = %q, want %q", tt.input, got.Content, tt.want)
			}
		})
	}
}

func TestBlockKinds(t *testing.T) {
	tests := []struct {
		block Block
		kind  Kind
		name  string
	}{
		{Text{Content: "a"}, KindText, "text"},
		{Table{}, KindTable, "table"},
		{ImageOCR{}, KindImageOCR, "image_ocr"},
		{Meta{}, KindMeta, "meta"},
	}

	for _, tt := range tests {
		if got := tt.block.Kind(); got != tt.kind {
			t.Errorf("%T.Kind() = %v, want %v", tt.block, got, tt.kind)
		}
		if got := tt.kind.String(); got != tt.name {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.name)
		}
	}

	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("Kind(99).String() = %q, want unknown", got)
	}
}

func TestBlockString(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"text", Text{Content: "Hello"}, "Hello"},
		{"meta", Meta{Content: "a.html"}, "a.html"},
		{"image", ImageOCR{Filename: "image1.png", Content: "Invoice"}, "[image1.png] Invoice"},
		{"table", Table{Rows: [][]string{{"a", "b"}, {"c"}}}, "a\tb\nc"},
		{"empty table", Table{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOCRFailureMarker(t *testing.T) {
	marker := OCRFailure("image: unknown format")
	if marker != "[OCR FAILED: image: unknown format]" {
		t.Errorf("OCRFailure() = %q", marker)
	}
	if !IsOCRFailure(marker) {
		t.Error("IsOCRFailure(marker) = false, want true")
	}
	if IsOCRFailure("Quarterly report") {
		t.Error("IsOCRFailure(plain text) = true, want false")
	}
	if !(ImageOCR{Content: marker}).Failed() {
		t.Error("ImageOCR.Failed() = false, want true")
	}
}

// ============================================================================
// Record Tests
// ============================================================================

func TestNewRecord(t *testing.T) {
	blocks := []Block{
		Text{Content: "one"},
		ImageOCR{Filename: "x.png", Content: OCRFailure("boom")},
		Table{Rows: [][]string{{"a"}}},
		Text{Content: "two"},
	}

	rec := NewRecord("report.docx", blocks)
	if rec.ID == "" {
		t.Error("NewRecord() produced empty ID")
	}
	if rec.Source != "report.docx" {
		t.Errorf("Source = %q, want report.docx", rec.Source)
	}
	if len(rec.Blocks) != len(blocks) {
		t.Fatalf("len(Blocks) = %d, want %d", len(rec.Blocks), len(blocks))
	}

	blocks[0] = Meta{Content: "mutated"}
	if rec.Blocks[0].Kind() != KindText {
		t.Error("record aliases the caller's slice")
	}

	other := NewRecord("report.docx", blocks)
	if other.ID == rec.ID {
		t.Error("two records share an ID")
	}

	counts := rec.Counts()
	if counts[KindText] != 2 || counts[KindTable] != 1 || counts[KindImageOCR] != 1 || counts[KindMeta] != 0 {
		t.Errorf("Counts() = %v", counts)
	}

	if failed := rec.OCRFailures(); len(failed) != 1 || failed[0].Filename != "x.png" {
		t.Errorf("OCRFailures() = %v", failed)
	}
}
