package contentstream

import (
	"reflect"
	"testing"
)

func TestParseOperations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Operation
	}{
		{
			name:  "operator without operands",
			input: "q",
			want:  []Operation{{Operator: "q", Operands: []Object{}}},
		},
		{
			name:  "numbers",
			input: "1 0 0 1 72.5 -.5 cm",
			want: []Operation{{Operator: "cm", Operands: []Object{
				Int(1), Int(0), Int(0), Int(1), Real(72.5), Real(-0.5),
			}}},
		},
		{
			name:  "font and text",
			input: "BT /F1 12 Tf (Hello) Tj ET",
			want: []Operation{
				{Operator: "BT", Operands: []Object{}},
				{Operator: "Tf", Operands: []Object{Name("F1"), Int(12)}},
				{Operator: "Tj", Operands: []Object{String("Hello")}},
				{Operator: "ET", Operands: []Object{}},
			},
		},
		{
			name:  "quote operators",
			input: "(a) ' 1 2 (b) \" T*",
			want: []Operation{
				{Operator: "'", Operands: []Object{String("a")}},
				{Operator: "\"", Operands: []Object{Int(1), Int(2), String("b")}},
				{Operator: "T*", Operands: []Object{}},
			},
		},
		{
			name:  "TJ array with kerning",
			input: "[(Hel) -120 (lo)] TJ",
			want: []Operation{{Operator: "TJ", Operands: []Object{
				Array{String("Hel"), Int(-120), String("lo")},
			}}},
		},
		{
			name:  "string escapes",
			input: `(a\(b\)c\\d\101\n) Tj`,
			want: []Operation{{Operator: "Tj", Operands: []Object{String("a(b)c\\dA\n")}}},
		},
		{
			name:  "nested parentheses",
			input: "(f(o)o) Tj",
			want:  []Operation{{Operator: "Tj", Operands: []Object{String("f(o)o")}}},
		},
		{
			name:  "hex string with odd digit",
			input: "<48 65 6C6C 6F2> Tj",
			want:  []Operation{{Operator: "Tj", Operands: []Object{String("Hello ")}}},
		},
		{
			name:  "name escape",
			input: "/Im#201 Do",
			want:  []Operation{{Operator: "Do", Operands: []Object{Name("Im 1")}}},
		},
		{
			name:  "comment skipped",
			input: "% a comment q\nQ",
			want:  []Operation{{Operator: "Q", Operands: []Object{}}},
		},
		{
			name:  "booleans and null are operands",
			input: "true false null d0",
			want: []Operation{{Operator: "d0", Operands: []Object{
				Bool(true), Bool(false), Null{},
			}}},
		},
		{
			name:  "marked content dictionary",
			input: "/Span <</ActualText (x) /MCID 3>> BDC EMC",
			want: []Operation{
				{Operator: "BDC", Operands: []Object{
					Name("Span"), Dict{"ActualText": String("x"), "MCID": Int(3)},
				}},
				{Operator: "EMC", Operands: []Object{}},
			},
		},
		{
			name:  "stray bytes skipped",
			input: "} q ) Q",
			want: []Operation{
				{Operator: "q", Operands: []Object{}},
				{Operator: "Q", Operands: []Object{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParser([]byte(tt.input)).Parse()
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"(unclosed Tj", "[1 2", "<414", "<</A 1"} {
		if _, err := NewParser([]byte(input)).Parse(); err == nil {
			t.Errorf("Parse(%q) error = nil, want error", input)
		}
	}
}

func TestParsersAreIndependent(t *testing.T) {
	a := NewParser([]byte("1 2"))
	if _, err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	ops, err := NewParser([]byte("q")).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || len(ops[0].Operands) != 0 {
		t.Errorf("operands leaked between parsers: %#v", ops)
	}
}

func TestParseInlineImage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDict Dict
		wantData []byte
	}{
		{
			name:  "abbreviated keys with computed length",
			input: "q BI /W 2 /H 2 /BPC 8 /CS /G ID \x00EI\xffE\nEI Q",
			wantDict: Dict{
				"Width": Int(2), "Height": Int(2), "BitsPerComponent": Int(8), "ColorSpace": Name("DeviceGray"),
			},
			wantData: []byte("\x00EI\xff"),
		},
		{
			name:  "filtered data ends at EI",
			input: "BI /W 1 /H 1 /F /AHx ID 00ff> EI",
			wantDict: Dict{
				"Width": Int(1), "Height": Int(1), "Filter": Name("ASCIIHexDecode"),
			},
			wantData: []byte("00ff>"),
		},
		{
			name:  "filter array expanded",
			input: "BI /W 1 /H 1 /F [/A85 /Fl] ID xyz~> EI",
			wantDict: Dict{
				"Width": Int(1), "Height": Int(1), "Filter": Array{Name("ASCII85Decode"), Name("FlateDecode")},
			},
			wantData: []byte("xyz~>"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := NewParser([]byte(tt.input)).Parse()
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			var bi *Operation
			for i := range ops {
				if ops[i].Operator == "BI" {
					bi = &ops[i]
				}
			}
			if bi == nil {
				t.Fatalf("no BI operation in %#v", ops)
			}
			if !reflect.DeepEqual(bi.Operands, []Object{tt.wantDict}) {
				t.Errorf("dict = %#v, want %#v", bi.Operands, tt.wantDict)
			}
			if string(bi.Data) != string(tt.wantData) {
				t.Errorf("data = %q, want %q", bi.Data, tt.wantData)
			}
		})
	}
}

func TestParseInlineImageFollowedByOperators(t *testing.T) {
	ops, err := NewParser([]byte("BI /W 1 /H 1 /BPC 8 ID \x7f EI Q")).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0].Operator != "BI" || ops[1].Operator != "Q" {
		t.Fatalf("ops = %#v", ops)
	}
}
