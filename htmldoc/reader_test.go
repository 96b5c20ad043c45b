package htmldoc

import (
	"reflect"
	"strings"
	"testing"
)

func TestElements(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []Element
	}{
		{
			name: "headings and paragraphs",
			html: `<html><body><h1>Title</h1><p>First para</p><h2> Sub </h2></body></html>`,
			want: []Element{
				{Kind: ElementText, Text: "Title"},
				{Kind: ElementText, Text: "First para"},
				{Kind: ElementText, Text: "Sub"},
			},
		},
		{
			name: "stripped strings joined without separator",
			html: "<body><p>Hello\n  <b>big</b>\n world</p></body>",
			want: []Element{{Kind: ElementText, Text: "Hellobigworld"}},
		},
		{
			name: "only direct children",
			html: `<body><section><p>nested</p></section><div><p>inside div</p></div></body>`,
			want: []Element{{Kind: ElementText, Text: "inside div"}},
		},
		{
			name: "images keep raw src",
			html: `<body><p>a</p><img src="img/x%20y.png"><span>b</span></body>`,
			want: []Element{
				{Kind: ElementText, Text: "a"},
				{Kind: ElementImage, Src: "img/x%20y.png"},
				{Kind: ElementText, Text: "b"},
			},
		},
		{
			name: "script and style are not text",
			html: `<body><div>keep<script>var x;</script><style>p{}</style></div></body>`,
			want: []Element{{Kind: ElementText, Text: "keep"}},
		},
		{
			name: "blank elements dropped",
			html: `<body><p>   </p><h3></h3><ul><li>list</li></ul></body>`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := OpenReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("OpenReader() error = %v", err)
			}
			if got := rd.Elements(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Elements() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestOpenReaderCharset(t *testing.T) {
	// "café" in ISO-8859-1 with a meta declaration.
	src := "<html><head><meta charset=\"iso-8859-1\"></head><body><p>caf\xe9</p></body></html>"
	rd, err := OpenReader(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	els := rd.Elements()
	if len(els) != 1 || els[0].Text != "café" {
		t.Errorf("Elements() = %#v, want café", els)
	}
}
