package pdf

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

// fakeResources decodes text by upper-casing it in font "U" and passing
// it through otherwise.
type fakeResources struct {
	xobjects map[string]xobject
}

func (f *fakeResources) text(font string, raw []byte) string {
	if font == "U" {
		return strings.ToUpper(string(raw))
	}
	return string(raw)
}

func (f *fakeResources) xobject(name string) (xobject, bool) {
	xo, ok := f.xobjects[name]
	return xo, ok
}

// summarize renders items as "T:text" and "I:objNr" for comparison.
func summarize(items []item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case !it.image:
			out = append(out, "T:"+it.text)
		case it.inline != nil:
			out = append(out, "I:inline")
		case it.err != nil:
			out = append(out, "I:error")
		default:
			out = append(out, "I:"+strconv.Itoa(it.objNr))
		}
	}
	return out
}


func TestWalkPageText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "lines split by T*",
			content: "BT /F1 12 Tf (Hello) Tj T* (World) Tj ET",
			want:    []string{"T:Hello", "T:World"},
		},
		{
			name:    "spans joined on one line",
			content: "BT (Hel) Tj (lo) Tj ET",
			want:    []string{"T:Hello"},
		},
		{
			name:    "font encoding applied",
			content: "BT /U 10 Tf (shout) Tj ET",
			want:    []string{"T:SHOUT"},
		},
		{
			name:    "TJ kerning and word gaps",
			content: "BT [(Wo) -20 (rd) -300 (two)] TJ ET",
			want:    []string{"T:Word two"},
		},
		{
			name:    "Td with vertical move breaks the line",
			content: "BT (a) Tj 0 -14 Td (b) Tj 50 0 Td (c) Tj ET",
			want:    []string{"T:a", "T:b c"},
		},
		{
			name:    "Tm with new baseline breaks the line",
			content: "BT 1 0 0 1 72 700 Tm (top) Tj 1 0 0 1 200 700 Tm (same) Tj 1 0 0 1 72 680 Tm (next) Tj ET",
			want:    []string{"T:top same", "T:next"},
		},
		{
			name:    "quote operators start lines",
			content: "BT (one) Tj (two) ' 0 0 (three) \" ET",
			want:    []string{"T:one", "T:two", "T:three"},
		},
		{
			name:    "text objects on one baseline join",
			content: "BT /F1 12 Tf 72 700 Td (Hello ) Tj ET BT /F1 12 Tf 104 700 Td (World) Tj ET",
			want:    []string{"T:Hello World"},
		},
		{
			name:    "text objects within half a font height join",
			content: "BT /F1 12 Tf 72 700 Td (sub) Tj ET BT /F1 8 Tf 90 697 Td (script) Tj ET",
			want:    []string{"T:sub script"},
		},
		{
			name:    "text objects on different baselines split",
			content: "BT /F1 12 Tf 1 0 0 1 72 700 Tm (x) Tj ET BT /F1 12 Tf 1 0 0 1 72 686 Tm (y) Tj ET",
			want:    []string{"T:x", "T:y"},
		},
		{
			name:    "baseline includes the CTM",
			content: "q 1 0 0 1 0 700 cm BT /F1 10 Tf (top) Tj ET Q q 1 0 0 1 0 650 cm BT /F1 10 Tf (low) Tj ET Q",
			want:    []string{"T:top", "T:low"},
		},
		{
			name:    "scaled text matrix widens the tolerance",
			content: "BT /F1 1 Tf 12 0 0 12 72 700 Tm (big) Tj ET BT /F1 1 Tf 12 0 0 12 140 704 Tm (type) Tj ET",
			want:    []string{"T:big type"},
		},
		{
			name:    "TD sets leading for T*",
			content: "BT /F1 10 Tf 72 700 Td (one) Tj 0 -12 TD (two) Tj T* (three) Tj ET",
			want:    []string{"T:one", "T:two", "T:three"},
		},
		{
			name:    "blank lines dropped and trimmed",
			content: "BT (  ) Tj T* (  padded  ) Tj ET",
			want:    []string{"T:padded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := walkPage(&pageContent{content: []byte(tt.content), res: &fakeResources{}})
			if err != nil {
				t.Fatal(err)
			}
			if got := summarize(items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("walkPage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalkPageImages(t *testing.T) {
	form := &fakeResources{xobjects: map[string]xobject{
		"Inner": {objNr: 7},
	}}
	res := &fakeResources{xobjects: map[string]xobject{
		"Im1": {objNr: 5},
		"Fm1": {objNr: 6, form: true, content: []byte("BT (in form) Tj ET /Inner Do"), res: form},
	}}
	res.xobjects["Loop"] = xobject{objNr: 8, form: true, content: []byte("/Loop Do BT (loop) Tj ET"), res: res}

	tests := []struct {
		name    string
		content string
		images  []int
		want    []string
	}{
		{
			name:    "image between text",
			content: "BT (before) Tj ET q /Im1 Do Q BT (after) Tj ET",
			want:    []string{"T:before", "I:5", "T:after"},
		},
		{
			name:    "image flushes pending line",
			content: "BT (partial) Tj /Im1 Do (rest) Tj ET",
			want:    []string{"T:partial", "I:5", "T:rest"},
		},
		{
			name:    "form xobject descended",
			content: "/Fm1 Do",
			want:    []string{"T:in form", "I:7"},
		},
		{
			name:    "unplaced page images appended in object order",
			content: "BT (text) Tj ET /Im1 Do",
			images:  []int{9, 5, 3},
			want:    []string{"T:text", "I:5", "I:3", "I:9"},
		},
		{
			name:    "unknown xobject ignored",
			content: "/Missing Do BT (ok) Tj ET",
			want:    []string{"T:ok"},
		},
		{
			name:    "self-drawing form stops",
			content: "/Loop Do",
			want:    []string{"T:loop"},
		},
		{
			name:    "inline image",
			content: "BT (a) Tj ET BI /W 1 /H 1 /BPC 8 /CS /G ID \x80 EI BT (b) Tj ET",
			want:    []string{"T:a", "I:inline", "T:b"},
		},
		{
			name:    "undecodable inline image",
			content: "BI /W 1 /H 1 /F /Bogus ID xx EI",
			want:    []string{"I:error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := walkPage(&pageContent{content: []byte(tt.content), res: res, images: tt.images})
			if err != nil {
				t.Fatal(err)
			}
			if got := summarize(items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("walkPage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalkPageFormDepthLimit(t *testing.T) {
	res := &fakeResources{xobjects: map[string]xobject{}}
	// Fma draws Fmb, which draws Fmc, and so on; each shows its own
	// letter on its own baseline.
	for i := 0; i < 12; i++ {
		content := "BT 0 " + strconv.Itoa(700-20*i) + " Td (" + string(rune('a'+i)) + ") Tj ET /Fm" + string(rune('a'+i+1)) + " Do"
		res.xobjects["Fm"+string(rune('a'+i))] = xobject{objNr: 100 + i, form: true, content: []byte(content), res: res}
	}
	items, err := walkPage(&pageContent{content: []byte("/Fma Do"), res: res})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != maxFormDepth {
		t.Errorf("got %d lines, want %d", len(items), maxFormDepth)
	}
}
