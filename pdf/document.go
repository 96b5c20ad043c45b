package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/blockstream/contentstream"
	"github.com/tsawler/blockstream/internal/filters"
)

// source is a parsed PDF as the extractor sees it.
type source interface {
	pageCount() int
	page(n int) (*pageContent, error)
	// image returns the staged file bytes and extension of an image
	// XObject on page n.
	image(n, objNr int) ([]byte, string, error)
}

// document reads structure and images with pdfcpu and decodes text
// through the font encodings of ledongthuc/pdf.
type document struct {
	ctx   *model.Context
	fonts *lpdf.Reader // nil when the font reader could not open the file

	imagesPage int
	images     map[int]model.Image
}

// openDocument parses and validates data.
func openDocument(data []byte) (*document, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}
	d := &document{ctx: ctx}
	if r, err := openFontReader(data); err == nil {
		d.fonts = r
	}
	return d, nil
}

func openFontReader(data []byte) (r *lpdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("font reader: %v", rec)
		}
	}()
	return lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func (d *document) pageCount() int {
	return d.ctx.PageCount
}

func (d *document) page(n int) (*pageContent, error) {
	var content []byte
	r, err := pdfcpu.ExtractPageContent(d.ctx, n)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	if r != nil {
		if content, err = io.ReadAll(r); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
	}

	return &pageContent{
		content: content,
		res:     d.newResources(d.pageResources(n), d.pageFonts(n)),
		images:  pdfcpu.ImageObjNrs(d.ctx, n),
	}, nil
}

// pageResources returns the page's resource dictionary, inherited from
// the page tree when the page has none of its own.
func (d *document) pageResources(n int) types.Dict {
	pd, _, _, err := d.ctx.PageDict(n, false)
	for hops := 0; err == nil && pd != nil && hops < 32; hops++ {
		if o, found := pd.Find("Resources"); found {
			if res, err := d.ctx.DereferenceDict(o); err == nil && res != nil {
				return res
			}
		}
		parent, found := pd.Find("Parent")
		if !found {
			break
		}
		pd, err = d.ctx.DereferenceDict(parent)
	}
	return nil
}

// pageFonts returns the page's resources as seen by the font reader.
func (d *document) pageFonts(n int) (v lpdf.Value) {
	if d.fonts == nil {
		return v
	}
	defer func() {
		if recover() != nil {
			v = lpdf.Value{}
		}
	}()
	return d.fonts.Page(n).Resources()
}

func (d *document) image(n, objNr int) ([]byte, string, error) {
	if d.imagesPage != n {
		d.imagesPage = n
		d.images, _ = pdfcpu.ExtractPageImages(d.ctx, n, false)
	}
	if img, ok := d.images[objNr]; ok && img.Reader != nil {
		data, err := io.ReadAll(img)
		if err == nil && len(data) > 0 {
			ext := strings.ToLower(img.FileType)
			if ext == "" {
				ext = "png"
			}
			return data, ext, nil
		}
	}

	raw, err := d.rawImage(objNr)
	if err != nil {
		return nil, "", err
	}
	return raw.encode()
}

// rawImage decodes an image XObject without pdfcpu's image writer, for
// color spaces and filters it does not render.
func (d *document) rawImage(objNr int) (*rawImage, error) {
	entry, ok := d.ctx.Table[objNr]
	if !ok || entry == nil || entry.Free || entry.Object == nil {
		return nil, fmt.Errorf("object %d not found", objNr)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("object %d is not a stream", objNr)
	}

	img := &rawImage{}
	img.Width, _ = d.intEntry(sd.Dict, "Width")
	img.Height, _ = d.intEntry(sd.Dict, "Height")
	img.BPC, _ = d.intEntry(sd.Dict, "BitsPerComponent")
	if o, found := sd.Find("ImageMask"); found {
		if b, ok := o.(types.Boolean); ok {
			img.ImageMask = bool(b)
		}
	}
	if o, found := sd.Find("Decode"); found {
		if arr, ok := d.deref(o).(types.Array); ok && len(arr) >= 2 {
			lo, _ := number(d.deref(arr[0]))
			hi, _ := number(d.deref(arr[1]))
			img.Invert = lo > hi
		}
	}
	if o, found := sd.Find("ColorSpace"); found {
		img.Components, img.Palette = d.colorSpace(o)
	}

	data, codec, err := decodeStream(sd)
	if err != nil {
		return nil, err
	}
	img.Data, img.Codec = data, codec
	return img, nil
}

// colorSpace returns the component count of a color space and, for
// Indexed spaces, the palette.
func (d *document) colorSpace(o types.Object) (int, []byte) {
	switch cs := d.deref(o).(type) {
	case types.Name:
		return deviceComponents(string(cs)), nil
	case types.Array:
		if len(cs) == 0 {
			return 0, nil
		}
		family, _ := d.deref(cs[0]).(types.Name)
		switch family {
		case "ICCBased":
			if len(cs) > 1 {
				if sd, ok := d.deref(cs[1]).(types.StreamDict); ok {
					n, _ := d.intEntry(sd.Dict, "N")
					return n, nil
				}
			}
		case "Indexed", "I":
			if len(cs) < 4 {
				return 0, nil
			}
			base, _ := d.colorSpace(cs[1])
			if base == 0 {
				base = 3
			}
			return base, d.lookup(cs[3])
		case "Separation", "DeviceN":
			return 1, nil
		default:
			return deviceComponents(string(family)), nil
		}
	}
	return 0, nil
}

// lookup returns the bytes of an Indexed color space's lookup table.
func (d *document) lookup(o types.Object) []byte {
	switch v := d.deref(o).(type) {
	case types.HexLiteral:
		b, err := hex.DecodeString(strings.Join(strings.Fields(string(v)), ""))
		if err == nil {
			return b
		}
	case types.StringLiteral:
		// The literal keeps its escapes; the content stream parser
		// resolves them.
		ops, _ := contentstream.NewParser([]byte("(" + string(v) + ") Tj")).Parse()
		if len(ops) == 1 && len(ops[0].Operands) == 1 {
			if s, ok := ops[0].Operands[0].(contentstream.String); ok {
				return []byte(s)
			}
		}
	case types.StreamDict:
		if data, codec, err := decodeStream(v); err == nil && codec == "" {
			return data
		}
	}
	return []byte{}
}

func (d *document) intEntry(dict types.Dict, key string) (int, bool) {
	o, found := dict.Find(key)
	if !found {
		return 0, false
	}
	f, ok := number(d.deref(o))
	return int(f), ok
}

// deref resolves indirect references, returning nil for dangling ones.
func (d *document) deref(o types.Object) types.Object {
	v, err := d.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// decodeStream runs a stream's filter chain, stopping at image codecs.
func decodeStream(sd types.StreamDict) ([]byte, string, error) {
	if len(sd.Raw) == 0 && len(sd.Content) > 0 {
		return sd.Content, "", nil
	}
	chain := make([]filters.Filter, 0, len(sd.FilterPipeline))
	for _, f := range sd.FilterPipeline {
		chain = append(chain, filters.Filter{Name: f.Name, Params: decodeParams(f.DecodeParms)})
	}
	return filters.Decode(sd.Raw, chain)
}

func decodeParams(dict types.Dict) filters.Params {
	if len(dict) == 0 {
		return nil
	}
	p := make(filters.Params, len(dict))
	for k, v := range dict {
		switch v := v.(type) {
		case types.Integer:
			p[k] = int(v)
		case types.Float:
			p[k] = float64(v)
		case types.Boolean:
			p[k] = bool(v)
		}
	}
	return p
}

// pdfResources resolves fonts and XObjects for one content stream.
type pdfResources struct {
	doc      *document
	dict     types.Dict
	fonts    lpdf.Value
	encoders map[string]lpdf.TextEncoding
}

func (d *document) newResources(dict types.Dict, fonts lpdf.Value) *pdfResources {
	return &pdfResources{doc: d, dict: dict, fonts: fonts, encoders: make(map[string]lpdf.TextEncoding)}
}

// text decodes raw through the font's encoding. Fonts the reader cannot
// interpret fall back to the raw bytes. Invalid UTF-8 is removed either
// way.
func (r *pdfResources) text(font string, raw []byte) (s string) {
	fallback := strings.ToValidUTF8(string(raw), "")
	defer func() {
		if recover() != nil {
			s = fallback
		}
	}()

	enc, ok := r.encoders[font]
	if !ok {
		if f := r.fonts.Key("Font").Key(font); !f.IsNull() {
			enc = lpdf.Font{V: f}.Encoder()
		}
		r.encoders[font] = enc
	}
	if enc == nil {
		return fallback
	}
	return strings.ToValidUTF8(enc.Decode(string(raw)), "")
}

func (r *pdfResources) xobject(name string) (xobject, bool) {
	if r.dict == nil {
		return xobject{}, false
	}
	o, found := r.dict.Find("XObject")
	if !found {
		return xobject{}, false
	}
	xobjects, err := r.doc.ctx.DereferenceDict(o)
	if err != nil || xobjects == nil {
		return xobject{}, false
	}
	entry, found := xobjects.Find(name)
	if !found {
		return xobject{}, false
	}
	ref, ok := entry.(types.IndirectRef)
	if !ok {
		return xobject{}, false
	}
	sd, ok := r.doc.deref(ref).(types.StreamDict)
	if !ok {
		return xobject{}, false
	}

	xo := xobject{objNr: int(ref.ObjectNumber)}
	subtype, _ := sd.Find("Subtype")
	switch subtype {
	case types.Name("Image"):
		return xo, true
	case types.Name("Form"):
	default:
		return xobject{}, false
	}

	xo.form = true
	xo.content, _, _ = decodeStream(sd)

	formDict := r.dict
	if o, found := sd.Find("Resources"); found {
		if res, err := r.doc.ctx.DereferenceDict(o); err == nil && res != nil {
			formDict = res
		}
	}
	formFonts := r.fonts
	if v := r.fonts.Key("XObject").Key(name).Key("Resources"); !v.IsNull() {
		formFonts = v
	}
	xo.res = r.doc.newResources(formDict, formFonts)
	return xo, true
}
