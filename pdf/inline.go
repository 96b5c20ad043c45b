package pdf

import (
	"github.com/tsawler/blockstream/contentstream"
	"github.com/tsawler/blockstream/internal/filters"
)

// inlineImage decodes the data of a BI ... ID ... EI image.
func inlineImage(dict contentstream.Dict, data []byte) (*rawImage, error) {
	img := &rawImage{}
	img.Width, _ = dict.Int("Width")
	img.Height, _ = dict.Int("Height")
	img.BPC, _ = dict.Int("BitsPerComponent")
	if mask, ok := dict["ImageMask"].(contentstream.Bool); ok && bool(mask) {
		img.ImageMask = true
	}
	if dec, ok := dict["Decode"].(contentstream.Array); ok && len(dec) >= 2 {
		lo, _ := contentstream.Number(dec[0])
		hi, _ := contentstream.Number(dec[1])
		img.Invert = lo > hi
	}
	img.Components, img.Palette = inlineColorSpace(dict["ColorSpace"])

	decoded, codec, err := filters.Decode(data, inlineFilters(dict))
	if err != nil {
		return nil, err
	}
	img.Data, img.Codec = decoded, codec
	return img, nil
}

// inlineFilters converts the Filter and DecodeParms entries.
func inlineFilters(dict contentstream.Dict) []filters.Filter {
	var names []contentstream.Object
	switch f := dict["Filter"].(type) {
	case contentstream.Name:
		names = []contentstream.Object{f}
	case contentstream.Array:
		names = f
	}

	var parms []contentstream.Object
	switch p := dict["DecodeParms"].(type) {
	case contentstream.Dict:
		parms = []contentstream.Object{p}
	case contentstream.Array:
		parms = p
	}

	chain := make([]filters.Filter, 0, len(names))
	for i, n := range names {
		name, ok := n.(contentstream.Name)
		if !ok {
			continue
		}
		f := filters.Filter{Name: string(name)}
		if i < len(parms) {
			if d, ok := parms[i].(contentstream.Dict); ok {
				f.Params = inlineParams(d)
			}
		}
		chain = append(chain, f)
	}
	return chain
}

func inlineParams(d contentstream.Dict) filters.Params {
	p := make(filters.Params, len(d))
	for k, v := range d {
		switch v := v.(type) {
		case contentstream.Int:
			p[k] = int(v)
		case contentstream.Real:
			p[k] = float64(v)
		case contentstream.Bool:
			p[k] = bool(v)
		}
	}
	return p
}

// inlineColorSpace returns the component count and, for Indexed spaces,
// the palette. Named resource color spaces are left for inference.
func inlineColorSpace(cs contentstream.Object) (int, []byte) {
	switch v := cs.(type) {
	case contentstream.Name:
		return deviceComponents(string(v)), nil
	case contentstream.Array:
		if len(v) == 4 {
			if name, _ := v[0].(contentstream.Name); name == "Indexed" {
				base, _ := v[1].(contentstream.Name)
				lookup, _ := v[3].(contentstream.String)
				comps := deviceComponents(string(base))
				if comps == 0 {
					comps = 3
				}
				return comps, []byte(lookup)
			}
		}
	}
	return 0, nil
}

// deviceComponents maps a color space family name to its component count,
// or 0 when unknown.
func deviceComponents(name string) int {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return 1
	case "DeviceRGB", "CalRGB", "RGB", "Lab":
		return 3
	case "DeviceCMYK", "CMYK":
		return 4
	}
	return 0
}
