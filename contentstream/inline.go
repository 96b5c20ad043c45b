package contentstream

import (
	"bytes"
	"fmt"
)

// inlineKeys maps abbreviated inline image keys to their full names.
var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"L":   "Length",
	"W":   "Width",
}

// inlineNames maps abbreviated color space and filter names.
var inlineNames = map[Name]Name{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
	"AHx":  "ASCIIHexDecode",
	"A85":  "ASCII85Decode",
	"LZW":  "LZWDecode",
	"Fl":   "FlateDecode",
	"RL":   "RunLengthDecode",
	"CCF":  "CCITTFaxDecode",
	"DCT":  "DCTDecode",
}

// parseInlineImage reads the dictionary between BI and ID, then the raw
// bytes up to the closing EI.
func (p *Parser) parseInlineImage() error {
	dict := make(Dict)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return fmt.Errorf("inline image without ID")
		}
		if p.atKeyword("ID") {
			p.pos += 2
			break
		}
		if p.data[p.pos] != '/' {
			p.pos++
			continue
		}
		key := string(p.parseName().(Name))
		p.skipWhitespace()
		if p.pos >= len(p.data) || p.atKeyword("ID") {
			continue
		}
		value, err := p.parseOperand()
		if err != nil {
			return err
		}
		if full, ok := inlineKeys[key]; ok {
			key = full
		}
		dict[key] = expandInlineNames(value)
	}

	// A single whitespace byte separates ID from the data.
	if p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}

	start := p.pos
	n := inlineDataLength(dict)
	if start+n > len(p.data) {
		n = 0
	}
	end := p.findEI(start + n)
	if end < 0 {
		return fmt.Errorf("inline image without EI")
	}

	var data []byte
	if n > 0 {
		data = p.data[start : start+n]
	} else {
		data = bytes.TrimRight(p.data[start:end], " \t\r\n\f\x00")
	}
	p.ops = append(p.ops, Operation{
		Operator: "BI",
		Operands: []Object{dict},
		Data:     append([]byte(nil), data...),
	})
	p.pos = end + 2
	return nil
}

// findEI returns the offset of an EI keyword at or after from that is
// delimited by whitespace on both sides, or -1.
func (p *Parser) findEI(from int) int {
	for i := from; i+1 < len(p.data); i++ {
		if p.data[i] != 'E' || p.data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isWhitespace(p.data[i-1]) {
			continue
		}
		if i+2 < len(p.data) && !isWhitespace(p.data[i+2]) {
			continue
		}
		return i
	}
	return -1
}

func (p *Parser) atKeyword(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.data) || string(p.data[p.pos:end]) != kw {
		return false
	}
	return end == len(p.data) || isWhitespace(p.data[end]) || isDelimiter(p.data[end])
}

func expandInlineNames(o Object) Object {
	switch v := o.(type) {
	case Name:
		if full, ok := inlineNames[v]; ok {
			return full
		}
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			out[i] = expandInlineNames(e)
		}
		return out
	}
	return o
}

// inlineDataLength returns the byte length of unfiltered inline image
// data, or 0 when it cannot be computed.
func inlineDataLength(d Dict) int {
	if _, filtered := d["Filter"]; filtered {
		return 0
	}
	w, okW := d.Int("Width")
	h, okH := d.Int("Height")
	if !okW || !okH || w <= 0 || h <= 0 {
		return 0
	}
	bpc, ok := d.Int("BitsPerComponent")
	if !ok || bpc <= 0 {
		bpc = 1
	}
	comps := 1
	if mask, _ := d["ImageMask"].(Bool); !mask {
		switch cs, _ := d.Name("ColorSpace"); cs {
		case "DeviceRGB":
			comps = 3
		case "DeviceCMYK":
			comps = 4
		}
	}
	return h * ((w*comps*bpc + 7) / 8)
}
