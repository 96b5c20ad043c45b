package filters

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
)

// ASCIIHexDecode decodes hexadecimal data. Whitespace is ignored, > ends
// the data, and an odd final digit is padded with zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	odd := false
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		v, ok := hexValue(c)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		if odd {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		odd = !odd
	}
	if odd {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes Ascii85 data, with or without the <~ ~> framing.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("<~"))
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}

	dst := make([]byte, 4*len(data)+4)
	n, _, err := ascii85.Decode(dst, data, true)
	if err != nil {
		return nil, fmt.Errorf("ascii85: %w", err)
	}
	return dst[:n], nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
