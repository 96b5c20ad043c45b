package text

import (
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw file bytes to a valid UTF-8 string. A UTF-8 or
// UTF-16 byte order mark is honoured and stripped; without one the data is
// treated as UTF-8 and invalid sequences are discarded.
func Decode(data []byte) string {
	decoded, _, err := transform.Bytes(xunicode.BOMOverride(transform.Nop), data)
	if err != nil {
		decoded = data
	}
	return strings.ToValidUTF8(string(decoded), "")
}

// Lines splits s at every line boundary and returns the trimmed lines
// that are not blank.
func Lines(s string) []string {
	fields := strings.FieldsFunc(s, isLineBreak)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if line := strings.TrimFunc(f, unicode.IsSpace); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
