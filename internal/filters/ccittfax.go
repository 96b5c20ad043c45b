package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data into packed 1-bit
// rows. K < 0 selects Group 4; BlackIs1 inverts the output bits.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := params.Int("Columns", 1728)
	if columns < 1 || columns > maxColumns {
		return nil, fmt.Errorf("invalid fax width %d", columns)
	}
	rows := params.Int("Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if params.Int("K", 0) < 0 {
		sf = ccitt.Group4
	}

	opts := &ccitt.Options{Invert: params.Bool("BlackIs1", false)}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return io.ReadAll(r)
}
