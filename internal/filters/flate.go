package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// FlateDecode inflates zlib data and then applies any predictor. A
// truncated stream yields whatever was inflated before the damage.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	defer zr.Close()

	out, err := readTolerant(zr)
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	return unpredict(out, params)
}

// LZWDecode expands LZW data. EarlyChange defaults to 1 as in PDF.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	rc := lzw.NewReader(bytes.NewReader(data), params.Int("EarlyChange", 1) == 1)
	defer rc.Close()

	out, err := readTolerant(rc)
	if err != nil {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return unpredict(out, params)
}

// RunLengthDecode expands PackBits-style run-length data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				return nil, errors.New("runlength: literal run past end of data")
			}
			out.Write(data[i:end])
			i = end
		default:
			if i >= len(data) {
				return nil, errors.New("runlength: missing repeat byte")
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}
	return out.Bytes(), nil
}

// readTolerant reads r to the end, accepting a premature end of stream if
// some data came through.
func readTolerant(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil && (len(out) == 0 || !errors.Is(err, io.ErrUnexpectedEOF)) {
		return nil, err
	}
	return out, nil
}
