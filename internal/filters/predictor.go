package filters

import "fmt"

// maxColumns bounds the row width a predictor or fax decoder accepts.
const maxColumns = 1 << 16

// unpredict reverses the Predictor named in params. 1 or a missing
// predictor returns data unchanged.
func unpredict(data []byte, params Params) ([]byte, error) {
	predictor := params.Int("Predictor", 1)
	colors := params.Int("Colors", 1)
	bpc := params.Int("BitsPerComponent", 8)
	columns := params.Int("Columns", 1)

	if predictor == 1 {
		return data, nil
	}
	if colors < 1 || colors > 32 || bpc < 1 || bpc > 16 || columns < 1 || columns > maxColumns {
		return nil, fmt.Errorf("invalid predictor parameters: %d colors, %d bits, %d columns", colors, bpc, columns)
	}
	switch {
	case predictor == 2:
		return tiffPredictor(data, colors, bpc, columns)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, colors, bpc, columns)
	}
	return nil, fmt.Errorf("unsupported predictor %d", predictor)
}

// tiffPredictor reverses TIFF predictor 2 for 8-bit samples.
func tiffPredictor(data []byte, colors, bpc, columns int) ([]byte, error) {
	if bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component", bpc)
	}
	rowLen := columns * colors
	if rowLen <= 0 || len(data)%rowLen != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowLen)
	}

	out := make([]byte, len(data))
	copy(out, data)
	for row := 0; row < len(out); row += rowLen {
		for i := colors; i < rowLen; i++ {
			out[row+i] += out[row+i-colors]
		}
	}
	return out, nil
}

// pngPredictor reverses PNG row filters. Each row carries its own filter
// type byte, so predictors 10 through 15 decode identically.
func pngPredictor(data []byte, colors, bpc, columns int) ([]byte, error) {
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	if rowLen <= 0 || len(data)%(rowLen+1) != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowLen+1)
	}

	rows := len(data) / (rowLen + 1)
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		in := data[r*(rowLen+1):]
		filter, src := in[0], in[1:rowLen+1]
		cur := out[r*rowLen : (r+1)*rowLen]

		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch filter {
			case 0:
				cur[i] = src[i]
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG filter %d", r, filter)
			}
		}
		prev = cur
	}
	return out, nil
}

// paeth picks the neighbour closest to left + up - upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
