package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/tsawler/blockstream/internal/filters"
)

// errUnsupportedImage is returned for image data no decoder here can turn
// into a file the OCR engine accepts.
var errUnsupportedImage = errors.New("unsupported image encoding")

// maxImageDim bounds each side of a decoded image.
const maxImageDim = 1 << 15

// rawImage is an image's decoded samples and the parameters needed to
// interpret them.
type rawImage struct {
	Width      int
	Height     int
	BPC        int
	Components int    // 1, 3 or 4; 0 means infer from the data length
	Palette    []byte // Indexed lookup table, Components bytes per entry
	ImageMask  bool
	Invert     bool   // Decode array [1 0]
	Codec      string // image codec left encoded, if any
	Data       []byte
}

// encode returns the image as file bytes plus the file extension.
// DCT and JPX data are passed through; raw samples become PNG.
func (img *rawImage) encode() ([]byte, string, error) {
	switch img.Codec {
	case filters.DCT:
		return img.Data, "jpg", nil
	case filters.JPX:
		return img.Data, "jp2", nil
	case "":
	default:
		return nil, "", fmt.Errorf("%w: %s", errUnsupportedImage, img.Codec)
	}

	goImg, err := img.toImage()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), "png", nil
}

// toImage converts the samples into an image.Image.
func (img *rawImage) toImage() (image.Image, error) {
	if img.Width <= 0 || img.Height <= 0 || img.Width > maxImageDim || img.Height > maxImageDim {
		return nil, fmt.Errorf("invalid image size %dx%d", img.Width, img.Height)
	}
	bpc := img.BPC
	if img.ImageMask || bpc <= 0 {
		bpc = 1
	}
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", bpc)
	}

	comps := img.Components
	if img.ImageMask || img.Palette != nil {
		comps = 1
	}
	if comps == 0 {
		comps = inferComponents(len(img.Data), img.Width, img.Height, bpc)
	}
	if comps != 1 && comps != 3 && comps != 4 {
		return nil, fmt.Errorf("unsupported component count: %d", comps)
	}

	rowLen := (img.Width*comps*bpc + 7) / 8
	if rowLen > len(img.Data)/img.Height {
		return nil, fmt.Errorf("insufficient data: got %d, expected %d", len(img.Data), rowLen*img.Height)
	}

	s := sampler{data: img.Data, bpc: bpc, rowLen: rowLen, comps: comps}
	rect := image.Rect(0, 0, img.Width, img.Height)

	switch {
	case img.Palette != nil:
		return img.indexed(rect, s), nil
	case comps == 1:
		out := image.NewGray(rect)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				v := s.at(x, y, 0)
				if img.Invert {
					v = 255 - v
				}
				out.Pix[y*out.Stride+x] = v
			}
		}
		return out, nil
	case comps == 3:
		out := image.NewRGBA(rect)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				i := y*out.Stride + x*4
				out.Pix[i+0] = s.at(x, y, 0)
				out.Pix[i+1] = s.at(x, y, 1)
				out.Pix[i+2] = s.at(x, y, 2)
				out.Pix[i+3] = 255
			}
		}
		return out, nil
	case comps == 4:
		out := image.NewRGBA(rect)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				r, g, b := color.CMYKToRGB(s.at(x, y, 0), s.at(x, y, 1), s.at(x, y, 2), s.at(x, y, 3))
				i := y*out.Stride + x*4
				out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, 255
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported component count: %d", comps)
}

// indexed expands palette indices. The palette's own component count
// decides between gray, RGB and CMYK entries.
func (img *rawImage) indexed(rect image.Rectangle, s sampler) image.Image {
	pc := img.Components
	if pc != 1 && pc != 3 && pc != 4 {
		pc = 3
	}
	out := image.NewRGBA(rect)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			idx := s.raw(x, y, 0) * pc
			var c [4]byte
			if idx+pc <= len(img.Palette) {
				copy(c[:], img.Palette[idx:idx+pc])
			}
			var r, g, b uint8
			switch pc {
			case 1:
				r, g, b = c[0], c[0], c[0]
			case 3:
				r, g, b = c[0], c[1], c[2]
			case 4:
				r, g, b = color.CMYKToRGB(c[0], c[1], c[2], c[3])
			}
			i := y*out.Stride + x*4
			out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, 255
		}
	}
	return out
}

// inferComponents guesses the component count from the data length.
func inferComponents(n, width, height, bpc int) int {
	for _, c := range []int{1, 3, 4} {
		if ((width*c*bpc+7)/8)*height == n {
			return c
		}
	}
	return 1
}

// sampler reads packed samples, most significant bit first.
type sampler struct {
	data   []byte
	bpc    int
	rowLen int
	comps  int
}

// raw returns the sample for component c of pixel (x, y) unscaled.
func (s sampler) raw(x, y, c int) int {
	bit := (x*s.comps + c) * s.bpc
	row := s.data[y*s.rowLen:]
	switch s.bpc {
	case 8:
		return int(row[bit/8])
	case 16:
		return int(row[bit/8])<<8 | int(row[bit/8+1])
	}
	shift := 8 - s.bpc - bit%8
	return int(row[bit/8]>>shift) & (1<<s.bpc - 1)
}

// at returns the sample scaled to 8 bits.
func (s sampler) at(x, y, c int) uint8 {
	v := s.raw(x, y, c)
	switch s.bpc {
	case 16:
		return uint8(v >> 8)
	case 8:
		return uint8(v)
	}
	return uint8(v * 255 / (1<<s.bpc - 1))
}
