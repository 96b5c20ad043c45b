package pdf

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tsawler/blockstream/internal/filters"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding PNG: %v", err)
	}
	return img
}

func gray(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func rgb(img image.Image, x, y int) [3]uint8 {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	return [3]uint8{c.R, c.G, c.B}
}

func TestRawImageEncodeGray(t *testing.T) {
	tests := []struct {
		name string
		img  rawImage
		want []uint8 // row-major gray values
	}{
		{
			name: "8 bit",
			img:  rawImage{Width: 2, Height: 2, BPC: 8, Components: 1, Data: []byte{0, 128, 64, 255}},
			want: []uint8{0, 128, 64, 255},
		},
		{
			name: "1 bit",
			img:  rawImage{Width: 4, Height: 1, BPC: 1, Components: 1, Data: []byte{0xA0}},
			want: []uint8{255, 0, 255, 0},
		},
		{
			name: "1 bit rows padded to bytes",
			img:  rawImage{Width: 2, Height: 2, BPC: 1, Components: 1, Data: []byte{0x80, 0x40}},
			want: []uint8{255, 0, 0, 255},
		},
		{
			name: "2 bit",
			img:  rawImage{Width: 4, Height: 1, BPC: 2, Components: 1, Data: []byte{0x1B}},
			want: []uint8{0, 85, 170, 255},
		},
		{
			name: "4 bit",
			img:  rawImage{Width: 2, Height: 1, BPC: 4, Components: 1, Data: []byte{0x0F}},
			want: []uint8{0, 255},
		},
		{
			name: "16 bit keeps high byte",
			img:  rawImage{Width: 1, Height: 1, BPC: 16, Components: 1, Data: []byte{0x80, 0x01}},
			want: []uint8{0x80},
		},
		{
			name: "image mask",
			img:  rawImage{Width: 2, Height: 1, BPC: 0, ImageMask: true, Data: []byte{0x40}},
			want: []uint8{0, 255},
		},
		{
			name: "inverted decode",
			img:  rawImage{Width: 2, Height: 1, BPC: 8, Components: 1, Invert: true, Data: []byte{0, 255}},
			want: []uint8{255, 0},
		},
		{
			name: "components inferred",
			img:  rawImage{Width: 2, Height: 1, BPC: 8, Data: []byte{10, 20}},
			want: []uint8{10, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ext, err := tt.img.encode()
			if err != nil {
				t.Fatalf("encode() error = %v", err)
			}
			if ext != "png" {
				t.Errorf("ext = %q, want png", ext)
			}
			img := decodePNG(t, data)
			for i, want := range tt.want {
				x, y := i%tt.img.Width, i/tt.img.Width
				if got := gray(img, x, y); got != want {
					t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
				}
			}
		})
	}
}

func TestRawImageEncodeColor(t *testing.T) {
	tests := []struct {
		name string
		img  rawImage
		want [][3]uint8
	}{
		{
			name: "rgb",
			img:  rawImage{Width: 2, Height: 1, BPC: 8, Components: 3, Data: []byte{255, 0, 0, 0, 0, 255}},
			want: [][3]uint8{{255, 0, 0}, {0, 0, 255}},
		},
		{
			name: "cmyk",
			img:  rawImage{Width: 2, Height: 1, BPC: 8, Components: 4, Data: []byte{0, 0, 0, 0, 0, 0, 0, 255}},
			want: [][3]uint8{{255, 255, 255}, {0, 0, 0}},
		},
		{
			name: "indexed rgb palette",
			img: rawImage{
				Width: 3, Height: 1, BPC: 8, Components: 3,
				Palette: []byte{0, 0, 0, 255, 255, 0, 0, 128, 255},
				Data:    []byte{2, 1, 0},
			},
			want: [][3]uint8{{0, 128, 255}, {255, 255, 0}, {0, 0, 0}},
		},
		{
			name: "rgb inferred from length",
			img:  rawImage{Width: 1, Height: 1, BPC: 8, Data: []byte{1, 2, 3}},
			want: [][3]uint8{{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _, err := tt.img.encode()
			if err != nil {
				t.Fatalf("encode() error = %v", err)
			}
			img := decodePNG(t, data)
			for i, want := range tt.want {
				if got := rgb(img, i, 0); got != want {
					t.Errorf("pixel %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestRawImageEncodePassThrough(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	data, ext, err := (&rawImage{Codec: filters.DCT, Data: jpeg}).encode()
	if err != nil || ext != "jpg" || !bytes.Equal(data, jpeg) {
		t.Errorf("DCT encode() = %x, %q, %v", data, ext, err)
	}

	_, ext, err = (&rawImage{Codec: filters.JPX, Data: []byte{0}}).encode()
	if err != nil || ext != "jp2" {
		t.Errorf("JPX encode() ext = %q, err = %v", ext, err)
	}

	_, _, err = (&rawImage{Codec: filters.JBIG2, Data: []byte{0}}).encode()
	if !errors.Is(err, errUnsupportedImage) {
		t.Errorf("JBIG2 encode() error = %v, want errUnsupportedImage", err)
	}
}

func TestRawImageEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		img  rawImage
	}{
		{"zero size", rawImage{Width: 0, Height: 1, BPC: 8, Components: 1, Data: []byte{1}}},
		{"short data", rawImage{Width: 4, Height: 4, BPC: 8, Components: 1, Data: []byte{1, 2}}},
		{"odd depth", rawImage{Width: 1, Height: 1, BPC: 3, Components: 1, Data: []byte{1}}},
		{"five components", rawImage{Width: 1, Height: 1, BPC: 8, Components: 5, Data: []byte{1, 2, 3, 4, 5}}},
		{"size overflows int", rawImage{Width: 1 << 31, Height: 1 << 33, BPC: 8, Components: 1, Data: []byte{0}}},
		{"width too large", rawImage{Width: maxImageDim + 1, Height: 1, BPC: 8, Components: 1, Data: make([]byte, maxImageDim+1)}},
		{"huge component count", rawImage{Width: 1, Height: 1, BPC: 8, Components: 1 << 60, Data: []byte{1}}},
		{"negative width", rawImage{Width: -4, Height: 2, BPC: 8, Components: 1, Data: []byte{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.img.encode(); err == nil {
				t.Error("encode() error = nil")
			}
		})
	}
}
