package pixel

import (
	"fmt"
	"image/color"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// Payload layouts inside archive entries:
//
//	index buffer   width*height bytes, one palette index per pixel
//	palette        N*4 bytes, R G B A per color
//	raw buffer     width*height*4 bytes, R G B A per pixel, row-major

// ParsePalette splits a palette payload into colors.
func ParsePalette(data []byte) ([]color.NRGBA, error) {
	if len(data)%BytesPerColor != 0 {
		return nil, fpacerrors.Format(fpacerrors.SectionImage,
			fmt.Errorf("%w: palette length %d is not a multiple of %d", fpacerrors.ErrImageSize, len(data), BytesPerColor))
	}
	return parseColors(data), nil
}

// PaletteBytes serializes a palette payload.
func PaletteBytes(palette []color.NRGBA) []byte {
	return colorBytes(palette)
}

// ParseIndexed builds an IndexedImage from an index payload and a palette
// payload. palette may be nil.
func ParseIndexed(pixels, palette []byte, width, height int) (*IndexedImage, error) {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return nil, sizeError("index buffer", width*height, len(pixels))
	}
	var colors []color.NRGBA
	if palette != nil {
		var err error
		if colors, err = ParsePalette(palette); err != nil {
			return nil, err
		}
	}
	return &IndexedImage{
		Width:   width,
		Height:  height,
		Palette: colors,
		Pixels:  append([]byte(nil), pixels...),
	}, nil
}

// ParseRaw builds a RawImage from a raw payload.
func ParseRaw(data []byte, width, height int) (*RawImage, error) {
	want := width * height * BytesPerColor
	if width < 0 || height < 0 || len(data) != want {
		return nil, sizeError("raw buffer", want, len(data))
	}
	return &RawImage{Width: width, Height: height, Pixels: parseColors(data)}, nil
}

// Bytes serializes the raw buffer payload.
func (r *RawImage) Bytes() []byte {
	return colorBytes(r.Pixels)
}

func parseColors(data []byte) []color.NRGBA {
	colors := make([]color.NRGBA, len(data)/BytesPerColor)
	for i := range colors {
		p := data[i*BytesPerColor:]
		colors[i] = color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return colors
}

func colorBytes(colors []color.NRGBA) []byte {
	buf := make([]byte, 0, len(colors)*BytesPerColor)
	for _, c := range colors {
		buf = append(buf, c.R, c.G, c.B, c.A)
	}
	return buf
}
