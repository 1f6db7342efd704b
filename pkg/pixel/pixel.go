// Package pixel converts the two pixel buffer variants found in FPAC
// archives to and from Go images.
//
// Indexed buffers are not resolved through their palette. Each index byte is
// exported as a grayscale intensity and the palette travels separately as a
// 1×N strip, one pixel per color. Converting back writes gray values
// verbatim as indices and strip colors verbatim as palette entries; there is
// no color quantization in either direction.
//
// Colors are straight (non-premultiplied) RGBA, so images use color.NRGBA.
package pixel

import (
	"fmt"
	"image"
	"image/color"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// BytesPerColor is the size of one RGBA color in a payload.
const BytesPerColor = 4

// IndexedImage is a buffer of palette indices plus the palette.
type IndexedImage struct {
	Width   int
	Height  int
	Palette []color.NRGBA
	Pixels  []byte // len Width*Height
}

// RawImage stores one color per pixel, row-major.
type RawImage struct {
	Width  int
	Height int
	Pixels []color.NRGBA // len Width*Height
}

func sizeError(what string, want, have int) error {
	return fpacerrors.Format(fpacerrors.SectionImage,
		fmt.Errorf("%w: %s needs %d bytes, got %d", fpacerrors.ErrImageSize, what, want, have))
}

// IndexedToGray exports index bytes as grayscale samples.
func IndexedToGray(pixels []byte, width, height int) (*image.Gray, error) {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return nil, sizeError("index buffer", width*height, len(pixels))
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)
	return img, nil
}

// ImageToIndexed reads gray values back as index bytes. Non-gray images go
// through color.GrayModel first.
func ImageToIndexed(img image.Image) (pixels []byte, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	pixels = make([]byte, 0, width*height)

	if gray, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := gray.Pix[gray.PixOffset(b.Min.X, y):]
			pixels = append(pixels, row[:width]...)
		}
		return pixels, width, height
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return pixels, width, height
}

// PaletteToImage lays the palette out as a 1×N strip.
func PaletteToImage(palette []color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(palette), 1))
	for i, c := range palette {
		img.SetNRGBA(i, 0, c)
	}
	return img
}

// ImageToPalette reads the first row of a strip image in column order.
func ImageToPalette(img image.Image) []color.NRGBA {
	b := img.Bounds()
	palette := make([]color.NRGBA, 0, b.Dx())
	if b.Empty() {
		return palette
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		palette = append(palette, toNRGBA(img.At(x, b.Min.Y)))
	}
	return palette
}

// RawToRGBA reinterprets one color per pixel as an image.
func RawToRGBA(pixels []color.NRGBA, width, height int) (*image.NRGBA, error) {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return nil, sizeError("raw buffer", width*height*BytesPerColor, len(pixels)*BytesPerColor)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, c := range pixels {
		img.SetNRGBA(i%max(width, 1), i/max(width, 1), c)
	}
	return img, nil
}

// RGBAToRaw reads an image back into row-major colors.
func RGBAToRaw(img image.Image) *RawImage {
	b := img.Bounds()
	raw := &RawImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: make([]color.NRGBA, 0, b.Dx()*b.Dy()),
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			raw.Pixels = append(raw.Pixels, toNRGBA(img.At(x, y)))
		}
	}
	return raw
}

func toNRGBA(c color.Color) color.NRGBA {
	if n, ok := c.(color.NRGBA); ok {
		return n
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// Gray returns the index buffer as a grayscale image.
func (im *IndexedImage) Gray() (*image.Gray, error) {
	return IndexedToGray(im.Pixels, im.Width, im.Height)
}

// PaletteImage returns the palette strip.
func (im *IndexedImage) PaletteImage() *image.NRGBA {
	return PaletteToImage(im.Palette)
}

// Image returns the raw buffer as an image.
func (r *RawImage) Image() (*image.NRGBA, error) {
	return RawToRGBA(r.Pixels, r.Width, r.Height)
}
