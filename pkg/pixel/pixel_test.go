package pixel

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

func TestIndexedToGrayIsIdentity(t *testing.T) {
	pixels := []byte{0, 1, 2, 3, 250, 251}
	img, err := IndexedToGray(pixels, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.Gray{Y: 3}, img.GrayAt(0, 1))
	assert.Equal(t, color.Gray{Y: 251}, img.GrayAt(2, 1))

	back, w, h := ImageToIndexed(img)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, pixels, back)
}

func TestIndexedToGraySizeMismatch(t *testing.T) {
	_, err := IndexedToGray([]byte{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, fpacerrors.ErrImageSize)
}

func TestImageToIndexedSubImage(t *testing.T) {
	img, err := IndexedToGray([]byte{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, 3, 3)
	require.NoError(t, err)

	sub := img.SubImage(image.Rect(1, 1, 3, 3))
	pixels, w, h := ImageToIndexed(sub)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, []byte{5, 6, 8, 9}, pixels)
}

func TestImageToIndexedFromColorImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	pixels, _, _ := ImageToIndexed(img)
	assert.Equal(t, []byte{10, 200}, pixels)
}

func TestPaletteStripRoundTrip(t *testing.T) {
	palette := []color.NRGBA{
		{R: 0xFF, A: 0xFF},
		{G: 0x80, B: 0x40, A: 0x7F},
		{R: 1, G: 2, B: 3, A: 0},
	}

	img := PaletteToImage(palette)
	assert.Equal(t, image.Rect(0, 0, 3, 1), img.Bounds())
	assert.Equal(t, palette[1], img.NRGBAAt(1, 0))

	assert.Equal(t, palette, ImageToPalette(img))
}

func TestImageToPaletteEmpty(t *testing.T) {
	assert.Empty(t, ImageToPalette(PaletteToImage(nil)))
}

func TestRawRoundTrip(t *testing.T) {
	pixels := []color.NRGBA{
		{R: 1, G: 2, B: 3, A: 4},
		{R: 5, G: 6, B: 7, A: 8},
		{R: 9, G: 10, B: 11, A: 12},
		{R: 13, G: 14, B: 15, A: 255},
	}

	img, err := RawToRGBA(pixels, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, pixels[2], img.NRGBAAt(0, 1))

	raw := RGBAToRaw(img)
	assert.Equal(t, 2, raw.Width)
	assert.Equal(t, 2, raw.Height)
	assert.Equal(t, pixels, raw.Pixels)

	_, err = RawToRGBA(pixels, 3, 2)
	assert.ErrorIs(t, err, fpacerrors.ErrImageSize)
}

func TestPayloads(t *testing.T) {
	palette, err := ParsePalette([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, []color.NRGBA{{1, 2, 3, 4}, {5, 6, 7, 8}}, palette)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, PaletteBytes(palette))

	_, err = ParsePalette([]byte{1, 2, 3})
	assert.ErrorIs(t, err, fpacerrors.ErrImageSize)

	raw, err := ParseRaw([]byte{9, 8, 7, 6}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7, 6}, raw.Bytes())

	_, err = ParseRaw([]byte{9, 8, 7}, 1, 1)
	assert.ErrorIs(t, err, fpacerrors.ErrImageSize)

	indexed, err := ParseIndexed([]byte{0, 1}, []byte{1, 1, 1, 1, 2, 2, 2, 2}, 2, 1)
	require.NoError(t, err)
	assert.Len(t, indexed.Palette, 2)
	gray, err := indexed.Gray()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, gray.Pix)
	assert.Equal(t, 2, indexed.PaletteImage().Bounds().Dx())
}
