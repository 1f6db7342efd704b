// Package imageio reads and writes the auxiliary images that accompany
// unpacked image archives.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// Format is an auxiliary image file format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// Formats lists the supported formats, default first.
var Formats = []Format{PNG, BMP, TIFF}

// ParseFormat accepts a format name or extension, case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "", "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("unknown image format: %s", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FileName joins a base name with the format's extension.
func (f Format) FileName(base string) string {
	return base + f.Ext()
}

// StoresAlpha reports whether the format keeps the alpha channel.
func (f Format) StoresAlpha() bool {
	return f != BMP
}

// Opaque reports whether every pixel of img is fully opaque. Images that
// cannot tell are treated as translucent.
func Opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// Encode writes img to w. A translucent image cannot be written as BMP.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG, "":
		return png.Encode(w, img)
	case BMP:
		if !Opaque(img) {
			return fmt.Errorf("%w: %s", fpacerrors.ErrNoAlpha, format)
		}
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unknown image format: %s", format)
	}
}

// Decode reads an image in any supported format.
func Decode(r io.Reader) (image.Image, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// WriteFile encodes img into path.
func WriteFile(path string, img image.Image, format Format, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fpacerrors.IO("create", path, err)
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, img, format); err != nil {
		f.Close()
		return fpacerrors.IO("encode", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fpacerrors.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return fpacerrors.IO("close", path, err)
	}
	return nil
}

// ReadFile decodes the image at path. A missing file is reported as
// ErrMissingAsset.
func ReadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fpacerrors.IO("open", path, fmt.Errorf("%w: %v", fpacerrors.ErrMissingAsset, err))
		}
		return nil, fpacerrors.IO("open", path, err)
	}
	defer f.Close()

	img, _, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fpacerrors.IO("decode", path, err)
	}
	return img, nil
}
