package sidecar

import (
	"fmt"
	"image"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
	"github.com/super-continent/unpac/pkg/pixel"
)

// Kind names a container variant in the sidecar document.
type Kind string

const (
	KindArchive      Kind = "archive"
	KindIndexedImage Kind = "indexed_image"
	KindRawImage     Kind = "raw_image"
	KindPalette      Kind = "palette"
)

// Auxiliary asset base names. The file extension comes from the image format.
const (
	AssetImage   = "image"
	AssetPalette = "palette"
)

// Asset is an auxiliary image derived from archive entries.
type Asset struct {
	Name  string // AssetImage or AssetPalette
	Image image.Image
}

// AssetSource loads auxiliary images by base name during rebuild.
type AssetSource interface {
	Image(name string) (image.Image, error)
}

// Container is the closed set of archive variants. Callers go through its
// methods; the variants are Archive, IndexedImage, RawImage and Palette.
type Container interface {
	Kind() Kind

	// AssetNames lists the auxiliary images the variant expects.
	AssetNames() []string

	// Export derives auxiliary images from the unpacked entry contents.
	Export(contents map[string][]byte) ([]Asset, error)

	// Restore rebuilds the contents of the entries the variant owns from
	// auxiliary images. Entries not in the result are read as plain files.
	Restore(src AssetSource) (map[string][]byte, error)

	validate(names map[string]bool) error
	wire() *wireImage
}

// ParseKind accepts a kind tag or its short form (indexed, raw).
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", string(KindArchive):
		return KindArchive, nil
	case string(KindIndexedImage), "indexed":
		return KindIndexedImage, nil
	case string(KindRawImage), "raw":
		return KindRawImage, nil
	case string(KindPalette):
		return KindPalette, nil
	}
	return "", fpacerrors.Format(fpacerrors.SectionMetadata, fmt.Errorf("unknown container kind %q", s))
}

// NewContainer builds the variant for kind. Fields a variant does not use
// are ignored.
func NewContainer(kind Kind, imageEntry, paletteEntry string, width, height int) (Container, error) {
	kind, err := ParseKind(string(kind))
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindIndexedImage:
		return IndexedImage{ImageEntry: imageEntry, PaletteEntry: paletteEntry, Width: width, Height: height}, nil
	case KindRawImage:
		return RawImage{ImageEntry: imageEntry, Width: width, Height: height}, nil
	case KindPalette:
		return Palette{PaletteEntry: paletteEntry}, nil
	default:
		return Archive{}, nil
	}
}

// Archive is a plain archive with no auxiliary images.
type Archive struct{}

// IndexedImage is an archive holding an index buffer and its palette.
type IndexedImage struct {
	ImageEntry   string
	PaletteEntry string
	Width        int
	Height       int
}

// RawImage is an archive holding one RGBA buffer.
type RawImage struct {
	ImageEntry string
	Width      int
	Height     int
}

// Palette is an archive holding only a palette.
type Palette struct {
	PaletteEntry string
}

func (Archive) Kind() Kind      { return KindArchive }
func (IndexedImage) Kind() Kind { return KindIndexedImage }
func (RawImage) Kind() Kind     { return KindRawImage }
func (Palette) Kind() Kind      { return KindPalette }

func (Archive) AssetNames() []string      { return nil }
func (IndexedImage) AssetNames() []string { return []string{AssetImage, AssetPalette} }
func (RawImage) AssetNames() []string     { return []string{AssetImage} }
func (Palette) AssetNames() []string      { return []string{AssetPalette} }

func requireEntry(names map[string]bool, role, name string) error {
	if name == "" {
		return fpacerrors.Format(fpacerrors.SectionMetadata, fmt.Errorf("%s entry is not set", role))
	}
	if !names[name] {
		return fpacerrors.Format(fpacerrors.SectionMetadata, fmt.Errorf("%s entry %q is not in file_entries", role, name))
	}
	return nil
}

func requireDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fpacerrors.Format(fpacerrors.SectionMetadata, fmt.Errorf("invalid image dimensions %dx%d", width, height))
	}
	return nil
}

func (Archive) validate(map[string]bool) error { return nil }

func (c IndexedImage) validate(names map[string]bool) error {
	if c.ImageEntry == c.PaletteEntry {
		return fpacerrors.Format(fpacerrors.SectionMetadata, fmt.Errorf("image and palette entry are both %q", c.ImageEntry))
	}
	if err := requireEntry(names, "image", c.ImageEntry); err != nil {
		return err
	}
	if err := requireEntry(names, "palette", c.PaletteEntry); err != nil {
		return err
	}
	return requireDimensions(c.Width, c.Height)
}

func (c RawImage) validate(names map[string]bool) error {
	if err := requireEntry(names, "image", c.ImageEntry); err != nil {
		return err
	}
	return requireDimensions(c.Width, c.Height)
}

func (c Palette) validate(names map[string]bool) error {
	return requireEntry(names, "palette", c.PaletteEntry)
}

func entryContents(contents map[string][]byte, name string) ([]byte, error) {
	b, ok := contents[name]
	if !ok {
		return nil, fpacerrors.Format(fpacerrors.SectionMetadata,
			fmt.Errorf("image entry %q is not in the archive", name))
	}
	return b, nil
}

func checkDimensions(img image.Image, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fpacerrors.Format(fpacerrors.SectionImage,
			fmt.Errorf("%w: image is %dx%d, metadata says %dx%d", fpacerrors.ErrImageSize, b.Dx(), b.Dy(), width, height))
	}
	return nil
}

func (Archive) Export(map[string][]byte) ([]Asset, error)      { return nil, nil }
func (Archive) Restore(AssetSource) (map[string][]byte, error) { return nil, nil }

func (c IndexedImage) Export(contents map[string][]byte) ([]Asset, error) {
	pixels, err := entryContents(contents, c.ImageEntry)
	if err != nil {
		return nil, err
	}
	palette, err := entryContents(contents, c.PaletteEntry)
	if err != nil {
		return nil, err
	}

	indexed, err := pixel.ParseIndexed(pixels, palette, c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	gray, err := indexed.Gray()
	if err != nil {
		return nil, err
	}

	return []Asset{
		{Name: AssetImage, Image: gray},
		{Name: AssetPalette, Image: indexed.PaletteImage()},
	}, nil
}

func (c IndexedImage) Restore(src AssetSource) (map[string][]byte, error) {
	img, err := src.Image(AssetImage)
	if err != nil {
		return nil, err
	}
	if err := checkDimensions(img, c.Width, c.Height); err != nil {
		return nil, err
	}
	strip, err := src.Image(AssetPalette)
	if err != nil {
		return nil, err
	}

	pixels, _, _ := pixel.ImageToIndexed(img)
	return map[string][]byte{
		c.ImageEntry:   pixels,
		c.PaletteEntry: pixel.PaletteBytes(pixel.ImageToPalette(strip)),
	}, nil
}

func (c RawImage) Export(contents map[string][]byte) ([]Asset, error) {
	data, err := entryContents(contents, c.ImageEntry)
	if err != nil {
		return nil, err
	}
	raw, err := pixel.ParseRaw(data, c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	img, err := raw.Image()
	if err != nil {
		return nil, err
	}
	return []Asset{{Name: AssetImage, Image: img}}, nil
}

func (c RawImage) Restore(src AssetSource) (map[string][]byte, error) {
	img, err := src.Image(AssetImage)
	if err != nil {
		return nil, err
	}
	if err := checkDimensions(img, c.Width, c.Height); err != nil {
		return nil, err
	}
	return map[string][]byte{c.ImageEntry: pixel.RGBAToRaw(img).Bytes()}, nil
}

func (c Palette) Export(contents map[string][]byte) ([]Asset, error) {
	data, err := entryContents(contents, c.PaletteEntry)
	if err != nil {
		return nil, err
	}
	palette, err := pixel.ParsePalette(data)
	if err != nil {
		return nil, err
	}
	return []Asset{{Name: AssetPalette, Image: pixel.PaletteToImage(palette)}}, nil
}

func (c Palette) Restore(src AssetSource) (map[string][]byte, error) {
	strip, err := src.Image(AssetPalette)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{c.PaletteEntry: pixel.PaletteBytes(pixel.ImageToPalette(strip))}, nil
}
