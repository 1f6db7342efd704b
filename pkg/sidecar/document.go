// Package sidecar defines the metadata document written next to unpacked
// archive entries and read back on rebuild.
package sidecar

import (
	"encoding/json"
	"io"
	"os"

	"github.com/super-continent/unpac/internal/checksum"
	"github.com/super-continent/unpac/pkg/fpac"
	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// Document is the sidecar metadata. Offsets and sizes are deliberately
// absent; rebuild always recomputes them.
type Document struct {
	Container Container
	Unknown   uint32
	Entries   []Entry
}

// Entry is one catalog entry. Digest is the content digest at unpack time
// and is only used to report modified files.
type Entry struct {
	FileName string `json:"file_name"`
	FileID   uint32 `json:"file_id"`
	Digest   string `json:"digest,omitempty"`
}

type wireDocument struct {
	Kind        Kind       `json:"kind,omitempty"`
	Unknown     uint32     `json:"unknown"`
	FileEntries []Entry    `json:"file_entries"`
	Image       *wireImage `json:"image,omitempty"`
}

type wireImage struct {
	ImageEntry   string `json:"image_entry,omitempty"`
	PaletteEntry string `json:"palette_entry,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

func (Archive) wire() *wireImage { return nil }

func (c IndexedImage) wire() *wireImage {
	return &wireImage{ImageEntry: c.ImageEntry, PaletteEntry: c.PaletteEntry, Width: c.Width, Height: c.Height}
}

func (c RawImage) wire() *wireImage {
	return &wireImage{ImageEntry: c.ImageEntry, Width: c.Width, Height: c.Height}
}

func (c Palette) wire() *wireImage {
	return &wireImage{PaletteEntry: c.PaletteEntry}
}

// New builds a document from decoded archive contents. Digests are computed
// from files, which must be parallel to meta.Entries.
func New(meta *fpac.Metadata, files []fpac.FileBlob, container Container) *Document {
	if container == nil {
		container = Archive{}
	}
	doc := &Document{
		Container: container,
		Unknown:   meta.Unknown,
		Entries:   make([]Entry, len(meta.Entries)),
	}
	for i, e := range meta.Entries {
		doc.Entries[i] = Entry{FileName: e.FileName, FileID: e.FileID}
		if i < len(files) {
			doc.Entries[i].Digest = checksum.Calculate(files[i].Contents)
		}
	}
	return doc
}

// Metadata converts the document back into an archive catalog.
func (d *Document) Metadata() *fpac.Metadata {
	meta := fpac.NewMetadata(d.Unknown)
	for _, e := range d.Entries {
		meta.AddEntry(e.FileName, e.FileID)
	}
	return meta
}

// Validate checks that the catalog is not empty and that the container
// variant refers to entries in it.
func (d *Document) Validate() error {
	if len(d.Entries) == 0 {
		return fpacerrors.Format(fpacerrors.SectionMetadata, fpacerrors.ErrEmptyMetadata)
	}
	names := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		names[e.FileName] = true
	}
	container := d.Container
	if container == nil {
		container = Archive{}
	}
	return container.validate(names)
}

// MarshalJSON writes the container kind as a "kind" tag next to the catalog.
func (d *Document) MarshalJSON() ([]byte, error) {
	container := d.Container
	if container == nil {
		container = Archive{}
	}
	entries := d.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(wireDocument{
		Kind:        container.Kind(),
		Unknown:     d.Unknown,
		FileEntries: entries,
		Image:       container.wire(),
	})
}

// UnmarshalJSON reads a document. A missing kind means a plain archive, which
// keeps sidecars written without one loadable.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	img := w.Image
	if img == nil {
		img = &wireImage{}
	}

	container, err := NewContainer(w.Kind, img.ImageEntry, img.PaletteEntry, img.Width, img.Height)
	if err != nil {
		return err
	}

	d.Container = container

	d.Unknown = w.Unknown
	d.Entries = w.FileEntries
	return nil
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fpacerrors.Format(fpacerrors.SectionMetadata, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile loads the document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fpacerrors.IO("open", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile saves the document to path.
func (d *Document) WriteFile(path string, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fpacerrors.IO("create", path, err)
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		return fpacerrors.IO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return fpacerrors.IO("close", path, err)
	}
	return nil
}
