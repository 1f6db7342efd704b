package fpac

import (
	"bytes"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// ContentLookup supplies the current bytes of a file by name.
type ContentLookup interface {
	Contents(name string) ([]byte, error)
}

// ContentFunc adapts a function to ContentLookup.
type ContentFunc func(name string) ([]byte, error)

// Contents calls f(name).
func (f ContentFunc) Contents(name string) ([]byte, error) { return f(name) }

// MapLookup serves contents from memory.
type MapLookup map[string][]byte

// Contents returns the bytes stored under name.
func (m MapLookup) Contents(name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("no contents for %q", name)
	}
	return b, nil
}

// Encode builds an archive from a catalog and the current file contents.
// Entries are written in FileID order; offsets and sizes are recomputed and
// the caller's metadata is left untouched.
func Encode(meta *Metadata, lookup ContentLookup) ([]byte, error) {
	return EncodeWithLogger(meta, lookup, hclog.NewNullLogger())
}

// EncodeWithLogger is Encode with a custom logger.
func EncodeWithLogger(meta *Metadata, lookup ContentLookup, logger hclog.Logger) ([]byte, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if meta == nil {
		return nil, fpacerrors.Format(fpacerrors.SectionMetadata, fpacerrors.ErrEmptyMetadata)
	}

	sorted := meta.Clone()
	sorted.SortByID()

	stringSize, ok := sorted.StringSize()
	if !ok {
		return nil, fpacerrors.Format(fpacerrors.SectionMetadata, fpacerrors.ErrEmptyMetadata)
	}
	recordSize, _ := sorted.EntryRecordSize()
	dataStart, _ := sorted.DataStart()

	if recordSize == 0 {
		logger.Warn("⚠️ Entry record size collapsed to zero, data start overlaps the entry table",
			"string_size", stringSize)
	}
	logger.Debug("📈 Layout",
		"entries", len(sorted.Entries),
		"string_size", stringSize,
		"record_size", recordSize,
		"data_start", dataStart,
	)

	// Data section first, so every record knows its offset and size.
	var data bytes.Buffer
	records := make([]EntryRecord, 0, len(sorted.Entries))

	for _, entry := range sorted.Entries {
		contents, err := lookup.Contents(entry.FileName)
		if err != nil {
			return nil, fmt.Errorf("reading contents of %q (id %d): %w", entry.FileName, entry.FileID, err)
		}

		offset := data.Len()
		data.Write(contents)
		data.Write(make([]byte, NeededToAlign(len(contents), RecordAlignment)))

		if uint64(data.Len()) > math.MaxUint32 {
			return nil, fpacerrors.Format(fpacerrors.SectionData, fmt.Errorf("data section exceeds 4 GiB")).
				WithEntry(entry.FileName, entry.FileID)
		}

		logger.Trace("✍️ Packed entry", "name", entry.FileName, "id", entry.FileID, "offset", offset, "size", len(contents))

		records = append(records, EntryRecord{
			Name:   entry.FileName,
			FileID: entry.FileID,
			Offset: uint32(offset),
			Size:   uint32(len(contents)),
		})
	}

	totalSize := dataStart + data.Len()
	if uint64(totalSize) > math.MaxUint32 {
		return nil, fpacerrors.Format(fpacerrors.SectionData, fmt.Errorf("archive exceeds 4 GiB"))
	}

	header := &Header{
		DataStart:  uint32(dataStart),
		TotalSize:  uint32(totalSize),
		FileCount:  uint32(len(records)),
		Unknown:    sorted.Unknown,
		StringSize: uint32(stringSize),
	}

	out := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(records)*RecordLen(stringSize)+data.Len()))
	out.Write(header.Pack())
	for i := range records {
		out.Write(records[i].Pack(stringSize))
	}
	out.Write(data.Bytes())

	logger.Debug("✅ Encoded FPAC", "entries", len(records), "total_size", totalSize, "bytes", out.Len())

	return out.Bytes(), nil
}
