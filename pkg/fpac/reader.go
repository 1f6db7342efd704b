package fpac

import (
	"github.com/hashicorp/go-hclog"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// FileBlob is the content of one packed file. It owns its bytes.
type FileBlob struct {
	Name     string
	Contents []byte
}

// Table is the parsed header plus entry table, in file order.
type Table struct {
	Header  *Header
	Entries []EntryRecord
}

// ReadTable parses the header and the entry table without touching the
// data section.
func ReadTable(data []byte) (*Table, error) {
	return ReadTableWithLogger(data, hclog.NewNullLogger())
}

// ReadTableWithLogger is ReadTable with a custom logger.
func ReadTableWithLogger(data []byte, logger hclog.Logger) (*Table, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	header, err := UnpackHeader(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("📦 Parsed FPAC header",
		"data_start", header.DataStart,
		"total_size", header.TotalSize,
		"file_count", header.FileCount,
		"string_size", header.StringSize,
	)

	stringSize := int(header.StringSize)
	pos := HeaderSize
	entries := make([]EntryRecord, 0, min(int(header.FileCount), len(data)/RecordAlignment))

	for i := uint32(0); i < header.FileCount; i++ {
		entry, n, err := UnpackEntry(data[pos:], stringSize)
		if err != nil {
			return nil, err
		}
		logger.Trace("📂 Entry record", "index", i, "name", entry.Name, "id", entry.FileID, "offset", entry.Offset, "size", entry.Size)
		entries = append(entries, *entry)
		pos += n
	}

	return &Table{Header: header, Entries: entries}, nil
}

// Decode parses a whole archive into its catalog and file contents.
//
// The offset fields of the entry table are not used. A cursor starts at the
// header's data start and consumes each entry's size in table order,
// followed by the padding up to the next 16-byte boundary.
func Decode(data []byte) (*Metadata, []FileBlob, error) {
	return DecodeWithLogger(data, hclog.NewNullLogger())
}

// DecodeWithLogger is Decode with a custom logger.
func DecodeWithLogger(data []byte, logger hclog.Logger) (*Metadata, []FileBlob, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	table, err := ReadTableWithLogger(data, logger)
	if err != nil {
		return nil, nil, err
	}

	meta := NewMetadata(table.Header.Unknown)
	files := make([]FileBlob, 0, len(table.Entries))

	cursor := int(table.Header.DataStart)
	if cursor > len(data) {
		return nil, nil, fpacerrors.Truncated(fpacerrors.SectionData, cursor, len(data))
	}

	for _, entry := range table.Entries {
		size := int(entry.Size)
		end := cursor + size + NeededToAlign(size, RecordAlignment)
		if end > len(data) {
			return nil, nil, fpacerrors.Truncated(fpacerrors.SectionData, end, len(data)).
				WithEntry(entry.Name, entry.FileID)
		}

		contents := make([]byte, size)
		copy(contents, data[cursor:cursor+size])

		logger.Trace("📂 Extracted entry", "name", entry.Name, "id", entry.FileID, "offset", cursor, "size", size)

		meta.AddEntry(entry.Name, entry.FileID)
		files = append(files, FileBlob{Name: entry.Name, Contents: contents})
		cursor = end
	}

	logger.Debug("✅ Decoded FPAC", "entries", len(files), "data_end", cursor)

	return meta, files, nil
}
