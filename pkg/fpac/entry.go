package fpac

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// EntryRecord is one on-disk entry table record.
//
// Binary layout: name (stringSize bytes, NUL terminated) · fileId u32 ·
// offset u32 · size u32 · zero padding up to the next 16-byte boundary.
// The padding is never empty: an already aligned record gets a full 16 bytes.
type EntryRecord struct {
	Name   string
	FileID uint32
	Offset uint32 // advisory; decoding does not seek with it
	Size   uint32
}

// RecordLen returns the number of bytes one record occupies for the given
// name field width.
func RecordLen(stringSize int) int {
	unpadded := stringSize + EntryFieldsSize
	return unpadded + NeededToAlignWithExcess(unpadded, RecordAlignment)
}

// Pack serializes the record using a name field of stringSize bytes.
func (e *EntryRecord) Pack(stringSize int) []byte {
	buf := make([]byte, 0, RecordLen(stringSize))
	buf = append(buf, ToFixedLength(e.Name, stringSize)...)
	buf = binary.LittleEndian.AppendUint32(buf, e.FileID)
	buf = binary.LittleEndian.AppendUint32(buf, e.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, e.Size)

	leftover := NeededToAlignWithExcess(len(buf), RecordAlignment)
	buf = append(buf, make([]byte, leftover)...)

	return buf
}

// UnpackEntry parses one record from the start of data and returns it along
// with the number of bytes consumed.
func UnpackEntry(data []byte, stringSize int) (*EntryRecord, int, error) {
	n := RecordLen(stringSize)
	if len(data) < n {
		return nil, 0, fpacerrors.Truncated(fpacerrors.SectionEntryTable, n, len(data))
	}

	name, err := parseName(data[:stringSize])
	if err != nil {
		return nil, 0, fpacerrors.Format(fpacerrors.SectionEntryTable, err)
	}

	fields := data[stringSize : stringSize+EntryFieldsSize]
	e := &EntryRecord{
		Name:   name,
		FileID: binary.LittleEndian.Uint32(fields[0:4]),
		Offset: binary.LittleEndian.Uint32(fields[4:8]),
		Size:   binary.LittleEndian.Uint32(fields[8:12]),
	}

	return e, n, nil
}

// parseName reads the bytes up to the first NUL as UTF-8.
func parseName(field []byte) (string, error) {
	end := bytes.IndexByte(field, 0)
	if end < 0 {
		return "", fmt.Errorf("%w: missing NUL terminator", fpacerrors.ErrInvalidName)
	}
	if !utf8.Valid(field[:end]) {
		return "", fmt.Errorf("%w: not valid UTF-8", fpacerrors.ErrInvalidName)
	}
	return string(field[:end]), nil
}
