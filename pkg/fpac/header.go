package fpac

import (
	"bytes"
	"encoding/binary"

	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
)

// Header is the fixed 32-byte FPAC header.
//
// Layout (little-endian):
//
//	0x00 magic "FPAC"
//	0x04 data start offset
//	0x08 total size
//	0x0C file count
//	0x10 unknown flag (preserved verbatim)
//	0x14 string size
//	0x18 8 reserved zero bytes
type Header struct {
	DataStart  uint32
	TotalSize  uint32
	FileCount  uint32
	Unknown    uint32
	StringSize uint32
}

// Pack serializes the header to exactly HeaderSize bytes.
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderSize)

	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.DataStart)
	binary.LittleEndian.PutUint32(buf[8:12], h.TotalSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.FileCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.Unknown)
	binary.LittleEndian.PutUint32(buf[20:24], h.StringSize)
	// buf[24:32] reserved, already zero

	return buf
}

// UnpackHeader parses the header at the start of data. The magic is checked
// before anything else is read.
func UnpackHeader(data []byte) (*Header, error) {
	if len(data) < len(Magic) {
		return nil, fpacerrors.Truncated(fpacerrors.SectionHeader, HeaderSize, len(data))
	}
	if !bytes.Equal(data[0:4], Magic) {
		return nil, fpacerrors.Format(fpacerrors.SectionHeader, fpacerrors.ErrBadMagic)
	}
	if len(data) < HeaderSize {
		return nil, fpacerrors.Truncated(fpacerrors.SectionHeader, HeaderSize, len(data))
	}

	h := &Header{
		DataStart:  binary.LittleEndian.Uint32(data[4:8]),
		TotalSize:  binary.LittleEndian.Uint32(data[8:12]),
		FileCount:  binary.LittleEndian.Uint32(data[12:16]),
		Unknown:    binary.LittleEndian.Uint32(data[16:20]),
		StringSize: binary.LittleEndian.Uint32(data[20:24]),
	}

	if h.FileCount == 0 {
		return nil, fpacerrors.Format(fpacerrors.SectionHeader, fpacerrors.ErrZeroEntries)
	}

	return h, nil
}
