package fpac

// Core format constants. These are part of the on-disk layout and never change.

// Magic identifies an FPAC container.
var Magic = []byte{'F', 'P', 'A', 'C'}

const (
	// Fixed sizes
	HeaderSize      = 0x20 // magic + 5 u32 fields + 8 reserved bytes
	ReservedSize    = 8
	EntryFieldsSize = 0xC // fileId + offset + size

	// Alignment steps
	RecordAlignment = 0x10 // entry records and data payloads
	NameAlignment   = 0x4  // name field width
)
