package fpac

import (
	"slices"
)

// Metadata is the catalog of an archive, independent of its byte layout.
// Offsets and sizes are not part of it; they are recomputed on every encode.
type Metadata struct {
	Unknown uint32
	Entries []MetaEntry
}

// MetaEntry names one packed file.
type MetaEntry struct {
	FileName string
	FileID   uint32
}

// NewMetadata creates an empty catalog carrying the header's unknown flag.
func NewMetadata(unknown uint32) *Metadata {
	return &Metadata{Unknown: unknown}
}

// AddEntry appends an entry, keeping insertion order.
func (m *Metadata) AddEntry(fileName string, fileID uint32) {
	m.Entries = append(m.Entries, MetaEntry{FileName: fileName, FileID: fileID})
}

// SortByID orders entries by FileID ascending. Ties keep their relative order.
func (m *Metadata) SortByID() {
	slices.SortStableFunc(m.Entries, func(a, b MetaEntry) int {
		switch {
		case a.FileID < b.FileID:
			return -1
		case a.FileID > b.FileID:
			return 1
		}
		return 0
	})
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	return &Metadata{
		Unknown: m.Unknown,
		Entries: slices.Clone(m.Entries),
	}
}

// StringSize returns the width of every name field: the longest name rounded
// past the next multiple of 4, so there is always room for a NUL.
// ok is false when there are no entries.
func (m *Metadata) StringSize() (size int, ok bool) {
	if len(m.Entries) == 0 {
		return 0, false
	}
	longest := 0
	for _, e := range m.Entries {
		longest = max(longest, len(e.FileName))
	}
	return PadToNearestWithExcess(longest, NameAlignment), true
}

// EntryRecordSize returns the record size used for the data start
// computation. See PadToNearest for the aligned case.
func (m *Metadata) EntryRecordSize() (size int, ok bool) {
	stringSize, ok := m.StringSize()
	if !ok {
		return 0, false
	}
	return PadToNearest(stringSize+EntryFieldsSize, RecordAlignment), true
}

// EntryTableSize returns EntryRecordSize times the entry count.
func (m *Metadata) EntryTableSize() (size int, ok bool) {
	recordSize, ok := m.EntryRecordSize()
	if !ok {
		return 0, false
	}
	return recordSize * len(m.Entries), true
}

// DataStart returns the offset the data section is declared to begin at.
func (m *Metadata) DataStart() (offset int, ok bool) {
	tableSize, ok := m.EntryTableSize()
	if !ok {
		return 0, false
	}
	return HeaderSize + tableSize, true
}
