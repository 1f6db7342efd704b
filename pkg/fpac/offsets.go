package fpac

import (
	"github.com/hashicorp/go-hclog"
)

// Divergence records an entry whose stored offset disagrees with where the
// sequential cursor found its contents.
type Divergence struct {
	Name         string
	FileID       uint32
	StoredOffset int // DataStart + table offset
	CursorOffset int
	Size         uint32
}

// CheckOffsets walks the data section both ways, sequentially and by the
// stored offset fields, and reports every entry where they disagree. An
// archive written by Encode never diverges.
func CheckOffsets(data []byte, logger hclog.Logger) ([]Divergence, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	table, err := ReadTableWithLogger(data, logger)
	if err != nil {
		return nil, err
	}

	var divergences []Divergence
	cursor := int(table.Header.DataStart)

	for _, entry := range table.Entries {
		stored := int(table.Header.DataStart) + int(entry.Offset)
		if stored != cursor {
			logger.Warn("⚠️ Stored offset diverges from sequential layout",
				"name", entry.Name, "id", entry.FileID, "stored", stored, "cursor", cursor)
			divergences = append(divergences, Divergence{
				Name:         entry.Name,
				FileID:       entry.FileID,
				StoredOffset: stored,
				CursorOffset: cursor,
				Size:         entry.Size,
			})
		}
		size := int(entry.Size)
		cursor += size + NeededToAlign(size, RecordAlignment)
	}

	return divergences, nil
}
