// Package errors defines the error taxonomy shared by the FPAC codec and
// the filesystem layer built on top of it.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Format errors 📦
	ErrBadMagic      = errors.New("bad magic")
	ErrZeroEntries   = errors.New("zero entries")
	ErrTruncated     = errors.New("truncated")
	ErrInvalidName   = errors.New("invalid name field")
	ErrEmptyMetadata = errors.New("empty metadata")
	ErrUnsafeName    = errors.New("entry name escapes output directory")
	ErrImageSize     = errors.New("image payload size mismatch")
	ErrNoAlpha       = errors.New("image format cannot store alpha")

	// IO errors 💾
	ErrMissingAsset = errors.New("missing auxiliary asset")
	ErrOutputExists = errors.New("output already exists")
)

// Section names used in FormatError.
const (
	SectionHeader     = "header"
	SectionEntryTable = "entry table"
	SectionData       = "data section"
	SectionMetadata   = "metadata"
	SectionImage      = "image"
)

// FormatError reports malformed archive bytes or metadata. It is always
// fatal to the archive being processed.
type FormatError struct {
	Section string
	Entry   string // empty when the failure is not tied to one entry
	ID      uint32
	HasID   bool
	Err     error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("❌ %s: %v", e.Section, e.Err)
	switch {
	case e.Entry != "" && e.HasID:
		msg += fmt.Sprintf(" (entry %q, id %d)", e.Entry, e.ID)
	case e.Entry != "":
		msg += fmt.Sprintf(" (entry %q)", e.Entry)
	case e.HasID:
		msg += fmt.Sprintf(" (id %d)", e.ID)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// Format builds a FormatError for a section.
func Format(section string, err error) *FormatError {
	return &FormatError{Section: section, Err: err}
}

// WithEntry attaches the entry name and id to the error.
func (e *FormatError) WithEntry(name string, id uint32) *FormatError {
	e.Entry = name
	e.ID = id
	e.HasID = true
	return e
}

// Truncated reports that the buffer ended while reading section.
func Truncated(section string, want, have int) *FormatError {
	return Format(section, fmt.Errorf("%w %s: need %d bytes, have %d", ErrTruncated, section, want, have))
}

// IOError reports a failed filesystem operation on a single unit of work.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("❌ %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IO wraps err as an IOError.
func IO(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// OutputCollisionError reports that a destination exists and overwrite was
// not granted.
type OutputCollisionError struct {
	Path string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("❌ output %q already exists (use --overwrite)", e.Path)
}

func (e *OutputCollisionError) Unwrap() error { return ErrOutputExists }
