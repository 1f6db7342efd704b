// Package pkg is the filesystem layer of unpac: it reads archives and
// unpacked directories, runs the FPAC codec, and writes the results.
package pkg

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/super-continent/unpac/internal/batch"
	"github.com/super-continent/unpac/pkg/fpac"
	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
	"github.com/super-continent/unpac/pkg/imageio"
	"github.com/super-continent/unpac/pkg/sidecar"
)

// Options controls Parse and Rebuild.
type Options struct {
	// Overwrite allows replacing an existing output path.
	Overwrite bool

	// ImageFormat is used for auxiliary images written by Parse and is the
	// first format Rebuild looks for. Defaults to PNG.
	ImageFormat imageio.Format

	// Container selects the archive variant on Parse. Rebuild takes it from
	// the sidecar. Defaults to a plain archive.
	Container sidecar.Container

	// FileMode and DirMode are applied to everything written. Zero means
	// FilePerms and DirPerms.
	FileMode os.FileMode
	DirMode  os.FileMode

	Logger hclog.Logger
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

func (o Options) imageFormat() imageio.Format {
	if o.ImageFormat == "" {
		return imageio.PNG
	}
	return o.ImageFormat
}

func (o Options) fileMode() os.FileMode {
	if o.FileMode == 0 {
		return FilePerms
	}
	return o.FileMode
}

func (o Options) dirMode() os.FileMode {
	if o.DirMode == 0 {
		return DirPerms
	}
	return o.DirMode
}

func (o Options) container() sidecar.Container {
	if o.Container == nil {
		return sidecar.Archive{}
	}
	return o.Container
}

// checkOutput refuses an existing destination unless overwrite is granted.
func checkOutput(path string, overwrite bool) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		if !overwrite {
			return &fpacerrors.OutputCollisionError{Path: path}
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fpacerrors.IO("stat", path, err)
	}
}

// ParseAll unpacks every job.Input into job.Output on a worker pool.
func ParseAll(jobs []batch.Job, workers int, opts Options) []batch.Result {
	return batch.Run(jobs, workers, func(job batch.Job) error {
		return Parse(job.Input, job.Output, withJobLogger(opts, job))
	})
}

// RebuildAll rebuilds every job.Input directory into job.Output on a worker
// pool.
func RebuildAll(jobs []batch.Job, workers int, opts Options) []batch.Result {
	return batch.Run(jobs, workers, func(job batch.Job) error {
		return Rebuild(job.Input, job.Output, withJobLogger(opts, job))
	})
}

func withJobLogger(opts Options, job batch.Job) Options {
	opts.Logger = opts.logger().With("input", job.Input)
	return opts
}

// InspectReport describes an archive without extracting it.
type InspectReport struct {
	Table       *fpac.Table
	Divergences []fpac.Divergence
}

// Inspect reads the header and entry table of an archive and compares the
// stored offsets with the sequential layout.
func Inspect(input string, logger hclog.Logger) (*InspectReport, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	data, err := readArchive(input)
	if err != nil {
		return nil, err
	}
	table, err := fpac.ReadTableWithLogger(data, logger)
	if err != nil {
		return nil, err
	}
	divergences, err := fpac.CheckOffsets(data, logger)
	if err != nil {
		return nil, err
	}
	return &InspectReport{Table: table, Divergences: divergences}, nil
}

func readArchive(input string) ([]byte, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fpacerrors.IO("stat", input, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fpacerrors.IO("open", input, errors.New("not a regular file"))
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fpacerrors.IO("read", input, err)
	}
	return data, nil
}

// entryPath maps an entry name to a path under root. Names that would land
// outside root are rejected.
func entryPath(root string, entry fpac.MetaEntry) (string, error) {
	name := filepath.FromSlash(entry.FileName)
	if !filepath.IsLocal(name) {
		return "", fpacerrors.Format(fpacerrors.SectionEntryTable, fpacerrors.ErrUnsafeName).
			WithEntry(entry.FileName, entry.FileID)
	}
	return filepath.Join(root, name), nil
}
