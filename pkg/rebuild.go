package pkg

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/super-continent/unpac/internal/checksum"
	"github.com/super-continent/unpac/pkg/fpac"
	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
	"github.com/super-continent/unpac/pkg/imageio"
	"github.com/super-continent/unpac/pkg/sidecar"
)

// Rebuild packs the unpacked directory inputDir back into an archive at
// output. File contents are re-read and offsets recomputed; nothing but the
// catalog is taken from the sidecar.
func Rebuild(inputDir, output string, opts Options) error {
	logger := opts.logger()

	info, err := os.Stat(inputDir)
	if err != nil {
		return fpacerrors.IO("stat", inputDir, err)
	}
	if !info.IsDir() {
		return fpacerrors.IO("open", inputDir, errors.New("not a directory"))
	}
	if err := checkOutput(output, opts.Overwrite); err != nil {
		return err
	}

	doc, err := sidecar.ReadFile(filepath.Join(inputDir, MetaFileName))
	if err != nil {
		return err
	}
	logger.Debug("📖 Loaded sidecar", "entries", len(doc.Entries), "kind", doc.Container.Kind())

	assets := &dirAssets{dir: inputDir, preferred: opts.imageFormat(), logger: logger}
	if missing := assets.missing(doc.Container.AssetNames()); len(missing) > 0 {
		return fpacerrors.IO("open", inputDir, fmt.Errorf("%w: %s needs %s",
			fpacerrors.ErrMissingAsset, doc.Container.Kind(), strings.Join(missing, ", ")))
	}
	restored, err := doc.Container.Restore(assets)
	if err != nil {
		return err
	}

	digests := make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		digests[e.FileName] = e.Digest
	}

	lookup := fpac.ContentFunc(func(name string) ([]byte, error) {
		data, ok := restored[name]
		if !ok {
			path, err := entryPath(inputDir, fpac.MetaEntry{FileName: name})
			if err != nil {
				return nil, err
			}
			if data, err = os.ReadFile(path); err != nil {
				return nil, fpacerrors.IO("read", path, err)
			}
		}
		if d := digests[name]; d != "" {
			if same, err := checksum.Verify(data, d); err == nil && !same {
				logger.Info("✏️ Entry modified since unpack", "name", name)
			}
		}
		return data, nil
	})

	out, err := fpac.EncodeWithLogger(doc.Metadata(), lookup, logger)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, opts.dirMode()); err != nil {
			return fpacerrors.IO("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(output, out, opts.fileMode()); err != nil {
		return fpacerrors.IO("write", output, err)
	}

	logger.Info("✅ Rebuilt FPAC", "output", output, "entries", len(doc.Entries), "size", len(out))
	return nil
}

// dirAssets finds auxiliary images in an unpacked directory, trying the
// preferred format first.
type dirAssets struct {
	dir       string
	preferred imageio.Format
	logger    hclog.Logger
}

// find returns the path of the first existing file for name.
func (a *dirAssets) find(name string) (string, bool) {
	formats := []imageio.Format{a.preferred}
	for _, f := range imageio.Formats {
		if f != a.preferred {
			formats = append(formats, f)
		}
	}

	for _, f := range formats {
		path := filepath.Join(a.dir, f.FileName(name))
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// missing lists the expected file names that have no image in any format.
func (a *dirAssets) missing(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := a.find(name); !ok {
			out = append(out, a.preferred.FileName(name))
		}
	}
	return out
}

func (a *dirAssets) Image(name string) (image.Image, error) {
	path, ok := a.find(name)
	if !ok {
		path = filepath.Join(a.dir, a.preferred.FileName(name))
		return nil, fpacerrors.IO("open", path, fmt.Errorf("%w: %s", fpacerrors.ErrMissingAsset, name))
	}
	a.logger.Debug("🖼️ Reading auxiliary image", "path", path)
	return imageio.ReadFile(path)
}
