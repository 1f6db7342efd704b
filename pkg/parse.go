package pkg

import (
	"os"
	"path/filepath"

	"github.com/super-continent/unpac/pkg/fpac"
	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
	"github.com/super-continent/unpac/pkg/imageio"
	"github.com/super-continent/unpac/pkg/sidecar"
)

// Parse unpacks the archive at input into outputDir: one file per entry,
// the sidecar metadata, and the auxiliary images of the container variant.
func Parse(input, outputDir string, opts Options) error {
	logger := opts.logger()

	if err := checkOutput(outputDir, opts.Overwrite); err != nil {
		return err
	}

	logger.Debug("📖 Reading archive", "path", input)
	data, err := readArchive(input)
	if err != nil {
		return err
	}

	meta, files, err := fpac.DecodeWithLogger(data, logger)
	if err != nil {
		return err
	}
	logger.Info("📦 Parsed FPAC", "path", input, "entries", len(files))

	doc := sidecar.New(meta, files, opts.container())
	if err := doc.Validate(); err != nil {
		return err
	}

	paths := make([]string, len(files))
	for i, entry := range meta.Entries {
		if paths[i], err = entryPath(outputDir, entry); err != nil {
			return err
		}
	}

	contents := make(map[string][]byte, len(files))
	for _, f := range files {
		contents[f.Name] = f.Contents
	}
	assets, err := doc.Container.Export(contents)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, opts.dirMode()); err != nil {
		return fpacerrors.IO("mkdir", outputDir, err)
	}

	logger.Debug("✍️ Writing entries", "count", len(files), "dir", outputDir)
	for i, f := range files {
		if err := os.MkdirAll(filepath.Dir(paths[i]), opts.dirMode()); err != nil {
			return fpacerrors.IO("mkdir", filepath.Dir(paths[i]), err)
		}
		if err := os.WriteFile(paths[i], f.Contents, opts.fileMode()); err != nil {
			return fpacerrors.IO("write", paths[i], err)
		}
		logger.Trace("💾 Wrote entry", "name", f.Name, "size", len(f.Contents))
	}

	for _, asset := range assets {
		format := opts.imageFormat()
		if !format.StoresAlpha() && !imageio.Opaque(asset.Image) {
			logger.Warn("⚠️ Image format drops alpha, writing PNG instead",
				"asset", asset.Name, "format", format)
			format = imageio.PNG
		}
		name := format.FileName(asset.Name)
		if _, clash := contents[name]; clash {
			logger.Warn("⚠️ Auxiliary image replaces an entry file of the same name", "name", name)
		}
		path := filepath.Join(outputDir, name)
		if err := imageio.WriteFile(path, asset.Image, format, opts.fileMode()); err != nil {
			return err
		}
		logger.Debug("🖼️ Wrote auxiliary image", "path", path, "kind", doc.Container.Kind())
	}

	metaPath := filepath.Join(outputDir, MetaFileName)
	for i, path := range paths {
		if path == metaPath {
			logger.Warn("⚠️ Sidecar replaces an entry file of the same name; rebuild will pack the sidecar",
				"name", files[i].Name)
		}
	}
	if err := doc.WriteFile(metaPath, opts.fileMode()); err != nil {
		return err
	}

	logger.Info("✅ Unpacked", "output", outputDir, "entries", len(files), "kind", doc.Container.Kind())
	return nil
}
