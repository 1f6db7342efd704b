package pkg

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/super-continent/unpac/internal/batch"
	"github.com/super-continent/unpac/pkg/fpac"
	fpacerrors "github.com/super-continent/unpac/pkg/fpac/errors"
	"github.com/super-continent/unpac/pkg/imageio"
	"github.com/super-continent/unpac/pkg/sidecar"
)

func testOptions() Options {
	return Options{
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:  "api_test",
			Level: hclog.Trace,
		}),
	}
}

// writeArchive encodes entries (name → contents, ids in slice order) into a
// file and returns its path and bytes.
func writeArchive(t *testing.T, dir string, names []string, contents map[string][]byte) (string, []byte) {
	t.Helper()

	meta := fpac.NewMetadata(0xC0FFEE)
	for i, name := range names {
		meta.AddEntry(name, uint32(i+1))
	}
	data, err := fpac.Encode(meta, fpac.MapLookup(contents))
	require.NoError(t, err)

	path := filepath.Join(dir, "test.pac")
	require.NoError(t, os.WriteFile(path, data, FilePerms))
	return path, data
}

func TestParseRebuildRoundTrip(t *testing.T) {
	dir := t.TempDir()
	contents := map[string][]byte{
		"a.bin":     {0x01, 0x02},
		"sub/c.bin": []byte("nested"),
		"b.bin":     {},
	}
	input, original := writeArchive(t, dir, []string{"a.bin", "sub/c.bin", "b.bin"}, contents)

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, testOptions()))

	for name, want := range contents {
		got, err := os.ReadFile(filepath.Join(unpacked, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	doc, err := sidecar.ReadFile(filepath.Join(unpacked, MetaFileName))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xC0FFEE), doc.Unknown)
	assert.Equal(t, sidecar.KindArchive, doc.Container.Kind())
	require.Len(t, doc.Entries, 3)

	rebuilt := filepath.Join(dir, "rebuilt.pac")
	require.NoError(t, Rebuild(unpacked, rebuilt, testOptions()))

	got, err := os.ReadFile(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRebuildPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin", "b.bin"}, map[string][]byte{
		"a.bin": {1},
		"b.bin": {2},
	})

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, testOptions()))
	require.NoError(t, os.WriteFile(filepath.Join(unpacked, "a.bin"), make([]byte, 40), FilePerms))

	rebuilt := filepath.Join(dir, "rebuilt.pac")
	require.NoError(t, Rebuild(unpacked, rebuilt, testOptions()))

	data, err := os.ReadFile(rebuilt)
	require.NoError(t, err)
	_, files, err := fpac.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 40), files[0].Contents)
	assert.Equal(t, []byte{2}, files[1].Contents)
}

func TestOutputCollision(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin"}, map[string][]byte{"a.bin": {1}})

	existing := filepath.Join(dir, "existing")
	require.NoError(t, os.Mkdir(existing, DirPerms))

	err := Parse(input, existing, testOptions())
	require.Error(t, err)
	var collision *fpacerrors.OutputCollisionError
	assert.ErrorAs(t, err, &collision)
	assert.ErrorIs(t, err, fpacerrors.ErrOutputExists)

	opts := testOptions()
	opts.Overwrite = true
	require.NoError(t, Parse(input, existing, opts))

	err = Rebuild(existing, input, testOptions())
	assert.ErrorIs(t, err, fpacerrors.ErrOutputExists)
	require.NoError(t, Rebuild(existing, input, opts))
}

func TestParseIOErrors(t *testing.T) {
	dir := t.TempDir()

	err := Parse(filepath.Join(dir, "missing.pac"), filepath.Join(dir, "out"), testOptions())
	var ioErr *fpacerrors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	err = Parse(dir, filepath.Join(dir, "out"), testOptions())
	assert.ErrorAs(t, err, &ioErr)

	err = Rebuild(filepath.Join(dir, "nodir"), filepath.Join(dir, "out.pac"), testOptions())
	assert.ErrorAs(t, err, &ioErr)
}

func TestParseFormatErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.pac")
	require.NoError(t, os.WriteFile(input, append([]byte("NOPE"), make([]byte, 60)...), FilePerms))

	out := filepath.Join(dir, "out")
	err := Parse(input, out, testOptions())
	assert.ErrorIs(t, err, fpacerrors.ErrBadMagic)
	assert.NoDirExists(t, out)
}

func TestParseRejectsEscapingNames(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"../evil"}, map[string][]byte{"../evil": {1}})

	err := Parse(input, filepath.Join(dir, "out"), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, fpacerrors.ErrUnsafeName)
	assert.NoFileExists(t, filepath.Join(dir, "evil"))
}

func TestRebuildMissingEntryFile(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin", "b.bin"}, map[string][]byte{"a.bin": {1}, "b.bin": {2}})

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, testOptions()))
	require.NoError(t, os.Remove(filepath.Join(unpacked, "b.bin")))

	err := Rebuild(unpacked, filepath.Join(dir, "out.pac"), testOptions())
	var ioErr *fpacerrors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, err.Error(), "b.bin")
}

func TestIndexedImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"pix.bin", "pal.bin"}, map[string][]byte{
		"pix.bin": {0, 1, 1, 0},
		"pal.bin": {255, 0, 0, 255, 0, 0, 255, 255},
	})

	opts := testOptions()
	opts.Container = sidecar.IndexedImage{ImageEntry: "pix.bin", PaletteEntry: "pal.bin", Width: 2, Height: 2}

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, opts))
	assert.FileExists(t, filepath.Join(unpacked, "image.png"))
	assert.FileExists(t, filepath.Join(unpacked, "palette.png"))

	// Edit the index image and the palette.
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(gray.Pix, []byte{1, 1, 0, 2})
	require.NoError(t, imageio.WriteFile(filepath.Join(unpacked, "image.png"), gray, imageio.PNG, FilePerms))

	strip := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	strip.SetNRGBA(2, 0, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	require.NoError(t, imageio.WriteFile(filepath.Join(unpacked, "palette.png"), strip, imageio.PNG, FilePerms))

	rebuilt := filepath.Join(dir, "rebuilt.pac")
	require.NoError(t, Rebuild(unpacked, rebuilt, testOptions()))

	data, err := os.ReadFile(rebuilt)
	require.NoError(t, err)
	_, files, err := fpac.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 0, 2}, files[0].Contents)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 9, 8, 7, 255}, files[1].Contents)

	require.NoError(t, os.Remove(filepath.Join(unpacked, "palette.png")))
	err = Rebuild(unpacked, filepath.Join(dir, "again.pac"), testOptions())
	assert.ErrorIs(t, err, fpacerrors.ErrMissingAsset)
}

func TestRawImageAlternateFormat(t *testing.T) {
	dir := t.TempDir()
	input, original := writeArchive(t, dir, []string{"rgba.bin"}, map[string][]byte{
		"rgba.bin": {1, 2, 3, 255, 4, 5, 6, 255},
	})

	opts := testOptions()
	opts.ImageFormat = imageio.TIFF
	opts.Container = sidecar.RawImage{ImageEntry: "rgba.bin", Width: 2, Height: 1}

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, opts))
	assert.FileExists(t, filepath.Join(unpacked, "image.tiff"))

	// Rebuild looks for PNG first and falls back to the TIFF.
	rebuilt := filepath.Join(dir, "rebuilt.pac")
	require.NoError(t, Rebuild(unpacked, rebuilt, testOptions()))

	got, err := os.ReadFile(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestParseInvalidContainer(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin"}, map[string][]byte{"a.bin": {1}})

	opts := testOptions()
	opts.Container = sidecar.Palette{PaletteEntry: "nope.bin"}

	out := filepath.Join(dir, "out")
	err := Parse(input, out, opts)
	var formatErr *fpacerrors.FormatError
	assert.ErrorAs(t, err, &formatErr)
	assert.NoDirExists(t, out)
}

func TestParseAllIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good, _ := writeArchive(t, dir, []string{"a.bin"}, map[string][]byte{"a.bin": {1}})
	bad := filepath.Join(dir, "bad.pac")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), FilePerms))

	jobs := []batch.Job{
		{Input: bad, Output: filepath.Join(dir, "bad")},
		{Input: good, Output: filepath.Join(dir, "good")},
		{Input: filepath.Join(dir, "missing.pac"), Output: filepath.Join(dir, "missing")},
	}
	results := ParseAll(jobs, 2, testOptions())
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, fpacerrors.ErrBadMagic)
	assert.NoError(t, results[1].Err)
	assert.FileExists(t, filepath.Join(dir, "good", "a.bin"))
	var ioErr *fpacerrors.IOError
	assert.ErrorAs(t, results[2].Err, &ioErr)

	rebuilt := RebuildAll([]batch.Job{{Input: filepath.Join(dir, "good"), Output: filepath.Join(dir, "good.pac")}}, 0, testOptions())
	require.Len(t, rebuilt, 1)
	assert.NoError(t, rebuilt[0].Err)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin", "b.bin"}, map[string][]byte{"a.bin": {1}, "b.bin": {2, 3}})

	report, err := Inspect(input, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), report.Table.Header.FileCount)
	assert.Len(t, report.Table.Entries, 2)
	assert.Empty(t, report.Divergences)
}

func TestParseAppliesFileMode(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"a.bin"}, map[string][]byte{"a.bin": {1}})

	opts := testOptions()
	opts.FileMode = 0o600
	out := filepath.Join(dir, "out")
	require.NoError(t, Parse(input, out, opts))

	for _, name := range []string{"a.bin", MetaFileName} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
	}
}

func TestParseBMPKeepsTranslucentColorsInPNG(t *testing.T) {
	dir := t.TempDir()
	input, original := writeArchive(t, dir, []string{"pix.bin", "pal.bin"}, map[string][]byte{
		"pix.bin": {0, 1, 1, 0},
		"pal.bin": {1, 2, 3, 4, 200, 100, 50, 128},
	})

	opts := testOptions()
	opts.ImageFormat = imageio.BMP
	opts.Container = sidecar.IndexedImage{ImageEntry: "pix.bin", PaletteEntry: "pal.bin", Width: 2, Height: 2}

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, opts))
	assert.FileExists(t, filepath.Join(unpacked, "image.bmp"))
	assert.FileExists(t, filepath.Join(unpacked, "palette.png"))
	assert.NoFileExists(t, filepath.Join(unpacked, "palette.bmp"))

	rebuilt := filepath.Join(dir, "rebuilt.pac")
	opts.Container = nil
	require.NoError(t, Rebuild(unpacked, rebuilt, opts))

	got, err := os.ReadFile(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestRebuildListsMissingAssets(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"pix.bin", "pal.bin"}, map[string][]byte{
		"pix.bin": {0, 1, 1, 0},
		"pal.bin": {255, 0, 0, 255, 0, 0, 255, 255},
	})

	opts := testOptions()
	opts.Container = sidecar.IndexedImage{ImageEntry: "pix.bin", PaletteEntry: "pal.bin", Width: 2, Height: 2}

	unpacked := filepath.Join(dir, "unpacked")
	require.NoError(t, Parse(input, unpacked, opts))
	require.NoError(t, os.Remove(filepath.Join(unpacked, "image.png")))
	require.NoError(t, os.Remove(filepath.Join(unpacked, "palette.png")))

	err := Rebuild(unpacked, filepath.Join(dir, "out.pac"), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, fpacerrors.ErrMissingAsset)
	assert.Contains(t, err.Error(), "image.png, palette.png")
	assert.NoFileExists(t, filepath.Join(dir, "out.pac"))
}

func TestParseWarnsWhenEntryShadowsSidecar(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeArchive(t, dir, []string{"meta.json", "a.bin"}, map[string][]byte{
		"meta.json": []byte("entry"),
		"a.bin":     {1},
	})

	var logs bytes.Buffer
	opts := testOptions()
	opts.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "api_test",
		Level:  hclog.Warn,
		Output: &logs,
	})

	out := filepath.Join(dir, "out")
	require.NoError(t, Parse(input, out, opts))
	assert.Contains(t, logs.String(), "Sidecar replaces an entry file")
	assert.Contains(t, logs.String(), "name=meta.json")

	_, err := sidecar.ReadFile(filepath.Join(out, MetaFileName))
	assert.NoError(t, err)
}
