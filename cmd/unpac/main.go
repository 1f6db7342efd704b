package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/super-continent/unpac/internal/batch"
	"github.com/super-continent/unpac/pkg"
	"github.com/super-continent/unpac/pkg/imageio"
	"github.com/super-continent/unpac/pkg/logging"
	"github.com/super-continent/unpac/pkg/sidecar"
	"github.com/super-continent/unpac/pkg/utils/permissions"
)

const version = "0.2.0"

var (
	overwrite    bool
	logLevel     string
	jobs         int
	imageFormat  string
	kind         string
	imageEntry   string
	paletteEntry string
	width        int
	height       int
	fileMode     string
	dirMode      string
	versionFlag  bool
	rootCmd      *cobra.Command
)

func buildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("unpac %s\n", version)
	fmt.Printf("Built: %s\n", buildTimestamp())
}

func init() {
	rootCmd = &cobra.Command{
		Use:           "unpac",
		Short:         "Unpack and rebuild FPAC archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, json:<level>)")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Archives processed in parallel (default: number of CPUs)")
	rootCmd.PersistentFlags().StringVar(&fileMode, "file-mode", "", "Permissions for written files (default 0644)")
	rootCmd.PersistentFlags().StringVar(&dirMode, "dir-mode", "", "Permissions for created directories (default 0755)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	parseCmd := &cobra.Command{
		Use:   "parse INPUT OUTPUT [INPUT OUTPUT...]",
		Short: "Parse a .pac file into its contained parts",
		Args:  pairArgs,
		RunE:  runParse,
	}
	parseCmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "Overwrite the output path if it already exists")
	parseCmd.Flags().StringVar(&imageFormat, "image-format", string(imageio.PNG), "Format of auxiliary images (png, bmp, tiff)")
	parseCmd.Flags().StringVar(&kind, "kind", string(sidecar.KindArchive), "Container kind (archive, indexed, raw, palette)")
	parseCmd.Flags().StringVar(&imageEntry, "image-entry", "", "Entry holding the pixel buffer")
	parseCmd.Flags().StringVar(&paletteEntry, "palette-entry", "", "Entry holding the palette")
	parseCmd.Flags().IntVar(&width, "width", 0, "Image width in pixels")
	parseCmd.Flags().IntVar(&height, "height", 0, "Image height in pixels")

	rebuildCmd := &cobra.Command{
		Use:   "rebuild INPUT OUTPUT [INPUT OUTPUT...]",
		Short: "Rebuild a parsed .pac directory into its original format",
		Args:  pairArgs,
		RunE:  runRebuild,
	}
	rebuildCmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "Overwrite the output path if it already exists")
	rebuildCmd.Flags().StringVar(&imageFormat, "image-format", string(imageio.PNG), "Auxiliary image format to look for first")

	inspectCmd := &cobra.Command{
		Use:   "inspect INPUT...",
		Short: "Print the header and entry table of .pac files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInspect,
	}

	rootCmd.AddCommand(parseCmd, rebuildCmd, inspectCmd)
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func pairArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || len(args)%2 != 0 {
		return fmt.Errorf("expected INPUT OUTPUT pairs, got %d argument(s)", len(args))
	}
	return nil
}

func pairJobs(args []string) []batch.Job {
	out := make([]batch.Job, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		out = append(out, batch.Job{Input: args[i], Output: args[i+1]})
	}
	return out
}

func newLogger() (hclog.Logger, func() error) {
	opts := logging.Resolve(logLevel)
	output, closeOutput := logging.Output()
	logger := logging.NewLogger("unpac", opts, output)
	logger.Debug("🔧 Log level resolved", "level", opts.Level, "source", opts.Source, "json", opts.JSON)
	return logger, closeOutput
}

func options(logger hclog.Logger) (pkg.Options, error) {
	format, err := imageio.ParseFormat(imageFormat)
	if err != nil {
		return pkg.Options{}, err
	}
	files, err := permissions.ParseMode(fileMode, pkg.FilePerms)
	if err != nil {
		return pkg.Options{}, err
	}
	dirs, err := permissions.ParseMode(dirMode, pkg.DirPerms)
	if err != nil {
		return pkg.Options{}, err
	}
	if !permissions.Traversable(dirs) {
		logger.Warn("⚠️ Directory mode is not traversable by the owner", "mode", permissions.FormatMode(dirs))
	}

	return pkg.Options{
		Overwrite:   overwrite,
		ImageFormat: format,
		FileMode:    files,
		DirMode:     dirs,
		Logger:      logger,
	}, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	logger, closeOutput := newLogger()
	defer closeOutput()

	opts, err := options(logger)
	if err != nil {
		return err
	}
	if opts.Container, err = sidecar.NewContainer(sidecar.Kind(kind), imageEntry, paletteEntry, width, height); err != nil {
		return err
	}

	return report("Parsed", pkg.ParseAll(pairJobs(args), jobs, opts))
}

func runRebuild(cmd *cobra.Command, args []string) error {
	logger, closeOutput := newLogger()
	defer closeOutput()

	opts, err := options(logger)
	if err != nil {
		return err
	}

	return report("Rebuilt", pkg.RebuildAll(pairJobs(args), jobs, opts))
}

// report prints one line per job and fails if any job failed.
func report(verb string, results []batch.Result) error {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Printf("%s %s -> %s\n", verb, r.Input, r.Output)
	}
	if failed := batch.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d archive(s) failed", len(failed), len(results))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger, closeOutput := newLogger()
	defer closeOutput()

	failed := 0
	for _, input := range args {
		rep, err := pkg.Inspect(input, logger.With("input", input))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", input, err)
			failed++
			continue
		}
		printReport(input, rep)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d archive(s) failed", failed, len(args))
	}
	return nil
}

func printReport(input string, rep *pkg.InspectReport) {
	h := rep.Table.Header
	fmt.Printf("%s\n", input)
	fmt.Printf("  data_start=0x%X total_size=%d file_count=%d unknown=0x%X string_size=%d\n",
		h.DataStart, h.TotalSize, h.FileCount, h.Unknown, h.StringSize)
	for _, e := range rep.Table.Entries {
		fmt.Printf("  %6d  offset=0x%08X  size=%-10d %s\n", e.FileID, e.Offset, e.Size, e.Name)
	}
	for _, d := range rep.Divergences {
		fmt.Printf("  ⚠️ %s (id %d): stored offset 0x%X, sequential offset 0x%X\n",
			d.Name, d.FileID, d.StoredOffset, d.CursorOffset)
	}
}
