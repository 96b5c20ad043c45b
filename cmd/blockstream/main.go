// Command blockstream extracts documents and writes their blocks.
//
// Usage:
//
//	blockstream [flags] <file|dir>...
//
// Directories are walked recursively and every supported file below them
// is extracted. Output goes to stdout unless -o is given:
//
//	blockstream -format text -o corpus.txt ./reports
//	blockstream -config blockstream.yaml -lang eng -lang deu scan.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tsawler/blockstream"
	"github.com/tsawler/blockstream/export"
	"github.com/tsawler/blockstream/format"
)

// stringSlice implements flag.Value for multi-value string flags.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ", ") }
func (s *stringSlice) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code: 0 on
// success, 1 if any document failed, 2 on a usage error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("blockstream", flag.ContinueOnError)
	fset.SetOutput(stderr)

	var langs stringSlice
	var (
		outPath    = fset.String("o", "", "Write output to `file` instead of stdout")
		formatName = fset.String("format", "jsonl", "Output format: jsonl, text, blocks")
		configPath = fset.String("config", "", "Path to YAML config `file`")
		workers    = fset.Int("workers", 0, "Documents extracted at once (default: config or CPU count)")
		ocrConc    = fset.Int("ocr-concurrency", 0, "Images per document recognized at once (default: config or 1)")
		verbose    = fset.Bool("v", false, "Log debug output")
	)
	fset.Var(&langs, "lang", "OCR language code (repeatable)")
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: blockstream [flags] <file|dir>...")
		fmt.Fprintf(stderr, "supported extensions: %s\n", supportedExtensions())
		fset.PrintDefaults()
	}

	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	outFormat, err := export.ParseFormat(*formatName)
	if err != nil {
		logger.Error("invalid -format", "error", err)
		return 2
	}

	cfg, err := blockstream.LoadConfig(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		return 2
	}
	if err := cfg.ApplyEnv(); err != nil {
		logger.Error("reading environment", "error", err)
		return 2
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *ocrConc > 0 {
		cfg.OCRConcurrency = *ocrConc
	}
	if len(langs) > 0 {
		cfg.OCR.Languages = langs
	}
	cfg.Logger = logger

	paths, err := collect(fset.Args())
	if err != nil {
		logger.Error("collecting inputs", "error", err)
		return 2
	}
	if len(paths) == 0 {
		logger.Error("no supported documents found")
		return 2
	}

	d, err := blockstream.NewDispatcher(cfg)
	if err != nil {
		logger.Error("creating dispatcher", "error", err)
		return 1
	}

	records, warnings := d.ExtractBatch(ctx, paths)

	out := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("creating output", "error", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	exp := export.New(outFormat)
	exp.PrettyPrint = outFormat == export.FormatBlocks
	if err := exp.Write(out, records...); err != nil {
		logger.Error("writing output", "error", err)
		return 1
	}

	failed := blockstream.CountWarnings(warnings, blockstream.WarningFailed)
	logger.Info("done",
		"documents", len(records),
		"failed", failed,
		"skipped", blockstream.CountWarnings(warnings, blockstream.WarningSkipped),
		"ocr_failures", blockstream.CountWarnings(warnings, blockstream.WarningOCR),
	)
	if failed > 0 {
		return 1
	}
	return 0
}

// collect expands directories into the supported files below them, in
// lexical order. Files named directly are kept even when unsupported so
// the dispatcher reports them as skipped.
func collect(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && format.Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// supportedExtensions lists the extensions collect keeps when walking a
// directory.
func supportedExtensions() string {
	all := format.All()
	exts := make([]string, len(all))
	for i, f := range all {
		exts[i] = f.Extension()
	}
	return strings.Join(exts, " ")
}
