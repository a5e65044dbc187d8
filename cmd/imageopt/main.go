// imageopt optimizes images for the web: it re-encodes, resizes, compresses
// and inlines them according to a per-file query and a global config.
//
// Each argument is a file or directory, optionally followed by a query that
// applies to every image it names:
//
//	imageopt --out dist 'src/img?quality=80&w=1400' 'src/hero.png?placeholder'
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/nvr-ai/go-imageopt/config"
	"github.com/nvr-ai/go-imageopt/emit"
	"github.com/nvr-ai/go-imageopt/options"
	"github.com/nvr-ai/go-imageopt/pipeline"
	"github.com/nvr-ai/go-imageopt/profiler"
)

const (
	// DefaultOutputDir is where emitted files go without --out.
	DefaultOutputDir = "dist"
	// DefaultManifest is the manifest file name written under the output dir.
	DefaultManifest = "imageopt-manifest.json"
)

type cliOptions struct {
	configPath  string
	outDir      string
	query       string
	manifest    string
	concurrency int
	recursive   bool
	watch       bool
	verbose     bool
	profile     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts cliOptions

	flagSet := pflag.NewFlagSet("imageopt", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "global options file (.yaml, .yml, .json or .jsonc)")
	flagSet.StringVarP(&opts.outDir, "out", "o", DefaultOutputDir, "output directory for emitted files")
	flagSet.StringVarP(&opts.query, "query", "q", "", "default query applied to every file, e.g. 'quality=80&w=1400'")
	flagSet.StringVar(&opts.manifest, "manifest", DefaultManifest, "manifest file name under the output directory (empty to skip)")
	flagSet.IntVarP(&opts.concurrency, "concurrency", "j", defaultConcurrency(), "number of files processed at once")
	flagSet.BoolVarP(&opts.recursive, "recursive", "r", false, "descend into subdirectories")
	flagSet.BoolVarP(&opts.watch, "watch", "w", false, "keep running and reprocess images when they change")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log stage decisions")
	flagSet.BoolVar(&opts.profile, "profile", false, "print per-stage timings")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: imageopt [flags] <file|dir>[?query]...\n\n%s", flagSet.FlagUsages())
		return fmt.Errorf("no inputs")
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run", uuid.NewString())

	global := options.Layer{}
	if opts.configPath != "" {
		var err error
		if global, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	defaults, err := options.ParseQuery(opts.query)
	if err != nil {
		return fmt.Errorf("--query: %w", err)
	}

	var timings *profiler.Timings
	if opts.profile {
		timings = profiler.NewTimings()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b := &builder{
		pipeline:    pipeline.New(global, pipeline.WithLogger(logger), pipeline.WithTimings(timings)),
		emitter:     emit.New(opts.outDir),
		defaults:    defaults,
		concurrency: opts.concurrency,
		out:         os.Stdout,
		logger:      logger,
	}

	roots, err := resolveRoots(flagSet.Args(), opts.recursive)
	if err != nil {
		return err
	}
	jobs, err := collectJobs(roots)
	if err != nil {
		return err
	}

	sum := b.build(ctx, jobs)
	fmt.Fprintln(b.out, renderTotals(sum))
	if err := finish(b, opts, timings); err != nil {
		return err
	}

	if opts.watch {
		return watch(ctx, b, roots, opts, timings)
	}
	if sum.failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.failed, sum.files)
	}
	return nil
}

// finish writes the manifest and the timing report.
func finish(b *builder, opts cliOptions, timings *profiler.Timings) error {
	if opts.manifest != "" {
		if err := b.emitter.WriteManifest(opts.manifest); err != nil {
			return err
		}
	}
	if timings != nil {
		fmt.Fprintln(b.out, renderHeading("stage timings"))
		return timings.WriteReport(b.out)
	}
	return nil
}
