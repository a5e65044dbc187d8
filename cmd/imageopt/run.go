package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/nvr-ai/go-imageopt/emit"
	"github.com/nvr-ai/go-imageopt/options"
	"github.com/nvr-ai/go-imageopt/pipeline"
	"github.com/nvr-ai/go-imageopt/util"
)

// root is one command-line input: a file or directory and its query.
type root struct {
	path      string
	query     string
	dir       bool
	recursive bool
}

// job is one file to process, as "path?query".
type job struct {
	resource string
	source   string
}

type summary struct {
	files   int
	emitted int
	inlined int
	skipped int
	failed  int
	before  int64
	after   int64
	elapsed time.Duration
}

func defaultConcurrency() int {
	return max(runtime.NumCPU(), 1)
}

func resolveRoots(args []string, recursive bool) ([]root, error) {
	roots := make([]root, 0, len(args))
	for _, arg := range args {
		path, query := options.SplitResource(arg)
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root{path: path, query: query, dir: info.IsDir(), recursive: recursive})
	}
	return roots, nil
}

func collectJobs(roots []root) ([]job, error) {
	var jobs []job
	for _, r := range roots {
		files, err := util.FindImageFiles(r.path, r.recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			jobs = append(jobs, job{resource: f + r.query, source: f})
		}
	}
	return jobs, nil
}

// builder runs jobs through the pipeline and emits their results.
type builder struct {
	pipeline    *pipeline.Pipeline
	emitter     *emit.Emitter
	defaults    options.Layer
	concurrency int
	logger      *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

// build processes jobs with at most b.concurrency in flight. A failed file
// is reported and counted; it never stops the others.
func (b *builder) build(ctx context.Context, jobs []job) summary {
	start := time.Now()
	sum := summary{files: len(jobs)}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, max(b.concurrency, 1))
	)
	for _, j := range jobs {
		if ctx.Err() != nil {
			mu.Lock()
			sum.failed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(j job) {
			defer wg.Done()
			defer func() { <-sem }()

			res, entry, err := b.process(ctx, j)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				sum.failed++
				b.println(renderError(err))
				return
			case res.Skipped:
				sum.skipped++
			case res.Kind != pipeline.KindFile:
				sum.inlined++
			default:
				sum.emitted++
			}
			if res.Report != nil {
				sum.before += int64(res.Report.Before)
				sum.after += int64(res.Report.After)
			}
			b.println(renderResult(res, entry))
		}(j)
	}
	wg.Wait()

	sum.elapsed = time.Since(start)
	return sum
}

func (b *builder) process(ctx context.Context, j job) (*pipeline.Result, emit.Entry, error) {
	in, query, err := pipeline.LoadInput(j.resource)
	if err != nil {
		return nil, emit.Entry{}, err
	}
	query = query.WithDefaults(b.defaults)

	res, err := b.pipeline.Run(ctx, in, query)
	if err != nil {
		return nil, emit.Entry{}, err
	}
	entry, err := b.emitter.Emit(j.source, res)
	if err != nil {
		return nil, emit.Entry{}, fmt.Errorf("%s: emit: %w", filepath.Base(j.source), err)
	}
	b.logger.Debug("emitted", "source", j.source, "kind", entry.Kind, "file", entry.File, "size", entry.Size)
	return res, entry, nil
}

func (b *builder) println(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out, line)
}
