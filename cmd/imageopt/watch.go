package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nvr-ai/go-imageopt/profiler"
	"github.com/nvr-ai/go-imageopt/util"
)

// debounceDelay collapses the burst of events an editor save produces.
const debounceDelay = 300 * time.Millisecond

// watch reprocesses images under roots whenever they are created or
// written, until ctx is done.
func watch(ctx context.Context, b *builder, roots []root, opts cliOptions, timings *profiler.Timings) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()

	outDir, _ := filepath.Abs(opts.outDir)
	dirs := map[string]root{}
	for _, r := range roots {
		dir := r.path
		if !r.dir {
			dir = filepath.Dir(r.path)
		}
		if err := addWatch(w, dir, r, dirs, outDir); err != nil {
			return err
		}
	}
	b.println(renderHeading(fmt.Sprintf("watching %d directories", len(dirs))))

	ready := make(chan string)
	timers := map[string]*time.Timer{}

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !util.IsImageFile(event.Name) {
				continue
			}
			if t, exists := timers[event.Name]; exists {
				t.Stop()
			}
			path := event.Name
			timers[path] = time.AfterFunc(debounceDelay, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(timers, path)
			r, ok := owner(path, roots, dirs)
			if !ok {
				continue
			}
			sum := b.build(ctx, []job{{resource: path + r.query, source: path}})
			b.println(renderTotals(sum))
			if err := finish(b, opts, timings); err != nil {
				b.println(renderError(err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("watcher error", "error", err)
		}
	}
}

// addWatch watches dir, and its subdirectories for recursive roots. The
// output directory is never watched so emitted files do not retrigger.
func addWatch(w *fsnotify.Watcher, dir string, r root, dirs map[string]root, outDir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == outDir || (path != dir && (!r.recursive || strings.HasPrefix(d.Name(), "."))) {
			return filepath.SkipDir
		}
		if _, seen := dirs[path]; !seen {
			if err := w.Add(path); err != nil {
				return fmt.Errorf("failed to watch folder %s: %w", path, err)
			}
			dirs[path] = r
		}
		return nil
	})
}

// owner finds the root a changed file belongs to. A root naming a single
// file only owns that file.
func owner(path string, roots []root, dirs map[string]root) (root, bool) {
	for _, r := range roots {
		if !r.dir && filepath.Clean(r.path) == filepath.Clean(path) {
			return r, true
		}
	}
	r, ok := dirs[filepath.Dir(path)]
	if !ok || !r.dir {
		return root{}, false
	}
	return r, true
}
