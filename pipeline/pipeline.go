package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/nvr-ai/go-imageopt/codecs"
	"github.com/nvr-ai/go-imageopt/images"
	"github.com/nvr-ai/go-imageopt/options"
	"github.com/nvr-ai/go-imageopt/profiler"
)

// Pipeline runs the per-file transform. It holds only read-only state, so
// one value serves concurrent Run calls.
type Pipeline struct {
	global  options.Layer
	merger  options.Merger
	backend images.Backend
	logger  *slog.Logger
	timings *profiler.Timings
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBackend sets the image backend used for reformatting and resizing.
func WithBackend(b images.Backend) Option {
	return func(p *Pipeline) { p.backend = b }
}

// WithLogger sets the logger. Savings lines go out at Info, stage decisions
// at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithTimings records every stage's duration into t.
func WithTimings(t *profiler.Timings) Option {
	return func(p *Pipeline) { p.timings = t }
}

// WithDefaults swaps the codec defaults table.
func WithDefaults(t codecs.Table) Option {
	return func(p *Pipeline) { p.merger = options.Merger{Defaults: t} }
}

// New creates a pipeline over a global option layer.
func New(global options.Layer, opts ...Option) *Pipeline {
	p := &Pipeline{
		global:  global.Clone(),
		merger:  options.Merger{Defaults: codecs.Builtin},
		backend: images.DefaultBackend(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run transforms one input. Every failure comes back as a *StageError naming
// the file and stage. Cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, in *Input, query options.Layer) (*Result, error) {
	fail := func(stage Stage, err error) (*Result, error) {
		p.logger.Debug("stage failed", "file", in.Path, "stage", string(stage), "error", err)
		return nil, &StageError{Filename: in.Path, Stage: stage, Err: err}
	}

	done := p.timings.Start(string(StageMerge))
	plan, err := p.merger.Merge(in.Path, query, p.global)
	done()
	if err != nil {
		return fail(StageMerge, err)
	}

	hctx := &Context{ResourcePath: in.Path}
	if plan.Passthrough() {
		res, err := Package(hctx, plan, in.Data, in.Data)
		if err != nil {
			return fail(StagePackage, err)
		}
		p.report(res)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return fail(StageFormat, err)
	}
	done = p.timings.Start(string(StageFormat))
	frame, err := Reformat(hctx, plan, p.backend, in.Data)
	done()
	if err != nil {
		return fail(StageFormat, err)
	}
	defer func() { frame.Close() }()
	p.logger.Debug("format", "file", plan.Filename, "target", plan.TargetExtension.String(), "reformat", plan.Reformats())

	if err := ctx.Err(); err != nil {
		return fail(StageResize, err)
	}
	done = p.timings.Start(string(StageResize))
	frame, err = Resize(plan, p.backend, frame)
	done()
	if err != nil {
		return fail(StageResize, err)
	}
	p.logger.Debug("resize", "file", plan.Filename, "width", plan.Width, "height", plan.Height, "placeholder", plan.Placeholder)

	if err := ctx.Err(); err != nil {
		return fail(StageCompress, err)
	}
	done = p.timings.Start(string(StageCompress))
	optimized, err := Compress(ctx, plan, frame)
	done()
	if err != nil {
		return fail(StageCompress, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StagePackage, err)
	}
	done = p.timings.Start(string(StagePackage))
	res, err := Package(hctx, plan, in.Data, optimized)
	done()
	if err != nil {
		return fail(StagePackage, err)
	}
	p.report(res)
	return res, nil
}

func (p *Pipeline) report(res *Result) {
	r := res.Report
	if r == nil {
		p.logger.Debug("placeholder", "file", res.Plan.Filename, "width", res.Width, "height", res.Height)
		return
	}
	p.logger.Info(r.String(), "file", r.Filename, "before", r.Before, "after", r.After)
}
