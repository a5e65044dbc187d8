package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/codecs"
	"github.com/nvr-ai/go-imageopt/images"
	"github.com/nvr-ai/go-imageopt/options"
)

// LQIPWidth is the raster width of placeholders. Height follows the aspect
// ratio.
const LQIPWidth = 32

// Reformat opens the source for encoding into the plan's target format. The
// source bytes pass through untouched when no format is requested or the
// target is svg or gif. Encoding uses pass-through parameters; the user's
// quality is applied later by the compress stage.
func Reformat(c *Context, plan *options.Plan, backend images.Backend, source []byte) (*Frame, error) {
	if !plan.Reformats() {
		return &Frame{data: source}, nil
	}

	h, err := backend.Open(source, plan.TargetExtension)
	if err != nil {
		return nil, errors.Wrapf(err, "open as %s", plan.TargetExtension)
	}
	c.Rename(plan.TargetExtension)
	return &Frame{handle: h}, nil
}

// Resize scales the frame to the plan's bounds, or to LQIPWidth for
// placeholders. It never enlarges and keeps the aspect ratio when both
// bounds are set.
func Resize(plan *options.Plan, backend images.Backend, f *Frame) (*Frame, error) {
	if !plan.Resizes() || !plan.TargetExtension.Resizable() {
		return f, nil
	}

	width, height := plan.Width, plan.Height
	if plan.Placeholder {
		width, height = LQIPWidth, 0
	}

	if !f.Decoded() {
		// Stay on the raw bytes when the bounds do not shrink the image.
		meta, err := images.Probe(f.data)
		if err != nil {
			return nil, err
		}
		w, h := images.FitWithin(meta.Width, meta.Height, width, height)
		if w == meta.Width && h == meta.Height {
			return f, nil
		}

		handle, err := backend.Open(f.data, plan.TargetExtension)
		if err != nil {
			return nil, errors.Wrapf(err, "open as %s", plan.TargetExtension)
		}
		f = &Frame{handle: handle}
	}

	sw, sh := f.handle.Size()
	w, h := images.FitWithin(sw, sh, width, height)
	if w == sw && h == sh {
		return f, nil
	}
	if err := f.handle.Resize(w, h, plan.Interpolation); err != nil {
		return f, errors.Wrapf(err, "resize to %dx%d", w, h)
	}
	return f, nil
}

// Compress encodes the frame and runs the target extension's compressor
// chain over it. Extensions without a chain pass through.
func Compress(ctx context.Context, plan *options.Plan, f *Frame) ([]byte, error) {
	data, err := f.Bytes()
	if err != nil {
		return nil, err
	}

	chain, ok := codecs.Lookup(plan.TargetExtension)
	if !ok {
		return data, nil
	}

	opts := plan.Codecs.Clone()
	for _, c := range chain {
		out, err := c.Compress(ctx, data, &opts)
		if err != nil {
			return nil, &CodecError{Codec: c.Name(), Err: err}
		}
		data = out
	}
	return data, nil
}
