package pipeline

import (
	"github.com/nvr-ai/go-imageopt/images"
	"github.com/nvr-ai/go-imageopt/options"
)

// Kind is the representation a Result carries.
type Kind int

const (
	// KindFile is a binary asset to emit under Result.Filename.
	KindFile Kind = iota
	// KindInlineText is raw SVG markup in Result.Text.
	KindInlineText
	// KindDataURI is a data URI in Result.Text.
	KindDataURI
)

func (k Kind) String() string {
	switch k {
	case KindInlineText:
		return "inline-text"
	case KindDataURI:
		return "data-uri"
	default:
		return "file"
	}
}

// Result is the packaged output of one run.
type Result struct {
	Kind Kind
	// Data holds the file bytes for KindFile.
	Data []byte
	// Text holds the markup or URI for the inline kinds.
	Text string
	// Filename is the output basename, renamed when the format changed.
	Filename string
	MimeType string
	Skipped  bool
	// Width and Height are the original dimensions of a placeholder.
	Width  int
	Height int
	// Report is nil for placeholders.
	Report *Report
	Plan   *options.Plan
}

// Package picks the output representation. Branches are checked in a fixed
// order: skip, svg inline, placeholder, inline, file.
func Package(c *Context, plan *options.Plan, source, optimized []byte) (*Result, error) {
	res := &Result{
		Filename: c.Basename(),
		MimeType: plan.MimeType,
		Plan:     plan,
	}

	if plan.Passthrough() {
		res.Kind = KindFile
		res.Data = source
		res.Skipped = true
		res.Report = &Report{
			Filename:  plan.Filename,
			Extension: plan.Extension,
			Before:    len(source),
			After:     len(source),
			Skipped:   true,
		}
		return res, nil
	}

	if plan.Placeholder && !(plan.Inline && plan.TargetExtension == images.FormatSVG) {
		meta, err := images.Probe(source)
		if err != nil {
			return nil, &ProbeError{Err: err}
		}
		res.Kind = KindDataURI
		res.Text = Placeholder(plan.Filename, plan.MimeType, optimized, meta.Width, meta.Height)
		res.Width, res.Height = meta.Width, meta.Height
		return res, nil
	}

	res.Report = &Report{
		Filename:  plan.Filename,
		Extension: plan.TargetExtension,
		Before:    len(source),
		After:     len(optimized),
	}

	switch {
	case plan.Inline && plan.TargetExtension == images.FormatSVG:
		res.Kind = KindInlineText
		res.Text = string(optimized)
	case plan.Inline:
		res.Kind = KindDataURI
		res.Text = DataURI(plan.MimeType, optimized)
	default:
		res.Kind = KindFile
		res.Data = optimized
	}
	return res, nil
}
