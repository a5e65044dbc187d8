package options

import (
	"github.com/nvr-ai/go-imageopt/codecs"
	"github.com/nvr-ai/go-imageopt/images"
)

// DefaultName is the file naming template used when the global layer sets none.
const DefaultName = "[name].[ext]"

// Plan is the fully resolved, immutable set of decisions for one file.
// Stages read it and never modify it.
type Plan struct {
	// Path is the resource path without its query.
	Path string `json:"path"`
	// Extension is the source extension, with jpeg normalized to jpg.
	Extension images.Format `json:"extension"`
	// TargetFormat is the requested output format, empty when unset.
	TargetFormat images.Format `json:"targetFormat,omitempty"`
	// TargetExtension is TargetFormat when set, else Extension.
	TargetExtension images.Format `json:"targetExtension"`

	Quality int `json:"quality"`
	// Width and Height are zero when unset.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Inline      bool `json:"inline"`
	Skip        bool `json:"skip"`
	Placeholder bool `json:"placeholder"`
	EmitFile    bool `json:"emitFile"`

	// Filename is the source basename with jpeg normalized to jpg.
	Filename      string                `json:"filename"`
	MimeType      string                `json:"mimeType"`
	Interpolation images.ResampleFilter `json:"interpolation"`
	Codecs        codecs.Options        `json:"codecs"`

	OutputPath string `json:"outputPath,omitempty"`
	Name       string `json:"name"`
	Gzip       bool   `json:"gzip,omitempty"`
}

// Passthrough reports whether the source bytes are returned untouched.
func (p *Plan) Passthrough() bool {
	return p.Skip || !p.EmitFile
}

// Reformats reports whether the format stage re-encodes the source.
func (p *Plan) Reformats() bool {
	return p.TargetFormat != "" && p.TargetExtension != images.FormatSVG && p.TargetExtension != images.FormatGIF
}

// Resizes reports whether the resize stage may change the image.
func (p *Plan) Resizes() bool {
	if p.TargetExtension == images.FormatSVG || p.TargetExtension == images.FormatGIF {
		return false
	}
	return p.Placeholder || p.Width > 0 || p.Height > 0
}
