package codecs

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/svg"
)

const svgMimeType = "image/svg+xml"

// SVGO minifies SVG markup. Quality does not apply to vectors.
type SVGO struct{}

func (SVGO) Name() string { return "svgo" }

func (SVGO) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add(svgMimeType, &svg.Minifier{
		Precision:    opts.SVGO.Precision,
		KeepComments: opts.SVGO.KeepComments,
	})

	out, err := m.Bytes(svgMimeType, data)
	if err != nil {
		return nil, errors.Wrap(err, "minify svg")
	}
	return out, nil
}
