package codecs

import (
	"bytes"
	"context"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/images"
)

// WebP encodes at the resolved quality, or losslessly when configured.
type WebP struct{}

func (WebP) Name() string { return "webp" }

func (WebP) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{
		Lossless: opts.WebP.Lossless,
		Quality:  float32(opts.WebP.Quality),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode webp")
	}
	return buf.Bytes(), nil
}
