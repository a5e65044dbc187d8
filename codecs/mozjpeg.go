package codecs

import (
	"bytes"
	"context"
	"image/jpeg"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/images"
)

// Mozjpeg re-encodes JPEG at the resolved quality.
type Mozjpeg struct{}

func (Mozjpeg) Name() string { return "mozjpeg" }

func (Mozjpeg) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}
	img = images.Smooth(img, opts.Mozjpeg.Smooth)

	quality := opts.Mozjpeg.Quality
	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}
