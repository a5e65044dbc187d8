package codecs

import (
	"bytes"
	"context"
	"image/png"
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/images"
)

// Pngquant is the lossy PNG pass: it quantizes to a palette sized by quality.
type Pngquant struct{}

func (Pngquant) Name() string { return "pngquant" }

func (Pngquant) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := opts.Pngquant
	if o.Quality >= 100 {
		return data, nil
	}

	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}

	pal := medianCut(histogram(img, o.Posterize), PaletteSize(o.Quality))
	quantized := remap(img, pal, o.Floyd > 0 && !o.Nofs)

	var buf bytes.Buffer
	if err := png.Encode(&buf, quantized); err != nil {
		return nil, errors.Wrap(err, "encode quantized png")
	}
	return smallest(buf.Bytes(), data), nil
}

// PaletteSize maps quality 0..100 onto a palette of 2..256 colors.
func PaletteSize(quality int) int {
	n := int(math.Ceil(256 * float64(quality) / 100))
	return min(max(n, 2), 256)
}
