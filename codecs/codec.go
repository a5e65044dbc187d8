package codecs

import (
	"context"

	"github.com/nvr-ai/go-imageopt/images"
)

// Compressor is one codec-specific compression pass over encoded bytes.
type Compressor interface {
	// Name identifies the codec in errors and logs.
	Name() string
	// Compress returns the recompressed bytes. It must be deterministic for
	// identical input and options.
	Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error)
}

// registry maps a normalized extension to its ordered compressor chain.
// Adding a codec means adding one entry here and one Compressor.
var registry = map[images.Format][]Compressor{
	images.FormatGIF:  {Gifsicle{}},
	images.FormatJPEG: {Mozjpeg{}},
	images.FormatPNG:  {Pngquant{}, Optipng{}},
	images.FormatSVG:  {SVGO{}},
	images.FormatWebP: {WebP{}},
}

// Lookup returns the compressor chain for a format.
func Lookup(f images.Format) ([]Compressor, bool) {
	chain, ok := registry[f]
	return chain, ok
}

// smallest returns candidate unless it is larger than fallback. Reducers that
// cannot beat their input hand it back untouched, which also keeps reruns
// stable.
func smallest(candidate, fallback []byte) []byte {
	if len(candidate) == 0 || len(candidate) > len(fallback) {
		return fallback
	}
	return candidate
}
