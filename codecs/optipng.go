package codecs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/images"
)

// Optipng is the lossless PNG pass. It tries reduced pixel layouts and zlib
// levels, keeping the smallest encoding and never growing the input.
type Optipng struct{}

func (Optipng) Name() string { return "optipng" }

func (Optipng) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := opts.Optipng
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}

	candidates := reductions(img, o)
	if o.OptimizationLevel < 4 {
		candidates = candidates[:1]
	}

	levels := []png.CompressionLevel{png.DefaultCompression}
	switch {
	case o.OptimizationLevel <= 0:
		levels = []png.CompressionLevel{png.BestSpeed}
	case o.OptimizationLevel >= 2:
		levels = append(levels, png.BestCompression)
	}

	best := data
	for _, candidate := range candidates {
		for _, level := range levels {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			enc := png.Encoder{CompressionLevel: level}
			if err := enc.Encode(&buf, candidate); err != nil {
				return nil, errors.Wrap(err, "encode png")
			}
			best = smallest(buf.Bytes(), best)
		}
	}
	return best, nil
}

// reductions returns lossless re-layouts of img, most reduced first.
func reductions(img image.Image, o OptipngOptions) []image.Image {
	var out []image.Image

	opaque, gray := scan(img)
	if o.ColorTypeReduction && opaque && gray {
		g := image.NewGray(img.Bounds())
		draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
		out = append(out, g)
	}

	if o.PaletteReduction {
		if hist := exactHistogram(img, 256); hist != nil {
			pal := make(color.Palette, len(hist), 256)
			for i, cc := range hist {
				pal[i] = cc.c
			}
			if !o.BitDepthReduction {
				// A full palette pins the encoder to 8 bits per pixel.
				for len(pal) < 256 {
					pal = append(pal, color.NRGBA{})
				}
			}
			out = append(out, remap(img, pal, false))
		}
	}

	if o.ColorTypeReduction && opaque {
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		out = append(out, rgba)
	}

	return append(out, img)
}

// scan reports whether img is fully opaque and whether every pixel is gray.
func scan(img image.Image) (opaque, gray bool) {
	opaque, gray = true, true
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && (opaque || gray); y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0xff {
				opaque = false
			}
			if c.R != c.G || c.G != c.B {
				gray = false
			}
		}
	}
	return opaque, gray
}

// exactHistogram returns the sorted distinct colors of img, or nil if there
// are more than limit.
func exactHistogram(img image.Image, limit int) []colorCount {
	seen := make(map[color.NRGBA]struct{}, limit)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				c = color.NRGBA{}
			}
			seen[c] = struct{}{}
			if len(seen) > limit {
				return nil
			}
		}
	}
	return histogram(img, 0)
}
