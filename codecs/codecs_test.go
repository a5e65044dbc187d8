package codecs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imageopt/images"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func noise(w, h int, seed int64) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(r.Intn(256))
		img.Pix[i+1] = uint8(r.Intn(256))
		img.Pix[i+2] = uint8(r.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image, level png.CompressionLevel) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func defaults() *Options {
	o := Builtin.Defaults()
	return &o
}

func names(chain []Compressor) []string {
	out := make([]string, len(chain))
	for i, c := range chain {
		out[i] = c.Name()
	}
	return out
}

func TestLookup(t *testing.T) {
	tests := []struct {
		format images.Format
		want   []string
	}{
		{images.FormatGIF, []string{"gifsicle"}},
		{images.FormatJPEG, []string{"mozjpeg"}},
		{images.FormatPNG, []string{"pngquant", "optipng"}},
		{images.FormatSVG, []string{"svgo"}},
		{images.FormatWebP, []string{"webp"}},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			chain, ok := Lookup(tt.format)
			require.True(t, ok)
			assert.Equal(t, tt.want, names(chain))
		})
	}

	_, ok := Lookup(images.Format("bmp"))
	assert.False(t, ok)
}

func TestMozjpeg(t *testing.T) {
	src := encodeJPEG(t, gradient(128, 96))
	opts := defaults()
	opts.Mozjpeg.Quality = 40

	first, err := Mozjpeg{}.Compress(context.Background(), src, opts)
	require.NoError(t, err)
	second, err := Mozjpeg{}.Compress(context.Background(), src, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Less(t, len(first), len(src))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(first))
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Width)
	assert.Equal(t, 96, cfg.Height)
}

func TestPaletteSize(t *testing.T) {
	tests := []struct {
		quality int
		want    int
	}{
		{0, 2},
		{1, 3},
		{50, 128},
		{75, 192},
		{100, 256},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaletteSize(tt.quality), "quality %d", tt.quality)
	}
}

func TestPngquantReducesColors(t *testing.T) {
	src := encodePNG(t, noise(64, 64, 7), png.DefaultCompression)
	opts := defaults()
	opts.Pngquant.Quality = 10
	opts.Pngquant.Nofs = true

	out, err := Pngquant{}.Compress(context.Background(), src, opts)
	require.NoError(t, err)
	require.Less(t, len(out), len(src))

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	paletted, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.LessOrEqual(t, len(paletted.Palette), PaletteSize(10))
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
}

func TestPngquantFullQualityPassthrough(t *testing.T) {
	src := encodePNG(t, gradient(16, 16), png.DefaultCompression)
	opts := defaults()
	opts.Pngquant.Quality = 100

	out, err := Pngquant{}.Compress(context.Background(), src, opts)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestOptipngLossless(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 48, 48))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 7 * 30)
	}
	src := encodePNG(t, gray, png.NoCompression)

	for _, level := range []int{0, 1, 3, 7} {
		opts := defaults()
		opts.Optipng.OptimizationLevel = level

		out, err := Optipng{}.Compress(context.Background(), src, opts)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), len(src), "level %d", level)

		before, err := png.Decode(bytes.NewReader(src))
		require.NoError(t, err)
		after, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		require.Equal(t, before.Bounds(), after.Bounds())

		b := before.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				require.Equal(t,
					color.NRGBAModel.Convert(before.At(x, y)),
					color.NRGBAModel.Convert(after.At(x, y)),
					"pixel %d,%d at level %d", x, y, level)
			}
		}
	}
}

func TestOptipngNeverGrows(t *testing.T) {
	src := encodePNG(t, noise(32, 32, 3), png.BestCompression)
	out, err := Optipng{}.Compress(context.Background(), src, defaults())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(src))
}

func TestSVGOMinifies(t *testing.T) {
	src := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!-- drawn by hand -->
<svg xmlns="http://www.w3.org/2000/svg"   width="24"  height="24" viewBox="0 0 24 24">
    <rect x="0.000000" y="0.000000" width="24.000000" height="24.000000" fill="#ff0000" />
</svg>
`)

	out, err := SVGO{}.Compress(context.Background(), src, defaults())
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.NotContains(t, string(out), "drawn by hand")
	assert.True(t, strings.Contains(string(out), "<svg"))
}

func TestWebP(t *testing.T) {
	src := encodePNG(t, gradient(40, 30), png.DefaultCompression)
	opts := defaults()
	opts.WebP.Quality = 50

	out, err := WebP{}.Compress(context.Background(), src, opts)
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

// twoFrames returns a 100x100 animation whose second frame differs from the
// first only in a 10x10 square.
func twoFrames(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	bounds := image.Rect(0, 0, 100, 100)

	first := image.NewPaletted(bounds, pal)
	second := image.NewPaletted(bounds, pal)
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			second.SetColorIndex(x, y, 1)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{
		Image:    []*image.Paletted{first, second},
		Delay:    []int{10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{ColorModel: pal, Width: 100, Height: 100},
	}))
	return buf.Bytes()
}

func TestGifsicleLevels(t *testing.T) {
	src := twoFrames(t)

	t.Run("level 1 keeps frames whole", func(t *testing.T) {
		opts := defaults()
		opts.Gifsicle.OptimizationLevel = 1

		out, err := Gifsicle{}.Compress(context.Background(), src, opts)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), len(src))

		g, err := gif.DecodeAll(bytes.NewReader(out))
		require.NoError(t, err)
		require.Len(t, g.Image, 2)
		assert.Equal(t, image.Rect(0, 0, 100, 100), g.Image[1].Bounds())
	})

	t.Run("level 3 keeps only changed pixels", func(t *testing.T) {
		opts := defaults()
		opts.Gifsicle.OptimizationLevel = 3

		out, err := Gifsicle{}.Compress(context.Background(), src, opts)
		require.NoError(t, err)
		assert.Less(t, len(out), len(src))

		g, err := gif.DecodeAll(bytes.NewReader(out))
		require.NoError(t, err)
		require.Len(t, g.Image, 2)
		assert.Equal(t, image.Rect(0, 0, 100, 100), g.Image[0].Bounds())
		assert.Equal(t, image.Rect(45, 45, 55, 55), g.Image[1].Bounds())
	})

	t.Run("deterministic", func(t *testing.T) {
		opts := defaults()
		opts.Gifsicle.OptimizationLevel = 3

		a, err := Gifsicle{}.Compress(context.Background(), src, opts)
		require.NoError(t, err)
		b, err := Gifsicle{}.Compress(context.Background(), src, opts)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestGifsicleColors(t *testing.T) {
	pal := make(color.Palette, 0, 64)
	for i := 0; i < 64; i++ {
		pal = append(pal, color.RGBA{R: uint8(i * 4), G: 255 - uint8(i*4), B: 64, A: 255})
	}
	frame := image.NewPaletted(image.Rect(0, 0, 64, 64), pal)
	for i := range frame.Pix {
		frame.Pix[i] = uint8(i % 64)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{Image: []*image.Paletted{frame}, Delay: []int{0}}))

	opts := defaults()
	opts.Gifsicle.Colors = 8

	reduced := reducePalette(frame, 8)
	assert.LessOrEqual(t, len(reduced.Palette), 8)

	_, err := Gifsicle{}.Compress(context.Background(), buf.Bytes(), opts)
	require.NoError(t, err)
}

func TestCompressCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := encodePNG(t, gradient(8, 8), png.DefaultCompression)
	for _, chain := range registry {
		for _, c := range chain {
			_, err := c.Compress(ctx, src, defaults())
			assert.ErrorIs(t, err, context.Canceled, c.Name())
		}
	}
}
