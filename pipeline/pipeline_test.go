package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imageopt/images"
	"github.com/nvr-ai/go-imageopt/options"
	"github.com/nvr-ai/go-imageopt/profiler"
)

func getTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func getJPEGBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, getTestImage(width, height), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func getPNGBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, getTestImage(width, height)))
	return buf.Bytes()
}

func getGIFBytes(t *testing.T) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	frames := []*image.Paletted{
		image.NewPaletted(image.Rect(0, 0, 8, 8), pal),
		image.NewPaletted(image.Rect(0, 0, 8, 8), pal),
	}
	frames[1].SetColorIndex(4, 4, 1)

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{Image: frames, Delay: []int{5, 5}}))
	return buf.Bytes()
}

const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16">
    <!-- icon -->
    <circle cx="8.000" cy="8.000" r="7.500" fill="#000000"/>
</svg>
`

func run(t *testing.T, p *Pipeline, path string, data []byte, rawQuery string) *Result {
	t.Helper()
	query, err := options.ParseQuery(rawQuery)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), &Input{Path: path, Data: data}, query)
	require.NoError(t, err)
	return res
}

func TestRunResizesPhoto(t *testing.T) {
	src := getJPEGBytes(t, 1920, 1080)
	res := run(t, New(nil), "src/photo.jpg", src, "?quality=80&w=1400")

	assert.Equal(t, KindFile, res.Kind)
	assert.Equal(t, "photo.jpg", res.Filename)
	assert.Equal(t, "image/jpeg", res.MimeType)
	assert.Equal(t, images.FormatJPEG, res.Plan.TargetExtension)
	assert.Equal(t, 80, res.Plan.Quality)
	assert.Equal(t, 1400, res.Plan.Width)
	assert.Equal(t, 0, res.Plan.Height)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 1400, cfg.Width)
	assert.Equal(t, 788, cfg.Height)

	require.NotNil(t, res.Report)
	assert.False(t, res.Report.Reformatted())
	assert.NotContains(t, res.Report.String(), "->")
	assert.Equal(t, len(src), res.Report.Before)
	assert.Equal(t, len(res.Data), res.Report.After)
}

func TestRunPlaceholder(t *testing.T) {
	src := getJPEGBytes(t, 192, 108)
	res := run(t, New(nil), "photo.jpg", src, "?placeholder")

	assert.Equal(t, KindDataURI, res.Kind)
	assert.Nil(t, res.Report)
	assert.Equal(t, 192, res.Width)
	assert.Equal(t, 108, res.Height)
	assert.True(t, strings.HasPrefix(res.Text, "data:image/svg+xml,%3csvg "))
	assert.Contains(t, res.Text, "viewBox='0 0 192 108'")
	assert.Contains(t, res.Text, "filter id='lqip-photo-jpg'")
	assert.Contains(t, res.Text, "url(%23lqip-photo-jpg)")

	// The embedded raster is the 32px wide placeholder.
	const marker = "x:href='data:image/jpeg%3bbase64%2c"
	start := strings.Index(res.Text, marker)
	require.GreaterOrEqual(t, start, 0)
	encoded := res.Text[start+len(marker):]
	encoded = encoded[:strings.IndexByte(encoded, '\'')]
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(encoded, "%2b", "+"))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, LQIPWidth, cfg.Width)
	assert.Equal(t, 18, cfg.Height)
}

func TestRunInlineSVG(t *testing.T) {
	res := run(t, New(nil), "icons/icon.svg", []byte(iconSVG), "?inline")

	assert.Equal(t, KindInlineText, res.Kind)
	assert.True(t, strings.HasPrefix(res.Text, "<svg"))
	assert.NotContains(t, res.Text, "icon -->")
	assert.Less(t, len(res.Text), len(iconSVG))
	require.NotNil(t, res.Report)
	assert.Equal(t, len(iconSVG), res.Report.Before)
}

func TestRunSkip(t *testing.T) {
	src := getGIFBytes(t)
	p := New(nil)

	first := run(t, p, "anim.gif", src, "?skip")
	assert.Equal(t, KindFile, first.Kind)
	assert.True(t, first.Skipped)
	assert.Equal(t, src, first.Data)
	require.NotNil(t, first.Report)
	assert.Equal(t, "anim.gif: skipping…", first.Report.String())

	second := run(t, p, "anim.gif", first.Data, "?skip")
	assert.Equal(t, src, second.Data)
}

func TestRunEmitFileFalse(t *testing.T) {
	src := getPNGBytes(t, 20, 20)
	res := run(t, New(options.Layer{"emitFile": false}), "a.png", src, "?w=10")
	assert.True(t, res.Skipped)
	assert.Equal(t, src, res.Data)
}

func TestRunNeverEnlarges(t *testing.T) {
	src := getPNGBytes(t, 100, 50)
	res := run(t, New(nil), "small.png", src, "?w=400&h=400")

	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestRunFitsWithinBoth(t *testing.T) {
	src := getPNGBytes(t, 200, 100)
	res := run(t, New(nil), "wide.png", src, "?w=100&h=100")

	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestRunReformat(t *testing.T) {
	src := getPNGBytes(t, 64, 48)
	res := run(t, New(nil), "img/photo.png", src, "?format=webp&q=60")

	assert.Equal(t, KindFile, res.Kind)
	assert.Equal(t, "photo.webp", res.Filename)
	assert.Equal(t, "image/webp", res.MimeType)
	require.NotNil(t, res.Report)
	assert.True(t, strings.HasPrefix(res.Report.String(), "photo.png -> webp: "))

	meta, err := images.Probe(res.Data)
	require.NoError(t, err)
	assert.Equal(t, images.FormatWebP, meta.Format)
	assert.Equal(t, 64, meta.Width)
}

func TestRunInlineDataURI(t *testing.T) {
	src := getPNGBytes(t, 8, 8)
	res := run(t, New(nil), "dot.png", src, "?inline")

	assert.Equal(t, KindDataURI, res.Kind)
	require.True(t, strings.HasPrefix(res.Text, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(res.Text, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.DecodeConfig(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestRunDeterministic(t *testing.T) {
	src := getJPEGBytes(t, 120, 80)
	p := New(nil)

	a := run(t, p, "photo.jpg", src, "?q=50&w=60")
	b := run(t, p, "photo.jpg", src, "?q=50&w=60")
	assert.Equal(t, a.Data, b.Data)
}

func TestRunErrors(t *testing.T) {
	p := New(nil)

	t.Run("validation", func(t *testing.T) {
		_, err := p.Run(context.Background(), &Input{Path: "a.jpg", Data: []byte("x")}, options.Layer{"quality": "400"})
		var serr *StageError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, StageMerge, serr.Stage)
		assert.Equal(t, "a.jpg", serr.Filename)

		var verr *options.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("undecodable source", func(t *testing.T) {
		_, err := p.Run(context.Background(), &Input{Path: "a.png", Data: []byte("not a png")}, options.Layer{"format": "jpg"})
		var serr *StageError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, StageFormat, serr.Stage)
	})

	t.Run("codec failure", func(t *testing.T) {
		_, err := p.Run(context.Background(), &Input{Path: "a.jpg", Data: []byte("not a jpeg")}, nil)
		var serr *StageError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, StageCompress, serr.Stage)

		var cerr *CodecError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "mozjpeg", cerr.Codec)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Run(ctx, &Input{Path: "a.png", Data: getPNGBytes(t, 4, 4)}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPackageProbeError(t *testing.T) {
	plan, err := options.Merge("a.jpg", options.Layer{"placeholder": true}, nil)
	require.NoError(t, err)

	_, err = Package(&Context{ResourcePath: "a.jpg"}, plan, []byte("garbage"), []byte("raster"))
	var perr *ProbeError
	assert.True(t, errors.As(err, &perr))
}

func TestPackagePriority(t *testing.T) {
	src := getPNGBytes(t, 8, 8)
	plan, err := options.Merge("a.png", options.Layer{"skip": true, "inline": true, "placeholder": true}, nil)
	require.NoError(t, err)

	res, err := Package(&Context{ResourcePath: "a.png"}, plan, src, []byte("optimized"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, src, res.Data)

	plan, err = options.Merge("a.png", options.Layer{"inline": true, "placeholder": true}, nil)
	require.NoError(t, err)
	res, err = Package(&Context{ResourcePath: "a.png"}, plan, src, []byte("optimized"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Text, "data:image/svg+xml,"))
}

func TestRunRecordsTimingsAndLogs(t *testing.T) {
	var logs bytes.Buffer
	tm := profiler.NewTimings()
	p := New(nil,
		WithTimings(tm),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithBackend(images.NativeBackend{}),
	)

	run(t, p, "photo.png", getPNGBytes(t, 16, 16), "")

	var stages []string
	for _, s := range tm.Snapshot() {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{"merge", "format", "resize", "compress", "package"}, stages)
	assert.Contains(t, logs.String(), "file=photo.png")
}

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{"saved", Report{Filename: "photo.jpg", Extension: "jpg", Before: 1000, After: 500}, "photo.jpg: saved 0.49 KB (50% / 0.1s on 3G)"},
		{"lost", Report{Filename: "photo.jpg", Extension: "jpg", Before: 500, After: 1000}, "photo.jpg: lost 0.48 KB (100% / 0s on 3G)"},
		{"same", Report{Filename: "photo.jpg", Extension: "jpg", Before: 10, After: 10}, "photo.jpg: same size"},
		{"reformatted", Report{Filename: "photo.png", Extension: "webp", Before: 1000, After: 500}, "photo.png -> webp: saved 0.49 KB (50% / 0.1s on 3G)"},
		{"skipped", Report{Filename: "anim.gif", Extension: "gif", Before: 10, After: 10, Skipped: true}, "anim.gif: skipping…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.String())
		})
	}

	r := Report{Before: 3_000_000, After: 0}
	assert.Equal(t, 2918.29, r.KB())
	assert.Equal(t, 100.0, r.Percent())
	assert.Equal(t, 2.0, r.Seconds3G())
}

func TestSVGDataURI(t *testing.T) {
	got := SVGDataURI("<svg a=\"1\">\n   <g/></svg>")
	assert.Equal(t, "data:image/svg+xml,%3csvg a='1'%3e %3cg/%3e%3c/svg%3e", got)
	assert.Equal(t, "lqip-my-photo-v2-jpg", FilterID("my photo.v2.jpg"))
	assert.Equal(t, "data:image/png;base64,AQI=", DataURI("image/png", []byte{1, 2}))
}

func TestLoadInput(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/photo.jpg"
	require.NoError(t, os.WriteFile(path, getJPEGBytes(t, 4, 4), 0o644))

	in, query, err := LoadInput(path + "?q=40&inline")
	require.NoError(t, err)
	assert.Equal(t, path, in.Path)
	assert.NotEmpty(t, in.Data)
	assert.Equal(t, options.Layer{"q": "40", "inline": true}, query)

	_, _, err = LoadInput(dir + "/missing.jpg")
	assert.Error(t, err)
}

func TestContextRename(t *testing.T) {
	c := &Context{ResourcePath: "a.b/photo.png"}
	c.Rename(images.FormatWebP)
	assert.Equal(t, "a.b/photo.webp", c.ResourcePath)
	assert.Equal(t, "photo.webp", c.Basename())
}
