package options

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/codecs"
	"github.com/nvr-ai/go-imageopt/images"
)

var extensionPattern = regexp.MustCompile(`(?i)\.([0-9a-z]+)$`)

// Merger resolves option layers over a table of codec defaults.
type Merger struct {
	Defaults codecs.Table
}

// Merge resolves a Plan against the built-in codec defaults.
func Merge(resourcePath string, file, global Layer) (*Plan, error) {
	return Merger{Defaults: codecs.Builtin}.Merge(resourcePath, file, global)
}

// Merge validates both layers, then resolves every field of the Plan. The
// file layer wins over the global layer, which wins over the defaults.
func (m Merger) Merge(resourcePath string, file, global Layer) (*Plan, error) {
	if err := Validate(FileLayer, file); err != nil {
		return nil, err
	}
	if err := Validate(GlobalLayer, global); err != nil {
		return nil, err
	}

	match := extensionPattern.FindStringSubmatch(resourcePath)
	if match == nil {
		return nil, errors.Errorf("no file extension in %q", resourcePath)
	}

	base := path.Base(strings.ReplaceAll(resourcePath, "\\", "/"))
	p := &Plan{
		Path:      resourcePath,
		Extension: images.Format(strings.ToLower(images.NormalizeExtension(match[1]))),
		Filename:  strings.TrimSuffix(base, match[0]) + "." + images.NormalizeExtension(match[1]),
		EmitFile:  true,
		Name:      DefaultName,
	}

	p.Inline = truthy(file.Lookup("inline"))
	p.Skip = truthy(file.Lookup("skip"))
	p.Placeholder = truthy(file.Lookup("placeholder"))

	if v, ok := first(file, Aliases("format")...); ok {
		p.TargetFormat, _ = images.ParseFormat(fmt.Sprint(v))
	}
	if p.TargetFormat == "" && p.Placeholder {
		p.TargetFormat = images.FormatJPEG
	}
	p.TargetExtension = p.Extension
	if p.TargetFormat != "" {
		p.TargetExtension = p.TargetFormat
	}
	p.MimeType = p.TargetExtension.MimeType()

	if p.Extension == images.FormatSVG && p.TargetFormat != "" {
		key := "format"
		if p.Placeholder {
			key = "placeholder"
		}
		return nil, &ValidationError{Layer: FileLayer, Key: key, Reason: "svg sources cannot be rasterized"}
	}

	p.Quality = DefaultQuality
	if v, ok := first(file, Aliases("quality")...); ok {
		p.Quality, _ = toInt(v)
	} else if v, ok := first(global.Sub(extensionKeys(p.TargetExtension)...), "quality"); ok {
		p.Quality, _ = toInt(v)
	}

	if v, ok := first(file, Aliases("width")...); ok {
		p.Width = positive(v)
	}
	if v, ok := first(file, Aliases("height")...); ok {
		p.Height = positive(v)
	}

	if v, ok := file.Lookup("interpolation"); ok {
		p.Interpolation, _ = images.ParseFilter(fmt.Sprint(v))
	} else {
		p.Interpolation = images.DefaultFilter
	}

	codecOpts, err := m.resolveCodecs(file, global, p.Quality)
	if err != nil {
		return nil, err
	}
	p.Codecs = codecOpts

	if v, ok := global["emitFile"].(bool); ok {
		p.EmitFile = v
	}
	if v, ok := global["outputPath"].(string); ok {
		p.OutputPath = v
	}
	if v, ok := global["name"].(string); ok && v != "" {
		p.Name = v
	}
	if v, ok := global["gzip"].(bool); ok {
		p.Gzip = v
	}
	return p, nil
}

// overlay is one nested map applied onto one codec's options.
type overlay struct {
	layer LayerName
	key   string
	m     Layer
	dst   any
}

// resolveCodecs layers the codec tables: defaults, then the global per-extension
// maps, then the global codec-named maps, then the file's svgo map. Quality
// derived parameters are applied last.
func (m Merger) resolveCodecs(file, global Layer, quality int) (codecs.Options, error) {
	o := m.Defaults.Defaults()

	overlays := []overlay{
		{GlobalLayer, "jpg", global.Sub("jpg", "jpeg"), &o.Mozjpeg},
		{GlobalLayer, "png", global.Sub("png"), &o.Pngquant},
		{GlobalLayer, "png", global.Sub("png"), &o.Optipng},
		{GlobalLayer, "gif", global.Sub("gif"), &o.Gifsicle},
		{GlobalLayer, "webp", global.Sub("webp"), &o.WebP},
		{GlobalLayer, "svgo", global.Sub(Aliases("svgo")...), &o.SVGO},
		{GlobalLayer, "gifsicle", global.Sub("gifsicle"), &o.Gifsicle},
		{GlobalLayer, "mozjpeg", global.Sub("mozjpeg"), &o.Mozjpeg},
		{GlobalLayer, "pngquant", global.Sub("pngquant"), &o.Pngquant},
		{GlobalLayer, "optipng", global.Sub("optipng"), &o.Optipng},
		{FileLayer, "svgo", file.Sub(Aliases("svgo")...), &o.SVGO},
	}
	for _, ov := range overlays {
		if ov.m == nil {
			continue
		}
		if err := decodeInto(ov.m, ov.dst); err != nil {
			return o, &ValidationError{Layer: ov.layer, Key: ov.key, Reason: err.Error()}
		}
	}

	o.Gifsicle.OptimizationLevel = GifsicleLevel(quality)
	o.Mozjpeg.Quality = quality
	o.Optipng.OptimizationLevel = OptipngLevel(quality)
	o.Pngquant.Quality = quality
	o.WebP.Quality = quality
	return o, nil
}

// first returns the first aliased value that is present and not empty.
func first(l Layer, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := l[k]
		if !ok || v == nil || v == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// positive parses a dimension; anything invalid or not above zero is unset.
func positive(v any) int {
	n, ok := toInt(v)
	if !ok || n <= 0 {
		return 0
	}
	return n
}

// extensionKeys lists the global keys that configure a target extension.
func extensionKeys(f images.Format) []string {
	switch f {
	case images.FormatJPEG:
		return []string{"jpg", "jpeg"}
	case images.FormatSVG:
		return []string{"svgo", "svg"}
	default:
		return []string{string(f)}
	}
}
