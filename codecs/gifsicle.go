package codecs

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"

	"github.com/pkg/errors"
)

// Gifsicle optimizes GIF frames. Level 1 re-encodes, level 2 crops frames to
// their visible pixels, level 3 also turns pixels that repeat the previous
// frame into transparency before cropping.
type Gifsicle struct{}

func (Gifsicle) Name() string { return "gifsicle" }

func (Gifsicle) Compress(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode gif")
	}

	o := opts.Gifsicle
	if o.Colors >= 2 && o.Colors < 256 {
		for i, frame := range g.Image {
			g.Image[i] = reducePalette(frame, o.Colors)
		}
	}
	if o.OptimizationLevel >= 3 {
		diffFrames(g)
	}
	if o.OptimizationLevel >= 2 {
		cropFrames(g)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, errors.Wrap(err, "encode gif")
	}
	return smallest(buf.Bytes(), data), nil
}

// keepsCanvas reports whether a frame leaves its pixels on the canvas.
func keepsCanvas(g *gif.GIF, i int) bool {
	if i >= len(g.Disposal) {
		return true
	}
	d := g.Disposal[i]
	return d == 0 || d == gif.DisposalNone
}

// cropFrames trims transparent borders from every frame after the first
// whose disposal leaves the canvas alone. Transparent pixels show the canvas
// beneath, so dropping them changes nothing on screen.
func cropFrames(g *gif.GIF) {
	for i := 1; i < len(g.Image); i++ {
		if !keepsCanvas(g, i) {
			continue
		}
		frame := g.Image[i]
		transparent := transparentIndex(frame.Palette)
		if transparent < 0 {
			continue
		}

		visible := image.Rectangle{}
		b := frame.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if int(frame.ColorIndexAt(x, y)) != transparent {
					visible = visible.Union(image.Rect(x, y, x+1, y+1))
				}
			}
		}
		if visible.Empty() {
			visible = image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Min.Y+1)
		}
		if visible != b {
			g.Image[i] = frame.SubImage(visible).(*image.Paletted)
		}
	}
}

// diffFrames replaces pixels that already show the same color on the canvas
// with the frame's transparent index. It tracks the canvas only while every
// frame keeps it, and stops at the first frame that disposes.
func diffFrames(g *gif.GIF) {
	if len(g.Image) < 2 {
		return
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	for i, frame := range g.Image {
		if !keepsCanvas(g, i) {
			return
		}
		original := frame
		if i > 0 {
			if diffed := diffFrame(frame, canvas); diffed != nil {
				g.Image[i] = diffed
			}
		}
		compose(canvas, original)
	}
}

func diffFrame(frame *image.Paletted, canvas *image.NRGBA) *image.Paletted {
	pal := frame.Palette
	transparent := transparentIndex(pal)
	if transparent < 0 {
		if len(pal) >= 256 {
			return nil
		}
		pal = append(append(color.Palette(nil), pal...), color.NRGBA{})
		transparent = len(pal) - 1
	}

	out := image.NewPaletted(frame.Bounds(), pal)
	copy(out.Pix, frame.Pix)
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := int(frame.ColorIndexAt(x, y))
			if idx == transparent || !image.Pt(x, y).In(canvas.Rect) {
				continue
			}
			want := color.NRGBAModel.Convert(frame.Palette[idx]).(color.NRGBA)
			if want.A == 0xff && canvas.NRGBAAt(x, y) == want {
				out.SetColorIndex(x, y, uint8(transparent))
			}
		}
	}
	return out
}

// compose draws a frame's opaque pixels onto the canvas.
func compose(canvas *image.NRGBA, frame *image.Paletted) {
	b := frame.Bounds().Intersect(canvas.Rect)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(frame.At(x, y)).(color.NRGBA)
			if c.A != 0 {
				canvas.SetNRGBA(x, y, c)
			}
		}
	}
}

// reducePalette requantizes a frame to at most n colors, keeping one slot
// for transparency when the frame uses it.
func reducePalette(frame *image.Paletted, n int) *image.Paletted {
	if len(frame.Palette) <= n {
		return frame
	}

	transparent := transparentIndex(frame.Palette)
	usesTransparency := false
	if transparent >= 0 {
		for _, idx := range frame.Pix {
			if int(idx) == transparent {
				usesTransparency = true
				break
			}
		}
	}

	budget := n
	if usesTransparency {
		budget--
	}
	var opaque []colorCount
	for _, cc := range histogram(frame, 0) {
		if cc.c.A != 0 {
			opaque = append(opaque, cc)
		}
	}
	pal := medianCut(opaque, budget)
	if usesTransparency {
		pal = append(pal, color.NRGBA{})
	}

	out := image.NewPaletted(frame.Bounds(), pal)
	opaquePal := pal
	if usesTransparency {
		opaquePal = pal[:len(pal)-1]
	}
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := int(frame.ColorIndexAt(x, y))
			if usesTransparency && idx == transparent {
				out.SetColorIndex(x, y, uint8(len(pal)-1))
				continue
			}
			out.SetColorIndex(x, y, uint8(opaquePal.Index(frame.Palette[idx])))
		}
	}
	return out
}

func transparentIndex(pal color.Palette) int {
	for i, c := range pal {
		if _, _, _, a := c.RGBA(); a == 0 {
			return i
		}
	}
	return -1
}
