package codecs

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

// colorCount is one histogram bucket.
type colorCount struct {
	c     color.NRGBA
	count int
}

func (cc colorCount) key() uint32 {
	return uint32(cc.c.R)<<24 | uint32(cc.c.G)<<16 | uint32(cc.c.B)<<8 | uint32(cc.c.A)
}

// histogram counts the distinct colors of img after dropping posterize low
// bits per channel. Fully transparent pixels collapse to one bucket. The
// result is sorted so quantization never depends on map iteration order.
func histogram(img image.Image, posterize int) []colorCount {
	mask := uint8(0xff)
	if posterize > 0 && posterize < 8 {
		mask = 0xff << posterize
	}

	counts := make(map[color.NRGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				c = color.NRGBA{}
			} else {
				c.R, c.G, c.B = c.R&mask, c.G&mask, c.B&mask
			}
			counts[c]++
		}
	}

	hist := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		hist = append(hist, colorCount{c: c, count: n})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].key() < hist[j].key() })
	return hist
}

// medianCut reduces a histogram to at most n representative colors.
func medianCut(hist []colorCount, n int) color.Palette {
	if n <= 0 || len(hist) == 0 {
		return nil
	}
	if len(hist) <= n {
		pal := make(color.Palette, len(hist))
		for i, cc := range hist {
			pal[i] = cc.c
		}
		return pal
	}

	boxes := [][]colorCount{hist}
	for len(boxes) < n {
		// Split the box with the widest channel range; ties keep the first.
		best, bestRange, bestChannel := -1, 0, 0
		for i, box := range boxes {
			if len(box) < 2 {
				continue
			}
			ch, r := widestChannel(box)
			if r > bestRange {
				best, bestRange, bestChannel = i, r, ch
			}
		}
		if best < 0 {
			break
		}

		box := boxes[best]
		sort.SliceStable(box, func(i, j int) bool {
			ci, cj := channel(box[i].c, bestChannel), channel(box[j].c, bestChannel)
			if ci != cj {
				return ci < cj
			}
			return box[i].key() < box[j].key()
		})

		total := 0
		for _, cc := range box {
			total += cc.count
		}
		split, acc := 1, 0
		for i, cc := range box[:len(box)-1] {
			acc += cc.count
			if acc*2 >= total {
				split = i + 1
				break
			}
		}

		boxes = append(boxes, box[split:])
		boxes[best] = box[:split]
	}

	pal := make(color.Palette, len(boxes))
	for i, box := range boxes {
		pal[i] = average(box)
	}
	return pal
}

func widestChannel(box []colorCount) (int, int) {
	lo := [4]int{255, 255, 255, 255}
	hi := [4]int{}
	for _, cc := range box {
		for ch := 0; ch < 4; ch++ {
			v := channel(cc.c, ch)
			lo[ch] = min(lo[ch], v)
			hi[ch] = max(hi[ch], v)
		}
	}
	best, width := 0, -1
	for ch := 0; ch < 4; ch++ {
		if hi[ch]-lo[ch] > width {
			best, width = ch, hi[ch]-lo[ch]
		}
	}
	return best, width
}

func channel(c color.NRGBA, ch int) int {
	switch ch {
	case 0:
		return int(c.R)
	case 1:
		return int(c.G)
	case 2:
		return int(c.B)
	default:
		return int(c.A)
	}
}

func average(box []colorCount) color.NRGBA {
	var sum [4]int
	total := 0
	for _, cc := range box {
		for ch := 0; ch < 4; ch++ {
			sum[ch] += channel(cc.c, ch) * cc.count
		}
		total += cc.count
	}
	if total == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8((sum[0] + total/2) / total),
		G: uint8((sum[1] + total/2) / total),
		B: uint8((sum[2] + total/2) / total),
		A: uint8((sum[3] + total/2) / total),
	}
}

// remap draws img onto a paletted image, optionally with Floyd-Steinberg
// error diffusion.
func remap(img image.Image, pal color.Palette, dither bool) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(b, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, b, img, b.Min)
	} else {
		draw.Draw(dst, b, img, b.Min, draw.Src)
	}
	return dst
}
