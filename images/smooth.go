package images

import (
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"
)

// Smooth applies a separable Gaussian blur to soften dithered input before
// lossy encoding. strength is the 1..100 smoothing factor used by JPEG
// encoders; zero or less returns img unchanged.
//
// Arguments:
//   - img: The source image.
//   - strength: Smoothing factor, 1 (lightest) to 100 (strongest).
//
// Returns:
//   - The smoothed image with the same bounds.
func Smooth(img image.Image, strength int) image.Image {
	if strength <= 0 {
		return img
	}
	if strength > 100 {
		strength = 100
	}

	sigma := 0.3 + 1.7*float64(strength)/100
	kernel := GaussianKernel(int(math.Ceil(sigma*3)), sigma)

	bounds := img.Bounds()
	src := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(src, src.Bounds(), img, bounds.Min, draw.Src)

	tmp := image.NewNRGBA(src.Bounds())
	dst := image.NewNRGBA(src.Bounds())
	convolve(src, tmp, kernel, true)
	convolve(tmp, dst, kernel, false)
	return dst
}

// GaussianKernel creates a normalized 1D Gaussian kernel of size 2*radius+1.
func GaussianKernel(radius int, sigma float64) []float64 {
	kernel := make([]float64, 2*radius+1)
	denom := 2 * sigma * sigma

	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-(x * x) / denom)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolve runs one pass of the separable filter, clamping at the edges.
func convolve(src, dst *image.NRGBA, kernel []float64, horizontal bool) {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	radius := len(kernel) / 2

	Parallel(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var acc [4]float64
				for i, weight := range kernel {
					sx, sy := x, y
					if horizontal {
						sx = clampInt(x+i-radius, 0, width-1)
					} else {
						sy = clampInt(y+i-radius, 0, height-1)
					}
					off := src.PixOffset(sx, sy)
					for c := 0; c < 4; c++ {
						acc[c] += float64(src.Pix[off+c]) * weight
					}
				}
				off := dst.PixOffset(x, y)
				for c := 0; c < 4; c++ {
					dst.Pix[off+c] = uint8(math.Min(math.Max(acc[c], 0), 255) + 0.5)
				}
			}
		}
	})
}

// Parallel splits [0, size) across the available CPUs. Partitions are
// disjoint, so results do not depend on scheduling.
func Parallel(size int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if size < workers*2 {
		fn(0, size)
		return
	}

	part := size / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start, end := i*part, (i+1)*part
		if i == workers-1 {
			end = size
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
