package images

import "math"

// Handle is a decoded image pending encode into its target format. Handles
// are owned by a single file pipeline and are not safe for concurrent use.
type Handle interface {
	// Format returns the format Bytes encodes into.
	Format() Format
	// Size returns the current pixel dimensions.
	Size() (width, height int)
	// Resize scales the image to exactly width x height.
	Resize(width, height int, filter ResampleFilter) error
	// Bytes encodes the image with pass-through parameters: near-lossless,
	// leaving the lossy work to the format's compressor.
	Bytes() ([]byte, error)
	// Close releases any native resources.
	Close()
}

// Backend opens encoded bytes as a Handle targeting a format.
type Backend interface {
	Open(data []byte, target Format) (Handle, error)
}

// FitWithin computes output dimensions that fit inside maxWidth x maxHeight
// while preserving aspect ratio and never enlarging the source. A zero bound
// is unconstrained; if both are zero the source size is returned.
//
// Arguments:
//   - width, height: The source dimensions.
//   - maxWidth, maxHeight: The requested bounds (0 = unset).
//
// Returns:
//   - The output width and height.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	scaleW, scaleH := math.Inf(1), math.Inf(1)
	if maxWidth > 0 {
		scaleW = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 {
		scaleH = float64(maxHeight) / float64(height)
	}
	if math.Min(scaleW, scaleH) >= 1 {
		return width, height
	}

	if scaleW <= scaleH {
		h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
		return maxWidth, max(h, 1)
	}
	w := int(math.Round(float64(width) * float64(maxHeight) / float64(height)))
	return max(w, 1), maxHeight
}
