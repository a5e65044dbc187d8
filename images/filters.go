package images

import (
	"fmt"
	"strings"

	"github.com/nfnt/resize"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter
	// BicubicFilter uses bicubic interpolation. This is the default kernel.
	BicubicFilter
	// MitchellNetravaliFilter uses the Mitchell-Netravali cubic filter (balanced).
	MitchellNetravaliFilter
	// Lanczos2Filter uses Lanczos resampling with a=2.
	Lanczos2Filter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
)

// DefaultFilter is the kernel used when no interpolation is requested.
const DefaultFilter = BicubicFilter

// filterNames maps interpolation option values to filters. The names follow
// the kernel vocabulary of common image toolchains ("cubic", "lanczos3", ...).
var filterNames = map[string]ResampleFilter{
	"nearest":  NearestNeighborFilter,
	"linear":   BilinearFilter,
	"bilinear": BilinearFilter,
	"cubic":    BicubicFilter,
	"bicubic":  BicubicFilter,
	"mitchell": MitchellNetravaliFilter,
	"lanczos2": Lanczos2Filter,
	"lanczos3": LanczosFilter,
	"lanczos":  LanczosFilter,
}

// ParseFilter resolves an interpolation name. An empty name yields DefaultFilter.
func ParseFilter(name string) (ResampleFilter, error) {
	if name == "" {
		return DefaultFilter, nil
	}
	f, ok := filterNames[strings.ToLower(name)]
	if !ok {
		return DefaultFilter, fmt.Errorf("unknown interpolation kernel %q", name)
	}
	return f, nil
}

// FilterNames lists the accepted interpolation names.
func FilterNames() []string {
	return []string{"nearest", "linear", "cubic", "mitchell", "lanczos2", "lanczos3"}
}

func (f ResampleFilter) String() string {
	switch f {
	case NearestNeighborFilter:
		return "nearest"
	case BilinearFilter:
		return "linear"
	case BicubicFilter:
		return "cubic"
	case MitchellNetravaliFilter:
		return "mitchell"
	case Lanczos2Filter:
		return "lanczos2"
	case LanczosFilter:
		return "lanczos3"
	default:
		return fmt.Sprintf("filter(%d)", int(f))
	}
}

// interpolation maps the filter onto the resize library's kernel.
func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	switch f {
	case NearestNeighborFilter:
		return resize.NearestNeighbor
	case BilinearFilter:
		return resize.Bilinear
	case MitchellNetravaliFilter:
		return resize.MitchellNetravali
	case Lanczos2Filter:
		return resize.Lanczos2
	case LanczosFilter:
		return resize.Lanczos3
	default:
		return resize.Bicubic
	}
}
