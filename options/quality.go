package options

const (
	// DefaultQuality applies when neither the query nor the global layer
	// sets one.
	DefaultQuality = 70

	GifsicleLevels = 3
	OptipngLevels  = 7
)

// OptimizationLevel maps a 0..100 quality onto 1..levels, with lower quality
// giving a higher (more aggressive) level:
// clamp(ceil((100-q) / (100/levels)), 1, levels).
func OptimizationLevel(quality, levels int) int {
	if levels < 1 {
		return 1
	}
	quality = min(max(quality, 0), 100)
	level := ((100-quality)*levels + 99) / 100
	return min(max(level, 1), levels)
}

// GifsicleLevel is the gifsicle optimization level for a quality.
func GifsicleLevel(quality int) int {
	return OptimizationLevel(quality, GifsicleLevels)
}

// OptipngLevel is the optipng optimization level for a quality.
func OptipngLevel(quality int) int {
	return OptimizationLevel(quality, OptipngLevels)
}
