package codecs

// Table is a versioned set of codec defaults. Tables are values; swap one in
// through the option merger rather than editing Builtin.
type Table struct {
	Version string
	Options Options
}

// Builtin holds the defaults every option layer is merged over.
var Builtin = Table{
	Version: "2018.2",
	Options: Options{
		Gifsicle: GifsicleOptions{
			Interlaced:        false,
			OptimizationLevel: 1,
		},
		Mozjpeg: MozjpegOptions{
			Quality:       70,
			Progressive:   true,
			Arithmetic:    false,
			DCScanOpt:     1,
			DCT:           "int",
			FastCrush:     false,
			Overshoot:     true,
			QuantBaseline: false,
			QuantTable:    2,
			Revert:        false,
			Sample:        []string{"1x1"},
			Targa:         false,
			Trellis:       true,
			TrellisDC:     true,
			Tune:          "hvs-psnr",
		},
		Optipng: OptipngOptions{
			BitDepthReduction:  true,
			ColorTypeReduction: true,
			OptimizationLevel:  3,
			PaletteReduction:   true,
		},
		Pngquant: PngquantOptions{
			Floyd:     0.5,
			Nofs:      false,
			Posterize: 0,
			Quality:   75,
			Speed:     3,
		},
		SVGO: SVGOptions{},
		WebP: WebPOptions{
			AlphaQuality: 100,
			AutoFilter:   false,
			Lossless:     false,
			Method:       4,
			NearLossless: 100,
			Preset:       "default",
			Quality:      70,
			Sharpness:    0,
			SNS:          80,
		},
	},
}

// Defaults returns a private copy of the table's options.
func (t Table) Defaults() Options {
	return t.Options.Clone()
}
