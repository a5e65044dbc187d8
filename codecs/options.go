// Package codecs - Codec option tables and the format-specific compressors
// run by the compress stage.
package codecs

// GifsicleOptions tunes the GIF frame optimizer.
type GifsicleOptions struct {
	// Interlaced is accepted for compatibility; the Go GIF encoder never interlaces.
	Interlaced bool `json:"interlaced" yaml:"interlaced"`
	// OptimizationLevel selects 1 (re-encode), 2 (crop frames) or 3 (also
	// replace unchanged pixels with transparency).
	OptimizationLevel int `json:"optimizationLevel" yaml:"optimizationLevel"`
	// Colors caps the per-frame palette size (2..256). Zero keeps palettes.
	Colors int `json:"colors,omitempty" yaml:"colors,omitempty"`
}

// MozjpegOptions tunes the lossy JPEG re-encoder. Only Quality and Smooth
// change the output of the built-in encoder; the remaining fields are kept so
// configurations written for mozjpeg validate unchanged.
type MozjpegOptions struct {
	Quality       int      `json:"quality" yaml:"quality"`
	Progressive   bool     `json:"progressive" yaml:"progressive"`
	Arithmetic    bool     `json:"arithmetic" yaml:"arithmetic"`
	DCScanOpt     int      `json:"dcScanOpt" yaml:"dcScanOpt"`
	DCT           string   `json:"dct" yaml:"dct"`
	FastCrush     bool     `json:"fastCrush" yaml:"fastCrush"`
	Overshoot     bool     `json:"overshoot" yaml:"overshoot"`
	MaxMemory     int      `json:"maxMemory,omitempty" yaml:"maxMemory,omitempty"`
	QuantBaseline bool     `json:"quantBaseline" yaml:"quantBaseline"`
	QuantTable    int      `json:"quantTable" yaml:"quantTable"`
	Revert        bool     `json:"revert" yaml:"revert"`
	Sample        []string `json:"sample" yaml:"sample"`
	Smooth        int      `json:"smooth,omitempty" yaml:"smooth,omitempty"`
	Targa         bool     `json:"targa" yaml:"targa"`
	Trellis       bool     `json:"trellis" yaml:"trellis"`
	TrellisDC     bool     `json:"trellisDC" yaml:"trellisDC"`
	Tune          string   `json:"tune" yaml:"tune"`
}

// OptipngOptions tunes the lossless PNG structural reducer.
type OptipngOptions struct {
	BitDepthReduction  bool `json:"bitDepthReduction" yaml:"bitDepthReduction"`
	ColorTypeReduction bool `json:"colorTypeReduction" yaml:"colorTypeReduction"`
	// OptimizationLevel 0..7; higher levels try more encodings.
	OptimizationLevel int  `json:"optimizationLevel" yaml:"optimizationLevel"`
	// PaletteReduction is also read from the legacy key "palletteReduction".
	PaletteReduction bool `json:"paletteReduction" yaml:"paletteReduction"`
}

// PngquantOptions tunes the lossy PNG palette quantizer.
type PngquantOptions struct {
	// Floyd is the dithering level; any value above zero enables Floyd-Steinberg.
	Floyd float64 `json:"floyd" yaml:"floyd"`
	// Nofs disables dithering regardless of Floyd.
	Nofs bool `json:"nofs" yaml:"nofs"`
	// Posterize drops this many low bits per channel before quantizing.
	Posterize int `json:"posterize" yaml:"posterize"`
	// Quality 0..100 scales the palette size; 100 skips quantization.
	Quality int `json:"quality" yaml:"quality"`
	// Speed is accepted for compatibility.
	Speed   int  `json:"speed" yaml:"speed"`
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// SVGOptions tunes the SVG minifier.
type SVGOptions struct {
	// Precision is the number of significant digits kept in numbers; 0 keeps all.
	Precision    int  `json:"precision" yaml:"precision"`
	KeepComments bool `json:"keepComments" yaml:"keepComments"`
}

// WebPOptions tunes the WebP encoder. Quality and Lossless drive the encoder;
// the remaining fields are accepted for configuration compatibility.
type WebPOptions struct {
	AlphaQuality int    `json:"alphaQuality" yaml:"alphaQuality"`
	AutoFilter   bool   `json:"autoFilter" yaml:"autoFilter"`
	Filter       int    `json:"filter,omitempty" yaml:"filter,omitempty"`
	Lossless     bool   `json:"lossless" yaml:"lossless"`
	Method       int    `json:"method" yaml:"method"`
	NearLossless int    `json:"nearLossless" yaml:"nearLossless"`
	Preset       string `json:"preset" yaml:"preset"`
	Quality      int    `json:"quality" yaml:"quality"`
	Sharpness    int    `json:"sharpness" yaml:"sharpness"`
	Size         int    `json:"size,omitempty" yaml:"size,omitempty"`
	SNS          int    `json:"sns" yaml:"sns"`
}

// Options groups the per-codec options resolved for one file.
type Options struct {
	Gifsicle GifsicleOptions `json:"gifsicle" yaml:"gifsicle"`
	Mozjpeg  MozjpegOptions  `json:"mozjpeg" yaml:"mozjpeg"`
	Optipng  OptipngOptions  `json:"optipng" yaml:"optipng"`
	Pngquant PngquantOptions `json:"pngquant" yaml:"pngquant"`
	SVGO     SVGOptions      `json:"svgo" yaml:"svgo"`
	WebP     WebPOptions     `json:"webp" yaml:"webp"`
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	o.Mozjpeg.Sample = append([]string(nil), o.Mozjpeg.Sample...)
	return o
}
