// Package images - Image formats, metadata probing and decode/resize/encode backends.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// Metadata describes an encoded image without decoding its pixels.
type Metadata struct {
	// The format of the image.
	Format Format `json:"format" yaml:"format"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Probe reads the dimensions and format of an encoded raster image.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - Metadata: The probed format and dimensions.
//   - error: An error if the header cannot be parsed.
func Probe(data []byte) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, errors.New("empty image data")
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		webpCfg, webpErr := webp.DecodeConfig(bytes.NewReader(data))
		if webpErr != nil {
			return Metadata{}, errors.Wrap(err, "read image header")
		}
		cfg, name = webpCfg, string(FormatWebP)
	}

	format, _ := ParseFormat(name)
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Metadata{}, fmt.Errorf("invalid dimensions: width=%d, height=%d", cfg.Width, cfg.Height)
	}

	return Metadata{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode decodes any supported raster format, trying the registered standard
// decoders first and WebP last.
func Decode(data []byte) (image.Image, Format, error) {
	r := bytes.NewReader(data)

	img, name, err := image.Decode(r)
	if err == nil {
		format, _ := ParseFormat(name)
		return img, format, nil
	}

	r.Reset(data)
	if img, webpErr := webp.Decode(r); webpErr == nil {
		return img, FormatWebP, nil
	}

	return nil, "", errors.Wrap(err, "decode image")
}
