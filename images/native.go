package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// NativeBackend decodes with the Go image codecs and resizes with nfnt/resize.
type NativeBackend struct{}

// Open decodes data and returns a handle that encodes into target.
func (NativeBackend) Open(data []byte, target Format) (Handle, error) {
	if !target.Resizable() {
		return nil, fmt.Errorf("cannot encode into %q", target)
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &nativeHandle{img: img, format: target}, nil
}

type nativeHandle struct {
	img    image.Image
	format Format
}

func (h *nativeHandle) Format() Format { return h.format }

func (h *nativeHandle) Size() (int, int) {
	b := h.img.Bounds()
	return b.Dx(), b.Dy()
}

func (h *nativeHandle) Resize(width, height int, filter ResampleFilter) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}
	h.img = resize.Resize(uint(width), uint(height), h.img, filter.interpolation())
	return nil
}

func (h *nativeHandle) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch h.format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, h.img, &jpeg.Options{Quality: 100})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.NoCompression}
		err = enc.Encode(&buf, h.img)
	case FormatWebP:
		err = webp.Encode(&buf, h.img, &webp.Options{Quality: 100})
	default:
		return nil, fmt.Errorf("unsupported target format: %s", h.format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", h.format)
	}
	return buf.Bytes(), nil
}

func (h *nativeHandle) Close() {}
