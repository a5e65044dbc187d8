//go:build vips

package images

import (
	"fmt"

	"github.com/cshum/vipsgen/vips"
)

// DefaultBackend returns the libvips backend when built with the vips tag.
func DefaultBackend() Backend {
	return VipsBackend{}
}

// VipsBackend decodes, resizes and encodes through libvips.
type VipsBackend struct{}

// Open loads data into libvips and returns a handle that encodes into target.
func (VipsBackend) Open(data []byte, target Format) (Handle, error) {
	if !target.Resizable() {
		return nil, fmt.Errorf("cannot encode into %q", target)
	}

	img, err := vips.NewImageFromBuffer(data, &vips.LoadOptions{
		Access: vips.AccessSequential,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	return &vipsHandle{img: img, format: target}, nil
}

type vipsHandle struct {
	img    *vips.Image
	format Format
}

func (h *vipsHandle) Format() Format { return h.format }

func (h *vipsHandle) Size() (int, int) {
	return h.img.Width(), h.img.Height()
}

// Resize uses libvips thumbnailing, which picks its own reduction kernel.
func (h *vipsHandle) Resize(width, height int, _ ResampleFilter) error {
	err := h.img.ThumbnailImage(width, &vips.ThumbnailImageOptions{
		Height: height,
		FailOn: vips.FailOnError,
	})
	if err != nil {
		return fmt.Errorf("failed to resize image: %w", err)
	}
	return nil
}

func (h *vipsHandle) Bytes() ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch h.format {
	case FormatJPEG:
		out, err = h.img.JpegsaveBuffer(&vips.JpegsaveBufferOptions{Q: 100, Interlace: true})
	case FormatPNG:
		out, err = h.img.PngsaveBuffer(&vips.PngsaveBufferOptions{Compression: 0})
	case FormatWebP:
		out, err = h.img.WebpsaveBuffer(&vips.WebpsaveBufferOptions{Q: 100})
	default:
		return nil, fmt.Errorf("unsupported target format: %s", h.format)
	}
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("failed to encode %s image: %v", h.format, err)
	}
	return out, nil
}

func (h *vipsHandle) Close() {
	h.img.Close()
}
