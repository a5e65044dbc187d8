package images

import (
	"regexp"
	"strings"
)

// Format is a normalized image file extension.
type Format string

const (
	// FormatGIF is the GIF image format.
	FormatGIF Format = "gif"
	// FormatJPEG is the JPEG image format. "jpeg" always normalizes to "jpg".
	FormatJPEG Format = "jpg"
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatSVG is the SVG vector format.
	FormatSVG Format = "svg"
	// FormatWebP is the WebP image format.
	FormatWebP Format = "webp"
)

// mimeTypes is the fixed extension to MIME type lookup table.
var mimeTypes = map[string]string{
	"gif":  "image/gif",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
}

var jpegPattern = regexp.MustCompile(`(?i)jpeg`)

// NormalizeExtension rewrites "jpeg" to "jpg" (case-insensitive) in an extension,
// option key or filename suffix.
func NormalizeExtension(s string) string {
	return jpegPattern.ReplaceAllString(s, "jpg")
}

// ParseFormat normalizes s and reports whether it names a supported format.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(NormalizeExtension(strings.TrimPrefix(s, "."))))
	_, ok := mimeTypes[string(f)]
	return f, ok
}

// MimeType returns the MIME type for an extension, or "" if unknown.
func MimeType(ext string) string {
	return mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// MimeType returns the MIME type of the format.
func (f Format) MimeType() string {
	return MimeType(string(f))
}

// Resizable reports whether the pipeline can decode, resize and re-encode the
// format. GIF and SVG go through their dedicated compressors untouched.
func (f Format) Resizable() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	return string(f)
}
