package pipeline

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var (
	filterIDPattern = regexp.MustCompile(`[.\s]`)
	whitespace      = regexp.MustCompile(`\s+`)
)

const lqipTemplate = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:x="http://www.w3.org/1999/xlink" viewBox="0 0 %d %d">` +
	`<filter id="%s"><feGaussianBlur stdDeviation="2"/>` +
	`<feColorMatrix type="matrix" values="1 0 0 0 0 0 1 0 0 0 0 0 1 0 0 0 0 0 2 0"/></filter>` +
	`<image height="100%%" width="100%%" x:href="%s" preserveAspectRatio="xMidYMid slice" filter="url(#%s)"/></svg>`

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FilterID derives the placeholder's SVG filter id from the source filename.
func FilterID(filename string) string {
	return "lqip-" + filterIDPattern.ReplaceAllString(filename, "-")
}

// Placeholder wraps a tiny raster in a blurred SVG sized to the original
// image and returns it as an SVG data URI.
func Placeholder(filename, mimeType string, raster []byte, width, height int) string {
	id := FilterID(filename)
	svg := fmt.Sprintf(lqipTemplate, width, height, id, DataURI(mimeType, raster), id)
	return SVGDataURI(svg)
}

// SVGDataURI encodes SVG markup as a compact, non-base64 data URI: whitespace
// collapses, double quotes become single quotes, and only the characters URLs
// require are percent-escaped, in lower case.
func SVGDataURI(svg string) string {
	svg = strings.TrimPrefix(svg, "\ufeff")
	svg = whitespace.ReplaceAllString(strings.TrimSpace(svg), " ")
	svg = strings.ReplaceAll(svg, `"`, "'")

	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(svg) + len("data:image/svg+xml,"))
	b.WriteString("data:image/svg+xml,")
	for i := 0; i < len(svg); i++ {
		c := svg[i]
		if keepInSVGURI(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func keepInSVGURI(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')', ' ', '=', ':', '/':
		return true
	}
	return false
}
