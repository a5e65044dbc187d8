// Package pipeline - The per-file transform: reformat, resize, compress and
// package, run against a resolved options.Plan.
package pipeline

import (
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/images"
	"github.com/nvr-ai/go-imageopt/options"
)

var trailingExtension = regexp.MustCompile(`\.[^./\\]+$`)

// Context is the host's per-file state. The format stage renames
// ResourcePath so emitted files carry the new extension.
type Context struct {
	ResourcePath string
}

// Rename swaps the extension of ResourcePath.
func (c *Context) Rename(ext images.Format) {
	c.ResourcePath = trailingExtension.ReplaceAllString(c.ResourcePath, "."+string(ext))
}

// Basename is the last path segment of ResourcePath.
func (c *Context) Basename() string {
	return path.Base(strings.ReplaceAll(c.ResourcePath, "\\", "/"))
}

// Input is the immutable source of one run.
type Input struct {
	Path string
	Data []byte
}

// LoadInput reads "path?query" from disk and parses its query.
func LoadInput(resource string) (*Input, options.Layer, error) {
	p, rawQuery := options.SplitResource(resource)
	query, err := options.ParseQuery(rawQuery)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "query of %s", p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", p)
	}
	return &Input{Path: p, Data: data}, query, nil
}
