package pipeline

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-imageopt/images"
)

// Report is the savings line for one file.
type Report struct {
	Filename  string        `json:"filename"`
	Extension images.Format `json:"extension"`
	Before    int           `json:"before"`
	After     int           `json:"after"`
	Skipped   bool          `json:"skipped,omitempty"`
}

// Delta is Before minus After; negative when the file grew.
func (r Report) Delta() int {
	return r.Before - r.After
}

// KB is the delta in kilobytes as ceil(100*delta/1028)/100.
func (r Report) KB() float64 {
	return math.Ceil(100*float64(r.Delta())/1028) / 100
}

// Percent is the delta relative to Before, rounded up to two decimals.
func (r Report) Percent() float64 {
	if r.Before == 0 {
		return 0
	}
	return math.Ceil(100*(100*float64(r.Delta())/float64(r.Before))) / 100
}

// Seconds3G is the transfer time the delta represents at 1.5 Mb/s.
func (r Report) Seconds3G() float64 {
	return math.Ceil(10*(float64(r.Delta())/1e6)/1.5) / 10
}

// Reformatted reports whether the output extension differs from the source's.
func (r Report) Reformatted() bool {
	return !strings.EqualFold(path.Ext(r.Filename), "."+string(r.Extension))
}

// Label is the filename, with " -> ext" when the extension changed.
func (r Report) Label() string {
	if r.Reformatted() {
		return fmt.Sprintf("%s -> %s", r.Filename, r.Extension)
	}
	return r.Filename
}

// Summary is the report line without the label.
func (r Report) Summary() string {
	switch {
	case r.Skipped:
		return "skipping…"
	case r.Delta() == 0:
		return "same size"
	}

	verb := "saved"
	if r.Delta() < 0 {
		verb = "lost"
	}
	return fmt.Sprintf("%s %s KB (%s%% / %ss on 3G)",
		verb, trim(math.Abs(r.KB())), trim(math.Abs(r.Percent())), trim(math.Abs(r.Seconds3G())))
}

func (r Report) String() string {
	if r.Skipped {
		return r.Filename + ": " + r.Summary()
	}
	return r.Label() + ": " + r.Summary()
}

// trim formats a float in its shortest decimal form.
func trim(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
