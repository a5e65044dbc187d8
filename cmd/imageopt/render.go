package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-imageopt/emit"
	"github.com/nvr-ai/go-imageopt/options"
	"github.com/nvr-ai/go-imageopt/pipeline"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	savedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DB16B"))
	lostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5D5D"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5D5D")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderReport styles a savings line: bold label, green savings, red losses.
func renderReport(r *pipeline.Report) string {
	if r.Skipped {
		return labelStyle.Render(r.Filename) + ": " + faintStyle.Render(r.Summary())
	}

	summary := r.Summary()
	switch {
	case r.Delta() > 0:
		summary = savedStyle.Render(summary)
	case r.Delta() < 0:
		summary = lostStyle.Render(summary)
	}
	return labelStyle.Render(r.Label()) + ": " + summary
}

// renderResult is the line printed for one processed file.
func renderResult(res *pipeline.Result, entry emit.Entry) string {
	var b strings.Builder
	if res.Report != nil {
		b.WriteString(renderReport(res.Report))
	} else {
		b.WriteString(labelStyle.Render(res.Plan.Filename))
		b.WriteString(": ")
		b.WriteString(fmt.Sprintf("placeholder %dx%d", res.Width, res.Height))
	}

	switch {
	case entry.File != "":
		b.WriteString(faintStyle.Render(" → " + entry.File))
	case res.Kind != pipeline.KindFile:
		b.WriteString(faintStyle.Render(fmt.Sprintf(" → inline %s, %s", res.Kind, humanize.Bytes(uint64(len(res.Text))))))
	}
	return b.String()
}

// renderTotals summarizes a build.
func renderTotals(s summary) string {
	parts := []string{fmt.Sprintf("%d files", s.files)}
	if s.before > 0 {
		delta := s.before - s.after
		size := fmt.Sprintf("%s → %s", humanize.Bytes(uint64(s.before)), humanize.Bytes(uint64(s.after)))
		switch {
		case delta > 0:
			size += savedStyle.Render(fmt.Sprintf(" (saved %s)", humanize.Bytes(uint64(delta))))
		case delta < 0:
			size += lostStyle.Render(fmt.Sprintf(" (lost %s)", humanize.Bytes(uint64(-delta))))
		}
		parts = append(parts, size)
	}
	if s.skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.skipped))
	}
	if s.inlined > 0 {
		parts = append(parts, fmt.Sprintf("%d inlined", s.inlined))
	}
	if s.failed > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d failed", s.failed)))
	}
	parts = append(parts, faintStyle.Render("in "+s.elapsed.Round(1e6).String()))
	return labelStyle.Render("done") + ": " + strings.Join(parts, ", ")
}

// renderError names the failing file and stage when the error carries them.
func renderError(err error) string {
	var serr *pipeline.StageError
	if errors.As(err, &serr) {
		msg := fmt.Sprintf("%s failed at %s: %v", serr.Filename, serr.Stage, serr.Err)
		var verr *options.ValidationError
		if errors.As(err, &verr) {
			msg = fmt.Sprintf("%s: %v", serr.Filename, verr)
		}
		return errorStyle.Render("error") + " " + msg
	}
	return errorStyle.Render("error") + " " + err.Error()
}

func renderHeading(s string) string {
	return headingStyle.Render(s)
}
