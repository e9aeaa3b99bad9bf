package cmd

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"avifgun/internal/processor"
	"avifgun/internal/progress"
	"avifgun/internal/stats"
	"avifgun/internal/transform"
	"avifgun/internal/tui"
)

const notAvailable = "n/a"

func renderRunSummary(s processor.RunSummary, withSimilarity bool) string {
	var b strings.Builder
	b.WriteString(tui.RenderSummary("Run summary", summaryRows(s)))

	if s.Stats.Transformed.Available {
		b.WriteString("\n")
		b.WriteString(tui.RenderTable("Sizes", []string{"", "AVIF", "Original"}, sizeRows(s.Stats), 1, 2))
	}
	if withSimilarity {
		b.WriteString("\n")
		b.WriteString(tui.RenderSummary("DSSIM", similarityRows(s.Stats.Similarity, s.SimilarityErrors)))
	}
	if len(s.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(tui.RenderTable("Failures", []string{"File", "Reason"}, failureRows(s.Failures)))
	}
	return b.String()
}

func summaryRows(s processor.RunSummary) []tui.SummaryRow {
	t := s.Stats.Totals
	rows := []tui.SummaryRow{
		{Label: "Run", Value: s.RunID},
		{Label: "Output folder", Value: s.OutputDir},
		{Label: "Entries", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Converted", Value: fmt.Sprintf("%d", s.Completed)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", s.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)},
	}
	if s.Cancelled > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Not started (interrupted)", Value: fmt.Sprintf("%d", s.Cancelled)})
	}

	delta := notAvailable
	if s.Stats.Delta != nil {
		delta = progress.FormatDelta(*s.Stats.Delta)
	}
	sizes := notAvailable
	if t.Count > 0 {
		sizes = humanize.IBytes(t.SumTransformed) + " vs. " + humanize.IBytes(t.SumOriginal)
	}
	rows = append(rows,
		tui.SummaryRow{Label: "Total size", Value: sizes},
		tui.SummaryRow{Label: "Size delta", Value: delta},
	)
	if s.Completed > 0 {
		rows = append(rows, tui.SummaryRow{
			Label: "Exif kept",
			Value: fmt.Sprintf("%d of %d sources with Exif", s.OutputsWithExif, s.SourcesWithExif),
		})
	}
	rows = append(rows, tui.SummaryRow{Label: "Elapsed", Value: s.Elapsed.Round(time.Millisecond).String()})
	return rows
}

func sizeRows(st stats.Summary) [][]string {
	avif, orig := st.Transformed, st.Original
	return [][]string{
		{"Max", formatBytes(avif, avif.Max), formatBytes(orig, orig.Max)},
		{"Min", formatBytes(avif, avif.Min), formatBytes(orig, orig.Min)},
		{"Mean", formatBytes(avif, avif.Mean), formatBytes(orig, orig.Mean)},
		{"Median", formatBytes(avif, avif.Median), formatBytes(orig, orig.Median)},
		{"Std dev", formatBytes(avif, avif.StdDev), formatBytes(orig, orig.StdDev)},
	}
}

func similarityRows(d stats.Distribution, errs int) []tui.SummaryRow {
	rows := []tui.SummaryRow{
		{Label: "Max", Value: formatScore(d, d.Max)},
		{Label: "Min", Value: formatScore(d, d.Min)},
		{Label: "Mean", Value: formatScore(d, d.Mean)},
		{Label: "Median", Value: formatScore(d, d.Median)},
		{Label: "Std dev", Value: formatScore(d, d.StdDev)},
	}
	if errs > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Not scored", Value: fmt.Sprintf("%d", errs)})
	}
	return rows
}

func failureRows(failures []processor.FailureRecord) [][]string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Path, failureReason(f.Err)})
	}
	return rows
}

// failureReason keeps the table to one line per file.
func failureReason(err error) string {
	if err == nil {
		return "unknown"
	}
	if te, ok := transform.IsTransformError(err); ok {
		reason := te.Reason.String()
		if te.Field != "" {
			reason += " (" + te.Field + ")"
		}
		if te.Err != nil {
			reason += ": " + firstLine(te.Err.Error())
		}
		return reason
	}
	return firstLine(err.Error())
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func formatBytes(d stats.Distribution, v float64) string {
	if !d.Available || math.IsNaN(v) {
		return notAvailable
	}
	return humanize.IBytes(uint64(math.Round(v)))
}

func formatScore(d stats.Distribution, v float64) string {
	if !d.Available || math.IsNaN(v) {
		return notAvailable
	}
	return fmt.Sprintf("%.6f", v)
}
