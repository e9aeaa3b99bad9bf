package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary renders label/value rows as a two-column table.
func RenderSummary(title string, rows []SummaryRow) string {
	tw := newTable()
	for _, row := range rows {
		tw.AppendRow(table.Row{labelStyle.Render(row.Label), valueStyle.Render(row.Value)})
	}
	return heading(title) + tw.Render()
}

// RenderTable renders rows under headers. Columns listed in rightAligned
// (zero-based) are right aligned.
func RenderTable(title string, headers []string, rows [][]string, rightAligned ...int) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := newTable()
	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		for _, c := range rightAligned {
			if c == i {
				align = text.AlignRight
			}
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return heading(title) + tw.Render()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func heading(title string) string {
	if title == "" {
		return ""
	}
	return headingStyle.Render(title) + "\n"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)
