package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	prog "avifgun/internal/progress"
)

// Model renders the live view of a run: one overall bar, one bar per
// worker slot, and a footer with running totals.
type Model struct {
	updates     <-chan prog.Snapshot
	onInterrupt func()

	snap     prog.Snapshot
	overall  progress.Model
	workers  []progress.Model
	width    int
	quitting bool
}

type doneMsg struct{}

type snapshotMsg prog.Snapshot

// NewModel builds a model for workers slots fed from updates.
func NewModel(updates <-chan prog.Snapshot, workers int, onInterrupt func()) Model {
	bars := make([]progress.Model, workers)
	for i := range bars {
		bars[i] = newBar(progress.WithSolidFill(string(ColorAccentAlt)))
	}
	return Model{
		updates:     updates,
		onInterrupt: onInterrupt,
		overall:     newBar(progress.WithGradient(string(ColorAccent), string(ColorSuccess))),
		workers:     bars,
		snap:        prog.Snapshot{PerWorker: make([]int, workers), Current: make([]string, workers)},
	}
}

func newBar(opt progress.Option) progress.Model {
	bar := progress.New(opt, progress.WithoutPercentage())
	bar.Width = 40
	return bar
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = prog.Snapshot(msg)
		if m.snap.Final {
			m.quitting = true
			return m, tea.Quit
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		width := barWidth(msg.Width)
		m.overall.Width = width
		for i := range m.workers {
			m.workers[i].Width = width
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	s := m.snap
	lines := []string{
		titleStyle.Render("avifgun"),
		fmt.Sprintf("%s %s %s",
			labelStyle.Render(padRight("Overall", 9)),
			m.overall.ViewAs(s.Ratio()),
			labelStyle.Render(fmt.Sprintf("%d/%d images", s.Overall, s.Total)),
		),
	}

	for i, bar := range m.workers {
		count, current := 0, ""
		if i < len(s.PerWorker) {
			count = s.PerWorker[i]
		}
		if i < len(s.Current) {
			current = s.Current[i]
		}
		status := dimStyle.Render("idle")
		if current != "" {
			status = valueStyle.Render(truncate(current, 32))
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			labelStyle.Render(padRight(fmt.Sprintf("Queue %d", i+1), 9)),
			bar.ViewAs(workerShare(count, s.Total, len(m.workers))),
			labelStyle.Render(fmt.Sprintf("%4d", count)),
			status,
		))
	}

	lines = append(lines, footerStyle.Render(Footer(s)))
	if s.Failed > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if m.quitting {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Footer renders the running totals line shared by every display.
func Footer(s prog.Snapshot) string {
	delta := "pending"
	if s.DeltaReady {
		delta = prog.FormatDelta(s.Delta)
	}
	dssim := "n/a"
	if s.SimilarityReady {
		dssim = fmt.Sprintf("%.8f", s.MeanSimilarity)
	}
	return fmt.Sprintf("%s | %s | DSSIM: %s | %s elapsed | %s",
		prog.FooterSizes(s),
		delta,
		dssim,
		s.Elapsed.Round(time.Second),
		prog.FormatThroughput(s),
	)
}

func listenForUpdates(updates <-chan prog.Snapshot) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return snapshotMsg(update)
	}
}

// workerShare compares a slot's count with an even split of the total.
func workerShare(count, total, workers int) float64 {
	if total <= 0 || workers <= 0 {
		return 0
	}
	share := math.Ceil(float64(total) / float64(workers))
	return math.Min(1, float64(count)/share)
}

func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return 40
	}
	width := termWidth - 60
	if width > 60 {
		width = 60
	}
	if width < 10 {
		width = 10
	}
	return width
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorDim)
	footerStyle = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	errorStyle  = lipgloss.NewStyle().Foreground(ColorError)
)
