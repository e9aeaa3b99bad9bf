package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	prog "avifgun/internal/progress"
)

func TestFooterPending(t *testing.T) {
	got := Footer(prog.Snapshot{})
	want := "pending | pending | DSSIM: n/a | 0s elapsed | pending"
	if got != want {
		t.Fatalf("Footer = %q, want %q", got, want)
	}
}

func TestFooterRunning(t *testing.T) {
	snap := prog.Snapshot{
		Completed:        2,
		OriginalBytes:    2048,
		TransformedBytes: 1024,
		Delta:            -50,
		DeltaReady:       true,
		MeanSimilarity:   0.0015,
		SimilarityReady:  true,
		Elapsed:          3 * time.Second,
		Throughput:       0.5,
		ThroughputReady:  true,
	}
	got := Footer(snap)
	for _, part := range []string{"1.0 KiB vs. 2.0 KiB", "-50.00%", "DSSIM: 0.00150000", "3s elapsed", "0.50 img/s"} {
		if !strings.Contains(got, part) {
			t.Fatalf("Footer %q missing %q", got, part)
		}
	}
}

func TestModelAppliesSnapshotsAndQuitsOnFinal(t *testing.T) {
	updates := make(chan prog.Snapshot, 1)
	interrupted := false
	m := NewModel(updates, 2, func() { interrupted = true })

	next, cmd := m.Update(snapshotMsg(prog.Snapshot{
		Overall:   3,
		Total:     4,
		PerWorker: []int{1, 2},
		Current:   []string{"a.jpg", ""},
	}))
	if cmd == nil {
		t.Fatalf("expected listen command after a snapshot")
	}
	view := next.View()
	if !strings.Contains(view, "3/4 images") || !strings.Contains(view, "a.jpg") || !strings.Contains(view, "idle") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !interrupted {
		t.Fatalf("ctrl+c should trigger the interrupt callback")
	}

	next, cmd = next.Update(snapshotMsg(prog.Snapshot{Overall: 4, Total: 4, Final: true}))
	if cmd == nil {
		t.Fatalf("expected quit command on final snapshot")
	}
	if !next.(Model).quitting {
		t.Fatalf("model should be quitting after the final snapshot")
	}
}

func TestWorkerShare(t *testing.T) {
	if got := workerShare(5, 10, 2); got != 1 {
		t.Fatalf("workerShare = %v, want 1", got)
	}
	if got := workerShare(1, 10, 2); got != 0.2 {
		t.Fatalf("workerShare = %v, want 0.2", got)
	}
	if got := workerShare(1, 0, 2); got != 0 {
		t.Fatalf("workerShare = %v, want 0", got)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable("Scan", []string{"File", "Kind"}, [][]string{{"a.jpg", "jpeg"}, {"b.txt"}}, 1)
	for _, part := range []string{"Scan", "File", "a.jpg", "jpeg", "b.txt"} {
		if !strings.Contains(out, part) {
			t.Fatalf("table missing %q:\n%s", part, out)
		}
	}
	if RenderTable("x", nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("", []SummaryRow{{Label: "Completed", Value: "3"}})
	if !strings.Contains(out, "Completed") || !strings.Contains(out, "3") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}
