// Package tui renders run progress in the terminal with bubbletea and
// formats the end-of-run summary.
package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	prog "avifgun/internal/progress"
)

// Display is a progress.Display backed by a bubbletea program. Updates go
// through a small buffer; when the buffer is full the update is dropped,
// since the next tick carries newer numbers anyway.
type Display struct {
	updates chan prog.Snapshot
	done    chan struct{}

	closeOnce sync.Once
}

// Start launches the program on out for workers slots. onInterrupt runs
// when the user presses ctrl+c.
func Start(out io.Writer, workers int, onInterrupt func()) *Display {
	d := &Display{
		updates: make(chan prog.Snapshot, 4),
		done:    make(chan struct{}),
	}

	model := NewModel(d.updates, workers, onInterrupt)
	program := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		defer close(d.done)
		_, _ = program.Run()
	}()
	return d
}

// Update hands snap to the UI without blocking. The final snapshot is
// always delivered unless the UI has already exited.
func (d *Display) Update(snap prog.Snapshot) {
	if snap.Final {
		select {
		case d.updates <- snap:
		case <-d.done:
		}
		return
	}
	select {
	case d.updates <- snap:
	default:
	}
}

// Close stops the program and waits for it to restore the terminal.
func (d *Display) Close() {
	d.closeOnce.Do(func() {
		close(d.updates)
		<-d.done
	})
}
