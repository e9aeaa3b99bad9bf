package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"avifgun/internal/classify"
	"avifgun/internal/config"
	"avifgun/internal/processor"
	"avifgun/internal/scheduler"
	"avifgun/internal/sourcemeta"
	"avifgun/internal/tui"
)

var (
	scanRecursive bool
	scanDeep      bool
)

// scanEntry is what scan reports for one entry.
type scanEntry struct {
	RelPath        string
	Classification classify.Classification
	Source         sourcemeta.Metadata
	Err            error
}

var scanCmd = &cobra.Command{
	Use:   "scan <input>",
	Short: "Report which entries would be converted and the metadata they carry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		entries, err := scanEntries(cmd.Context(), args[0], scanRecursive, scanDeep, scheduler.PoolSize(cfg.Threads, 0, cfg.HardCap))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, scanDimStyle.Render("no entries"))
			return nil
		}
		fmt.Fprintln(out, tui.RenderTable("Scan", []string{"File", "Kind", "Size", "Metadata"}, scanRows(entries), 2))

		eligible := 0
		for _, e := range entries {
			if e.Classification.Eligible {
				eligible++
			}
		}
		fmt.Fprintf(out, "%s %s\n",
			scanFileStyle.Render(fmt.Sprintf("%d of %d", eligible, len(entries))),
			scanDimStyle.Render("entries can be converted"),
		)
		return nil
	},
}

// scanEntries classifies every entry of input without converting
// anything. recursive follows the same rules as conversion.
func scanEntries(ctx context.Context, input string, recursive, deep bool, workers int) ([]scanEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := os.Stat(input)
	if err != nil {
		return nil, &processor.FilesystemError{Op: "stat", Path: input, Err: err}
	}
	cfg := config.Config{Recursive: recursive}
	if err := cfg.ValidateInputKind(info.IsDir()); err != nil {
		return nil, err
	}

	items := []scheduler.Item{{Path: input, RelPath: filepath.Base(input)}}
	if info.IsDir() {
		if items, err = processor.Enumerate(input, deep, ""); err != nil {
			return nil, err
		}
	}

	return scheduler.Run(ctx, items, scheduler.Config[scanEntry]{
		PoolSize: workers,
		Step: func(_ context.Context, _ int, item scheduler.Item) scanEntry {
			e := scanEntry{RelPath: item.RelPath, Classification: classify.Classify(item.Path)}
			if e.Classification.Eligible {
				e.Source, e.Err = sourcemeta.Inspect(item.Path, e.Classification.Kind)
			}
			return e
		},
		Cancelled: func(item scheduler.Item) scanEntry {
			return scanEntry{RelPath: item.RelPath, Classification: classify.Ineligible(classify.ReasonCancelled, ctx.Err())}
		},
		Recovered: func(item scheduler.Item, _ int, err error) scanEntry {
			return scanEntry{RelPath: item.RelPath, Classification: classify.Ineligible(classify.ReasonUnreadable, err), Err: err}
		},
	}), nil
}

func scanRows(entries []scanEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		c := e.Classification
		if !c.Eligible {
			rows = append(rows, []string{e.RelPath, scanSkipStyle.Render("skip: " + c.Reason), "", ""})
			continue
		}
		meta := "none"
		switch {
		case e.Err != nil:
			meta = "unreadable"
		case !e.Source.Inspected:
			meta = "not inspected"
		default:
			if cats := e.Source.Categories(); len(cats) > 0 {
				meta = strings.Join(cats, ", ")
			}
		}
		rows = append(rows, []string{e.RelPath, c.Kind.String(), humanize.IBytes(uint64(c.Size)), meta})
	}
	return rows
}

var (
	scanFileStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanDimStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanSkipStyle = lipgloss.NewStyle().Foreground(tui.ColorWarn)
)

func init() {
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "R", false, "scan every entry of the input folder")
	scanCmd.Flags().BoolVar(&scanDeep, "deep", false, "with -R, descend into subfolders")
	rootCmd.AddCommand(scanCmd)
}
