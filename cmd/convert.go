package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"avifgun/internal/config"
	"avifgun/internal/logging"
	"avifgun/internal/processor"
	"avifgun/internal/progress"
	"avifgun/internal/tui"
)

// logProgressPeriod throttles progress lines when no TUI is shown.
const logProgressPeriod = 2 * time.Second

type convertFlags struct {
	configPath     string
	recursive      bool
	deep           bool
	verbose        bool
	liveSimilarity bool
	threads        int
	encoderPath    string
	similarityPath string
	logFile        string
	logFormat      string
	noTUI          bool
}

var flags convertFlags

func registerConvertFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&flags.recursive, "recursive", "R", false, "convert every image in the input folder")
	f.BoolVar(&flags.deep, "deep", false, "with -R, descend into subfolders")
	f.BoolVar(&flags.verbose, "verbose", false, "log per-file encoder details")
	f.BoolVarP(&flags.liveSimilarity, "live-dssim", "d", false, "score each output with dssim")
	f.IntVarP(&flags.threads, "thread", "t", 0, "parallel encodes (default: logical CPUs)")
	f.StringVar(&flags.encoderPath, "avifenc", "", "path to the avifenc binary")
	f.StringVar(&flags.similarityPath, "dssim", "", "path to the dssim binary")
	f.StringVar(&flags.logFile, "log-file", "", "also write logs to this file")
	f.StringVar(&flags.logFormat, "log-format", "", "log format: console or json")
	f.BoolVar(&flags.noTUI, "no-tui", false, "print progress as log lines instead of the live view")
}

// loadConfig reads the config file and lays the flags that were set and
// the positional arguments over it.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg, _, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}

	cfg.InputPath = args[0]
	if len(args) > 1 {
		cfg.OutputDir = args[1]
	}
	cfg.Recursive = flags.recursive

	changed := cmd.Flags().Changed
	if changed("deep") {
		cfg.Deep = flags.deep
	}
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if changed("live-dssim") {
		cfg.LiveSimilarity = flags.liveSimilarity
	}
	if changed("thread") {
		cfg.Threads = flags.threads
	}
	if changed("avifenc") {
		cfg.Encoder.Path = flags.encoderPath
	}
	if changed("dssim") {
		cfg.Encoder.SimilarityPath = flags.similarityPath
	}
	if changed("log-file") {
		cfg.Logging.File = flags.logFile
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.logFormat
	}
	if changed("no-tui") {
		cfg.NoTUI = flags.noTUI
	}
	if cfg.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	useTUI := !cfg.NoTUI && isatty.IsTerminal(os.Stdout.Fd())

	logOpts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}
	logOpts.Console = consoleWriter(useTUI)
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer closeLog()

	deps := processor.Deps{Log: log}
	if useTUI {
		deps.NewDisplay = func(workers int) progress.Display {
			return tui.Start(os.Stdout, workers, cancel)
		}
	} else {
		deps.NewDisplay = func(int) progress.Display {
			return progress.NewLogDisplay(log, logProgressPeriod)
		}
	}

	summary, err := processor.Run(ctx, cfg, deps)
	if summary.Total > 0 || err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(summary, cfg.LiveSimilarity))
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed", summary.Failed, summary.Total)
	}
	return nil
}

// consoleWriter keeps log records off the terminal while the live view
// owns it. The file sink, when set, still gets every record and failures
// are listed in the summary table.
func consoleWriter(useTUI bool) io.Writer {
	if useTUI {
		return io.Discard
	}
	return os.Stderr
}

// isValidation reports whether err is a usage problem rather than a
// runtime failure.
func isValidation(err error) bool {
	var ve *config.ValidationError
	return errors.As(err, &ve)
}
