// Package transform wraps the external encoder and similarity tools. Each
// call runs one subprocess, parses its textual report, and reports
// failures as *TransformError so callers can isolate them per item.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultEncoderArgs are the tuning arguments passed to avifenc before the
// input and output paths.
var DefaultEncoderArgs = []string{
	"--jobs", "1",
	"--speed", "6",
	"--min", "0",
	"--max", "63",
	"-a", "end-usage=q",
	"-a", "cq-level=23",
	"-a", "tune=ssim",
}

// Runner executes a command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. The context kills the process.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Options configures an Encoder.
type Options struct {
	EncoderPath    string
	EncoderArgs    []string
	SimilarityPath string
	Runner         Runner
}

// Encoder converts images through avifenc and scores them through dssim.
// It is safe for concurrent use.
type Encoder struct {
	encoderPath    string
	encoderArgs    []string
	similarityPath string
	runner         Runner
}

// New builds an Encoder, filling defaults for empty options.
func New(opts Options) *Encoder {
	e := &Encoder{
		encoderPath:    opts.EncoderPath,
		encoderArgs:    append([]string(nil), opts.EncoderArgs...),
		similarityPath: opts.SimilarityPath,
		runner:         opts.Runner,
	}
	if e.encoderPath == "" {
		e.encoderPath = "avifenc"
	}
	if e.encoderArgs == nil {
		e.encoderArgs = append([]string(nil), DefaultEncoderArgs...)
	}
	if e.similarityPath == "" {
		e.similarityPath = "dssim"
	}
	if e.runner == nil {
		e.runner = ExecRunner{}
	}
	return e
}

// Transform encodes inputPath into outputPath and parses the encoder's
// summary. A partial output file is removed on failure.
func (e *Encoder) Transform(ctx context.Context, inputPath, outputPath string) (Result, error) {
	args := make([]string, 0, len(e.encoderArgs)+2)
	args = append(args, e.encoderArgs...)
	args = append(args, inputPath, outputPath)

	stdout, stderr, err := e.runner.Run(ctx, e.encoderPath, args...)
	if err != nil {
		_ = os.Remove(outputPath)
		return Result{}, &TransformError{
			Op:     "encode",
			Path:   inputPath,
			Reason: ProcessFailure,
			Stderr: tail(string(stderr), 20),
			Err:    err,
		}
	}

	res, err := ParseReport(string(stdout))
	if err != nil {
		_ = os.Remove(outputPath)
		var te *TransformError
		if errors.As(err, &te) {
			te.Op = "encode"
			te.Path = inputPath
			te.Stderr = tail(string(stderr), 20)
			return Result{}, te
		}
		return Result{}, err
	}
	return res, nil
}

// Similarity scores outputPath against inputPath. The scale is defined by
// the metric tool; for dssim 0 means identical.
func (e *Encoder) Similarity(ctx context.Context, inputPath, outputPath string) (float64, error) {
	stdout, stderr, err := e.runner.Run(ctx, e.similarityPath, inputPath, outputPath)
	if err != nil {
		return 0, &TransformError{
			Op:     "similarity",
			Path:   inputPath,
			Reason: ProcessFailure,
			Stderr: tail(string(stderr), 20),
			Err:    err,
		}
	}

	score, err := ParseScore(string(stdout))
	if err != nil {
		var te *TransformError
		if errors.As(err, &te) {
			te.Op = "similarity"
			te.Path = inputPath
			return 0, te
		}
		return 0, err
	}
	return score, nil
}

// ParseScore reads the first whitespace-delimited token of the first
// non-empty line as a non-negative float.
func ParseScore(stdout string) (float64, error) {
	for _, line := range strings.Split(stdout, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		score, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return 0, &TransformError{Op: "parse", Reason: UnparsableReport, Field: "score", Err: err}
		}
		if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
			return 0, &TransformError{Op: "parse", Reason: UnparsableReport, Field: "score", Err: fmt.Errorf("score out of range: %v", score)}
		}
		return score, nil
	}
	return 0, &TransformError{Op: "parse", Reason: MissingField, Field: "score", Err: errMissing}
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
