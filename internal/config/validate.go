package config

import (
	"fmt"
	"strings"
)

// ValidationError reports a bad flag or setting combination. Nothing has
// been processed when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks settings that do not need the filesystem.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return &ValidationError{Field: "input", Message: "input path is required"}
	}
	if c.Threads < 0 {
		return &ValidationError{Field: "thread", Message: fmt.Sprintf("must be positive, got %d", c.Threads)}
	}
	if c.HardCap < 1 {
		return &ValidationError{Field: "hard_cap", Message: fmt.Sprintf("must be at least 1, got %d", c.HardCap)}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return &ValidationError{Field: "logging.format", Message: fmt.Sprintf("unsupported value %q", c.Logging.Format)}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: fmt.Sprintf("unsupported value %q", c.Logging.Level)}
	}
	return nil
}

// ValidateInputKind checks the -R flag against what the input path is.
func (c *Config) ValidateInputKind(isDir bool) error {
	switch {
	case c.Recursive && !isDir:
		return &ValidationError{Message: "Input path is not a directory. Remove the -R or --recursive option"}
	case !c.Recursive && isDir:
		return &ValidationError{Message: "Input path is a directory. Have you missed the -R or --recursive option?"}
	}
	return nil
}
