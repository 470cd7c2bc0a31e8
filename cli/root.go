// Package cli implements the diffsentry command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Exit codes. Analysis findings never affect the exit code; only I/O,
// argument, and channel failures do.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitUsageError   = 2
)

var rootCmd = &cobra.Command{
	Use:   "diffsentry",
	Short: "LLM-backed diff review pipeline",
	Long: "Diffsentry segments a unified diff, sends it to an analysis channel in\n" +
		"token-budgeted chunks, and merges the findings into reviewable reports.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print diffsentry version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "diffsentry version %s\n", version)
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		if usageErr, ok := isUsageError(err); ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", usageErr)
			return ExitUsageError
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}

	return ExitSuccess
}

// usageError marks an error caused by bad arguments rather than a failure
// at runtime.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func isUsageError(err error) (error, bool) {
	if u, ok := err.(*usageError); ok {
		return u.err, true
	}
	return nil, false
}

// newLogger builds the CLI logger. Level comes from LOG_LEVEL; logs go to
// stderr so stdout stays clean for command output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// writeFile writes data to path, creating parent directories as needed.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
