package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/engine"
	"github.com/matsen/refmerge/internal/storage"
)

// Truncation lengths for human output.
const (
	LabelMaxLen   = 30
	PreviewMaxLen = 70
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps pipeline errors to exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnresolvedConflict):
		return ExitUnresolvedConflict
	case errors.Is(err, engine.ErrEmptyInput),
		errors.Is(err, conflict.ErrInvalidResolution),
		errors.Is(err, conflict.ErrOutOfRange),
		errors.Is(err, storage.ErrNotFound):
		return ExitDataError
	}
	return ExitError
}

// exitOnError exits with the code matching err, prefixed by context.
func exitOnError(err error, context string) {
	if err != nil {
		exitWithError(exitCodeFor(err), "%s: %v", context, err)
	}
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
