// Package main provides the refmerge CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	dbPathFlag  string

	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refmerge",
	Short: "Merge corrected bibliography records into an existing reference list",
	Long: `refmerge reconciles an original bibliography with an updated one.

Records are paired by label or, with fuzzy matching, by a content fingerprint.
Matched records are replaced, new records are interleaved alphabetically and
cross-reference ids are renumbered so the merged list stays consistent.

Analysis state is kept in a local session database so conflicts can be
resolved and the order adjusted across several invocations.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline details to stderr")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Session database path (default: $XDG_CONFIG_HOME/refmerge/sessions.db)")
	rootCmd.Version = Version
}

// setup loads an optional .env file and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	l, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// mustLoadOptions returns the effective options with command flags applied,
// exits on error.
func mustLoadOptions(cmd *cobra.Command) config.Options {
	opts, err := config.EffectiveOptions()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := applyOptionFlags(cmd, &opts); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return opts
}

// mustOpenDatabase opens the session database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase() *storage.DB {
	path := dbPathFlag
	if path == "" {
		path = config.DBPath()
	}
	db, err := storage.OpenDB(config.ExpandTilde(path))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
