package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
)

// optionFlagName turns an option key into a flag name: fuzzy_matching -> fuzzy-matching.
func optionFlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// addOptionFlags registers one boolean flag per merge option. Flags only
// override the configuration when given explicitly.
func addOptionFlags(cmd *cobra.Command) {
	for _, key := range config.OptionKeys {
		cmd.Flags().Bool(optionFlagName(key), false, fmt.Sprintf("Override the %s option", key))
	}
}

// applyOptionFlags copies explicitly set option flags into opts.
func applyOptionFlags(cmd *cobra.Command, opts *config.Options) error {
	for _, key := range config.OptionKeys {
		f := cmd.Flags().Lookup(optionFlagName(key))
		if f == nil || !f.Changed {
			continue
		}
		if err := opts.Set(key, f.Value.String()); err != nil {
			return fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	}
	return nil
}

// parseChoices parses IDX=update|ignore pairs keyed by original record index.
func parseChoices(specs []string) (map[int]conflict.Choice, error) {
	choices := make(map[int]conflict.Choice, len(specs))
	for _, spec := range specs {
		idx, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not IDX=update|ignore", conflict.ErrInvalidResolution, spec)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("%w: %q has a non-numeric index", conflict.ErrInvalidResolution, spec)
		}
		c, err := conflict.ParseChoice(strings.ToLower(strings.TrimSpace(value)))
		if err != nil {
			return nil, err
		}
		if _, dup := choices[i]; dup {
			return nil, fmt.Errorf("%w: index %d chosen twice", conflict.ErrInvalidResolution, i)
		}
		choices[i] = c
	}
	return choices, nil
}
