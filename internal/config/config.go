// Package config handles merge options and global configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options controls how two reference lists are matched and merged.
// An Options value is treated as immutable once handed to the engine.
type Options struct {
	PreserveIDs             bool `yaml:"preserve_ids" json:"preserve_ids"`                         // Keep original top-level ids on updated records
	RenumberInternal        bool `yaml:"renumber_internal" json:"renumber_internal"`               // Rewrite internal cross-reference ids
	IncludeUnmatchedUpdates bool `yaml:"include_unmatched_updates" json:"include_unmatched_updates"` // Unmatched updates become additions
	FuzzyMatching           bool `yaml:"fuzzy_matching" json:"fuzzy_matching"`                     // Content fingerprint matching
	AutoSort                bool `yaml:"auto_sort" json:"auto_sort"`                               // Alphabetic interleave of additions
	AmpersandNormalization  bool `yaml:"ampersand_normalization" json:"ampersand_normalization"`   // "and" -> "&amp;" in labels
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PreserveIDs:             true,
		RenumberInternal:        true,
		IncludeUnmatchedUpdates: true,
		FuzzyMatching:           true,
		AutoSort:                true,
	}
}

// Option keys as they appear in YAML, JSON and `refmerge config set`.
const (
	KeyPreserveIDs             = "preserve_ids"
	KeyRenumberInternal        = "renumber_internal"
	KeyIncludeUnmatchedUpdates = "include_unmatched_updates"
	KeyFuzzyMatching           = "fuzzy_matching"
	KeyAutoSort                = "auto_sort"
	KeyAmpersandNormalization  = "ampersand_normalization"
)

// OptionKeys lists every recognized option key in display order.
var OptionKeys = []string{
	KeyPreserveIDs,
	KeyRenumberInternal,
	KeyIncludeUnmatchedUpdates,
	KeyFuzzyMatching,
	KeyAutoSort,
	KeyAmpersandNormalization,
}

// EnvPrefix is prepended to upper-cased option keys for environment overrides,
// e.g. REFMERGE_FUZZY_MATCHING=false.
const EnvPrefix = "REFMERGE_"

// field returns a pointer to the option named by key.
func (o *Options) field(key string) (*bool, error) {
	switch key {
	case KeyPreserveIDs:
		return &o.PreserveIDs, nil
	case KeyRenumberInternal:
		return &o.RenumberInternal, nil
	case KeyIncludeUnmatchedUpdates:
		return &o.IncludeUnmatchedUpdates, nil
	case KeyFuzzyMatching:
		return &o.FuzzyMatching, nil
	case KeyAutoSort:
		return &o.AutoSort, nil
	case KeyAmpersandNormalization:
		return &o.AmpersandNormalization, nil
	}
	return nil, fmt.Errorf("unknown option: %s (valid: %s)", key, strings.Join(OptionKeys, ", "))
}

// Set assigns an option from its string form ("true", "off", "1", ...).
func (o *Options) Set(key, value string) error {
	ptr, err := o.field(key)
	if err != nil {
		return err
	}
	b, err := ParseBool(value)
	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	*ptr = b
	return nil
}

// Get returns the value of the option named by key.
func (o Options) Get(key string) (bool, error) {
	ptr, err := o.field(key)
	if err != nil {
		return false, err
	}
	return *ptr, nil
}

// ApplyEnv overrides options from REFMERGE_* environment variables.
// Unset variables leave the option unchanged.
func (o *Options) ApplyEnv() error {
	return o.applyEnv(os.LookupEnv)
}

func (o *Options) applyEnv(lookup func(string) (string, bool)) error {
	for _, key := range OptionKeys {
		val, ok := lookup(EnvPrefix + strings.ToUpper(key))
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if err := o.Set(key, val); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

// ParseBool accepts the usual spellings of on/off in addition to strconv.ParseBool.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}
