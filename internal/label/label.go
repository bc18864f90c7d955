// Package label formats the short labels shown for bibliography entries.
package label

import (
	"regexp"
	"strings"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/reference"
)

// AmpersandEntity replaces the word "and" when ampersand normalization is on.
const AmpersandEntity = "&amp;"

// andWord matches "and" as a whole word. The entity form contains no such word,
// so repeated application is a no-op.
var andWord = regexp.MustCompile(`\band\b`)

// Format returns the display form of a label under opts.
func Format(label string, opts *config.Options) string {
	label = strings.TrimSpace(label)
	if opts == nil || !opts.AmpersandNormalization {
		return label
	}
	return andWord.ReplaceAllString(label, AmpersandEntity)
}

// Synthesize builds an author-year label for records without a literal one:
// "Smith, 2010", "Smith and Jones, 2010" or "Smith et al., 2010".
// Returns "" when there is nothing to build from.
func Synthesize(authors []reference.Author, year string) string {
	var names string
	switch {
	case len(authors) == 0:
	case len(authors) == 1:
		names = authors[0].Surname
	case len(authors) == 2:
		names = authors[0].Surname + " and " + authors[1].Surname
	default:
		names = authors[0].Surname + " et al."
	}

	names = strings.TrimSpace(names)
	year = strings.TrimSpace(year)
	switch {
	case names != "" && year != "":
		return names + ", " + year
	case names != "":
		return names
	default:
		return year
	}
}
