// Package fingerprint builds comparable signatures for records and scores
// how similar two signatures are.
package fingerprint

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/refmerge/internal/reference"
)

// Fingerprint kinds. The prefixes differ, so a metadata fingerprint never
// scores well against a text fingerprint.
const (
	MetaPrefix = "meta|"
	TextPrefix = "text|"
)

// Truncation lengths, in runes.
const (
	TitlePrefixLen = 50
	BodyPrefixLen  = 150
)

// Of returns the fingerprint of rec: author, year and title prefix when any of
// them was extracted, otherwise a prefix of the normalized body text.
func Of(rec reference.Record) string {
	if rec.HasMetadata() {
		return MetaPrefix +
			Normalize(rec.FirstSurname(), 0) + "|" +
			Normalize(rec.Year, 0) + "|" +
			Normalize(rec.Title, TitlePrefixLen)
	}
	return TextPrefix + Normalize(rec.BodyText, BodyPrefixLen)
}

// Normalize folds s for comparison: diacritics dropped, lowercased,
// punctuation and symbols removed, whitespace collapsed to single spaces.
// The result is cut to max runes when max > 0.
func Normalize(s string, max int) string {
	folded, _, err := transform.String(foldDiacritics(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingSpace := false
	count := 0
	for _, r := range folded {
		if max > 0 && count >= max {
			break
		}
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			continue
		}
		if pendingSpace {
			if max > 0 && count+1 >= max {
				break
			}
			b.WriteByte(' ')
			count++
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
		count++
	}
	return b.String()
}

// foldDiacritics returns a fresh transformer; transformers carry state and
// must not be shared.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
