// Package reference defines the core domain types for extracted bibliography records.
package reference

// Record represents one bibliography entry found in a document.
type Record struct {
	// Span
	RawText string `json:"raw_text"` // Exact markup span, preserved verbatim
	Start   int    `json:"start"`    // Byte offset of the span in its document
	End     int    `json:"end"`      // Byte offset one past the span

	// Identity
	RecordID string `json:"record_id"` // id attribute of the boundary element, or empty

	// Label
	Label            string `json:"label"`              // Literal or synthesized short label
	IsSyntheticLabel bool   `json:"is_synthetic_label"` // Derived from author+year

	// Metadata (all optional)
	Authors []Author `json:"authors,omitempty"`
	Year    string   `json:"year,omitempty"`
	Title   string   `json:"title,omitempty"`

	// Comparison
	BodyText    string `json:"body_text"`   // Tag-stripped, whitespace-normalized lowercase text
	Fingerprint string `json:"fingerprint"` // Signature used for similarity comparison
	SortKey     string `json:"sort_key"`    // Label, or a prefix of BodyText
}

// HasMetadata reports whether any author, year or title was extracted.
func (r Record) HasMetadata() bool {
	return r.FirstSurname() != "" || r.Year != "" || r.Title != ""
}

// FirstSurname returns the surname of the first author, or "".
func (r Record) FirstSurname() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0].Surname
}
