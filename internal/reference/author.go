package reference

// Author represents a cited author as found in the record markup.
type Author struct {
	Surname   string `json:"surname"`              // Family name
	GivenName string `json:"given_name,omitempty"` // Given name(s) or initials
}
