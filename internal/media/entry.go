package media

import "fmt"

// Entry is a single content item supplied by the upstream playlist reader.
type Entry struct {
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	Year     Year   `json:"year"`
	SourceID string `json:"source_id,omitempty"`
	// Problem is set when the input line could not be decoded. Such entries
	// carry whatever fields were readable and are never looked up.
	Problem string `json:"problem,omitempty"`
}

// Label renders the entry for logs.
func (e Entry) Label() string {
	if e.Year.Known() {
		return fmt.Sprintf("%s (%d)", e.Title, e.Year.Int())
	}
	return e.Title
}
