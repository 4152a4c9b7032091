package media

import "time"

// Source identifies one playable item. It is immutable once constructed: a
// new Source is built whenever the active item changes, the surface never
// mutates one in place.
type Source struct {
	ID            string
	FileURLs      []string // candidate playable files, best first
	PosterURL     string
	StartPosition time.Duration
}

// Playable returns true if the source has at least one candidate file.
func (s Source) Playable() bool {
	return len(s.FileURLs) > 0
}

// PrimaryURL returns the first candidate file, or "" if none.
func (s Source) PrimaryURL() string {
	if len(s.FileURLs) == 0 {
		return ""
	}
	return s.FileURLs[0]
}
