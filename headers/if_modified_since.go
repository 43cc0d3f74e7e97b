package headers

import (
	"net/http"
	"strings"
	"time"
)

// IfModifiedSince is a parsed If-Modified-Since request header.
type IfModifiedSince struct {
	Date time.Time
}

// Satisfied reports whether a resource last modified at lastModified is
// unchanged since Date. A zero Date never satisfies the condition.
func (i IfModifiedSince) Satisfied(lastModified time.Time) bool {
	if i.Date.IsZero() {
		return false
	}

	return !i.Date.Before(lastModified)
}

func (i IfModifiedSince) String() string {
	return i.Date.UTC().Format(http.TimeFormat)
}

// ParseIfModifiedSince parses an HTTP-date. Any of the three formats
// accepted by http.ParseTime is allowed.
func ParseIfModifiedSince(input string) (*IfModifiedSince, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrMalformed
	}

	date, err := http.ParseTime(trimmed)
	if err != nil {
		return nil, ErrMalformed
	}

	return &IfModifiedSince{Date: date}, nil
}
