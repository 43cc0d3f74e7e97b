package headers

import "errors"

// ErrInvalidContentRange is returned when a Content-Range value violates
// its construction invariants.
var ErrInvalidContentRange = errors.New("headers: invalid content range")

// ErrInvalidContentType is returned when a Content-Type value cannot be
// constructed, e.g. multipart/form-data without a boundary.
var ErrInvalidContentType = errors.New("headers: invalid content type")

// ErrMalformed is returned by single-valued parsers when the raw header
// value is empty or cannot be parsed.
var ErrMalformed = errors.New("headers: malformed header value")
