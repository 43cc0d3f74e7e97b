package headers

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// MultipartFormData is the only media type that requires a boundary.
const MultipartFormData = "multipart/form-data"

// ContentType is a media type with an optional charset or, for
// multipart/form-data, a mandatory boundary.
type ContentType struct {
	typ      string
	charset  string
	boundary string
}

// NewContentType returns a content type. The boundary is required for
// multipart/form-data and ignored otherwise; the charset is ignored for
// multipart/form-data.
func NewContentType(typ, charset, boundary string) (*ContentType, error) {
	if !validMediaType(typ) {
		return nil, fmt.Errorf("%w: media type %q", ErrInvalidContentType, typ)
	}

	if typ == MultipartFormData {
		if boundary == "" {
			return nil, fmt.Errorf("%w: boundary is missing", ErrInvalidContentType)
		}

		return &ContentType{typ: typ, boundary: boundary}, nil
	}

	return &ContentType{typ: typ, charset: charset}, nil
}

// Type returns the media type.
func (c *ContentType) Type() string { return c.typ }

// Charset returns the charset parameter, if any.
func (c *ContentType) Charset() string { return c.charset }

// Boundary returns the multipart boundary, if any.
func (c *ContentType) Boundary() string { return c.boundary }

func (c *ContentType) String() string {
	switch {
	case c.boundary != "":
		return c.typ + "; boundary=" + c.boundary
	case c.charset != "":
		return c.typ + "; charset=" + c.charset
	default:
		return c.typ
	}
}

// ParseContentType parses a Content-Type header. Only the first parameter
// is considered: "boundary" for multipart/form-data, "charset" otherwise.
// The media type and charset are lowercased.
func ParseContentType(input string) (*ContentType, error) {
	if input == "" {
		return nil, ErrMalformed
	}

	parts := strings.Split(input, ";")

	typ := strings.ToLower(strings.TrimSpace(parts[0]))
	if typ == "" {
		return nil, ErrMalformed
	}

	var key, value string
	if len(parts) > 1 {
		k, v, _ := strings.Cut(parts[1], "=")
		key = strings.ToLower(strings.TrimSpace(k))
		value = strings.TrimSpace(v)
	}

	if typ == MultipartFormData {
		if key != "boundary" || value == "" {
			return nil, ErrMalformed
		}

		return NewContentType(typ, "", value)
	}

	if key == "charset" {
		return NewContentType(typ, strings.ToLower(unquote(value)), "")
	}

	return NewContentType(typ, "", "")
}

// validMediaType reports whether s is "type/subtype" made of tokens.
func validMediaType(s string) bool {
	major, minor, ok := strings.Cut(s, "/")
	if !ok || major == "" || minor == "" {
		return false
	}

	return isToken(major) && isToken(minor)
}

func isToken(s string) bool {
	for _, r := range s {
		if !httpguts.IsTokenRune(r) {
			return false
		}
	}

	return s != ""
}
