// Package headers implements immutable value objects for HTTP request and
// response header fields used by the dispatcher.
//
// Every type has a Parse function that turns a raw header value into zero
// or more values and a String method that renders the value back. Parsing
// never fails loudly: malformed input yields no value (or an error for the
// single-valued fields), so callers can treat bad headers as absent.
//
// # Conditional and range requests
//
//   - Range: the "bytes=" ranges of a Range request header (RFC 9110 Section 14.2)
//   - ContentRange: the Content-Range response header (RFC 9110 Section 14.4)
//   - IfModifiedSince: the If-Modified-Since request header (RFC 9110 Section 13.1.3)
//
// # Other fields
//
//   - Cookie: request Cookie pairs, rendered as Set-Cookie lines (RFC 6265)
//   - Forwarded: proxy disclosure elements (RFC 7239)
//   - ContentType: media type with charset or multipart boundary
//   - AcceptEncoding and ContentEncoding: content codings (RFC 9110 Section 8.4)
//   - Authorization: scheme and credentials (RFC 9110 Section 11.6.2)
package headers
