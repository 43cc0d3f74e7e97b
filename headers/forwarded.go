package headers

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Forwarded is one element of an RFC 7239 Forwarded header.
type Forwarded struct {
	For    string
	By     string
	Host   string
	Proto  string
	Secret string
}

func (f Forwarded) String() string {
	var b strings.Builder
	b.WriteString("for=")
	b.WriteString(quoteNode(f.For))

	if f.By != "" {
		b.WriteString(";by=")
		b.WriteString(quoteNode(f.By))
	}

	if f.Host != "" {
		b.WriteString(";host=")
		b.WriteString(quoteNode(f.Host))
	}

	if f.Secret != "" {
		b.WriteString(";secret=")
		b.WriteString(f.Secret)
	}

	if f.Proto != "" {
		b.WriteString(";proto=")
		b.WriteString(f.Proto)
	}

	return b.String()
}

// ParseForwarded parses a Forwarded header into its comma-separated
// elements. An element without any recognised directive is dropped; an
// element without "for" gets For set to "unknown".
func ParseForwarded(input string) []Forwarded {
	if input == "" {
		return nil
	}

	var out []Forwarded

	for element := range strings.SplitSeq(input, ",") {
		if f, ok := parseForwardedElement(element); ok {
			out = append(out, f)
		}
	}

	return out
}

func parseForwardedElement(element string) (Forwarded, bool) {
	f := Forwarded{For: "unknown"}
	found := false

	for pair := range strings.SplitSeq(element, ";") {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = unquote(strings.TrimSpace(value))

		if key == "" || value == "" {
			continue
		}

		switch key {
		case "for":
			f.For = value
		case "by":
			f.By = value
		case "host":
			if !httpguts.ValidHostHeader(value) {
				continue
			}
			f.Host = value
		case "proto":
			f.Proto = value
		case "secret":
			f.Secret = value
		default:
			continue
		}

		found = true
	}

	return f, found
}

// quoteNode quotes bracketed IPv6 node identifiers as RFC 7239 requires.
func quoteNode(s string) string {
	if strings.HasPrefix(s, "[") && strings.Contains(s, "]") {
		return `"` + s + `"`
	}

	return s
}
