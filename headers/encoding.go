package headers

import (
	"slices"
	"strconv"
	"strings"
)

// Content codings recognised in Accept-Encoding and Content-Encoding.
const (
	EncodingGzip     = "gzip"
	EncodingXGzip    = "x-gzip"
	EncodingCompress = "compress"
	EncodingDeflate  = "deflate"
	EncodingBrotli   = "br"
	EncodingIdentity = "identity"
	EncodingAny      = "*"
)

var contentCodings = []string{
	EncodingGzip,
	EncodingXGzip,
	EncodingCompress,
	EncodingDeflate,
	EncodingBrotli,
}

var acceptCodings = append(slices.Clone(contentCodings), EncodingAny, EncodingIdentity)

// AcceptEncoding is one coding of an Accept-Encoding header with its
// optional weight.
type AcceptEncoding struct {
	Encoding string
	Q        float64
	HasQ     bool
}

// Weight returns the quality value, 1 when none was given.
func (a AcceptEncoding) Weight() float64 {
	if a.HasQ {
		return a.Q
	}

	return 1
}

func (a AcceptEncoding) String() string {
	if !a.HasQ {
		return a.Encoding
	}

	return a.Encoding + ";q=" + strconv.FormatFloat(a.Q, 'f', -1, 64)
}

// ParseAcceptEncoding parses one or more Accept-Encoding header values.
// Unknown codings are dropped and the result is ordered by descending
// weight, keeping header order for equal weights.
func ParseAcceptEncoding(values ...string) []AcceptEncoding {
	var out []AcceptEncoding

	for _, value := range values {
		for item := range strings.SplitSeq(value, ",") {
			coding, rawQ, hasQ := strings.Cut(strings.TrimSpace(item), ";q=")
			coding = strings.TrimSpace(coding)

			if !slices.Contains(acceptCodings, coding) {
				continue
			}

			ae := AcceptEncoding{Encoding: coding}
			if hasQ {
				if q, err := strconv.ParseFloat(strings.TrimSpace(rawQ), 64); err == nil {
					ae.Q = q
					ae.HasQ = true
				}
			}

			out = append(out, ae)
		}
	}

	slices.SortStableFunc(out, func(a, b AcceptEncoding) int {
		switch {
		case a.Weight() > b.Weight():
			return -1
		case a.Weight() < b.Weight():
			return 1
		default:
			return 0
		}
	})

	return out
}

// ContentEncoding is one coding applied to a message body.
type ContentEncoding struct {
	Encoding string
}

func (c ContentEncoding) String() string {
	return c.Encoding
}

// ParseContentEncoding parses a Content-Encoding header. The codings are
// returned in decoding order, the reverse of the order they were applied.
func ParseContentEncoding(input string) []ContentEncoding {
	var out []ContentEncoding

	for item := range strings.SplitSeq(input, ",") {
		coding := strings.TrimSpace(item)
		if slices.Contains(contentCodings, coding) {
			out = append(out, ContentEncoding{Encoding: coding})
		}
	}

	slices.Reverse(out)

	return out
}
