package headers

import (
	"strconv"
	"strings"
)

// UnitBytes is the only range unit supported.
const UnitBytes = "bytes"

// Range is one byte range of a Range request header. A range without a
// start is a suffix range: End then holds the number of trailing bytes.
type Range struct {
	Start    int64
	End      int64
	HasStart bool
	HasEnd   bool
}

// NewRange returns the closed range start-end.
func NewRange(start, end int64) Range {
	return Range{Start: start, End: end, HasStart: true, HasEnd: true}
}

// OpenRange returns the range start- that extends to the end of the
// representation.
func OpenRange(start int64) Range {
	return Range{Start: start, HasStart: true}
}

// SuffixRange returns the range -n selecting the last n bytes.
func SuffixRange(n int64) Range {
	return Range{End: n, HasEnd: true}
}

// Unit returns the range unit, always "bytes".
func (r Range) Unit() string {
	return UnitBytes
}

func (r Range) String() string {
	var b strings.Builder
	b.WriteString(UnitBytes)
	b.WriteByte('=')
	if r.HasStart {
		b.WriteString(strconv.FormatInt(r.Start, 10))
	}
	b.WriteByte('-')
	if r.HasEnd {
		b.WriteString(strconv.FormatInt(r.End, 10))
	}

	return b.String()
}

// ParseRange parses a Range header value such as "bytes=0-99, -500".
// Entries that are not well formed are dropped: a closed range needs
// 0 <= start <= end, an open range needs start >= 0 and a suffix range
// needs a length greater than zero.
func ParseRange(input string) []Range {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, UnitBytes+"=") {
		return nil
	}

	var out []Range

	for spec := range strings.SplitSeq(trimmed[len(UnitBytes)+1:], ",") {
		rawStart, rawEnd, found := strings.Cut(spec, "-")
		if !found || strings.Contains(rawEnd, "-") {
			continue
		}

		rawStart = strings.TrimSpace(rawStart)
		rawEnd = strings.TrimSpace(rawEnd)

		start, startErr := strconv.ParseInt(rawStart, 10, 64)
		end, endErr := strconv.ParseInt(rawEnd, 10, 64)
		hasStart := rawStart != "" && startErr == nil
		hasEnd := rawEnd != "" && endErr == nil

		if (rawStart != "" && !hasStart) || (rawEnd != "" && !hasEnd) {
			continue
		}

		switch {
		case hasStart && hasEnd && start >= 0 && start <= end:
			out = append(out, NewRange(start, end))
		case hasStart && !hasEnd && start >= 0:
			out = append(out, OpenRange(start))
		case !hasStart && hasEnd && end > 0:
			out = append(out, SuffixRange(end))
		}
	}

	return out
}
