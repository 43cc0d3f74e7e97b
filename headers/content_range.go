package headers

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownSize marks a Content-Range whose complete length is "*".
const UnknownSize int64 = -1

// ContentRange is a validated Content-Range header value. It either
// carries a satisfied range (start and end) or, when HasRange is false,
// describes an unsatisfied range ("bytes */size").
type ContentRange struct {
	start    int64
	end      int64
	size     int64
	hasRange bool
}

// NewContentRange returns the Content-Range "bytes start-end/size". Pass
// UnknownSize when the complete length is not known.
func NewContentRange(start, end, size int64) (*ContentRange, error) {
	switch {
	case start < 0:
		return nil, fmt.Errorf("%w: start %d is less than zero", ErrInvalidContentRange, start)
	case end < 0:
		return nil, fmt.Errorf("%w: end %d is less than zero", ErrInvalidContentRange, end)
	case end < start:
		return nil, fmt.Errorf("%w: end %d is less than start %d", ErrInvalidContentRange, end, start)
	case size != UnknownSize && size <= 0:
		return nil, fmt.Errorf("%w: size %d is not positive", ErrInvalidContentRange, size)
	case size != UnknownSize && end >= size:
		return nil, fmt.Errorf("%w: end %d is not less than size %d", ErrInvalidContentRange, end, size)
	}

	return &ContentRange{start: start, end: end, size: size, hasRange: true}, nil
}

// NewUnsatisfiedContentRange returns the Content-Range "bytes */size" sent
// with 416 Range Not Satisfiable responses. The complete length is required.
func NewUnsatisfiedContentRange(size int64) (*ContentRange, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: size %d is less than zero", ErrInvalidContentRange, size)
	}

	return &ContentRange{size: size}, nil
}

// Range returns the start and end offsets and whether they are present.
func (c *ContentRange) Range() (start, end int64, ok bool) {
	return c.start, c.end, c.hasRange
}

// Size returns the complete length or UnknownSize.
func (c *ContentRange) Size() int64 {
	return c.size
}

// Unit returns the range unit, always "bytes".
func (c *ContentRange) Unit() string {
	return UnitBytes
}

func (c *ContentRange) String() string {
	size := "*"
	if c.size != UnknownSize {
		size = strconv.FormatInt(c.size, 10)
	}

	if !c.hasRange {
		return fmt.Sprintf("%s */%s", UnitBytes, size)
	}

	return fmt.Sprintf("%s %d-%d/%s", UnitBytes, c.start, c.end, size)
}

// ParseContentRange parses a Content-Range value such as "bytes 0-9/100",
// "bytes 0-9/*" or "bytes */100".
func ParseContentRange(input string) (*ContentRange, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, UnitBytes+" ") {
		return nil, ErrMalformed
	}

	rawRange, rawSize, ok := strings.Cut(trimmed[len(UnitBytes)+1:], "/")
	if !ok {
		return nil, ErrMalformed
	}

	rawRange = strings.TrimSpace(rawRange)
	rawSize = strings.TrimSpace(rawSize)

	size := UnknownSize
	if rawSize != "*" {
		n, err := strconv.ParseInt(rawSize, 10, 64)
		if err != nil {
			return nil, ErrMalformed
		}
		size = n
	}

	if rawRange == "*" {
		return NewUnsatisfiedContentRange(size)
	}

	rawStart, rawEnd, ok := strings.Cut(rawRange, "-")
	if !ok {
		return nil, ErrMalformed
	}

	start, err := strconv.ParseInt(strings.TrimSpace(rawStart), 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	end, err := strconv.ParseInt(strings.TrimSpace(rawEnd), 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}

	return NewContentRange(start, end, size)
}
