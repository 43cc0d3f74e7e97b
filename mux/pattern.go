package mux

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// valueCheck validates the text captured for one template variable.
type valueCheck interface {
	MatchString(s string) bool
}

// boundedRegexp also rejects values longer than max bytes.
type boundedRegexp struct {
	*regexp.Regexp
	max int
}

func (b boundedRegexp) MatchString(s string) bool {
	return len(s) <= b.max && b.Regexp.MatchString(s)
}

// patternVar is a named variable of a Pattern matcher.
type patternVar struct {
	name  string
	index int
	check valueCheck
}

// varType is a named shorthand usable as {name:type} in a template.
type varType struct {
	expr  string
	check valueCheck
}

func newVarType(expr string, max int) varType {
	re := regexp.MustCompile("^(?:" + expr + ")$")
	if max > 0 {
		return varType{expr: expr, check: boundedRegexp{Regexp: re, max: max}}
	}

	return varType{expr: expr, check: re}
}

var varTypes = map[string]varType{
	"uuid":     newVarType(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`, 0),
	"int":      newVarType(`[0-9]+`, 0),
	"float":    newVarType(`[0-9]*\.?[0-9]+`, 0),
	"slug":     newVarType(`[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`, 0),
	"alpha":    newVarType(`[a-zA-Z]+`, 0),
	"alphanum": newVarType(`[a-zA-Z0-9]+`, 0),
	"date":     newVarType(`[0-9]{4}-[0-9]{2}-[0-9]{2}`, 0),
	"hex":      newVarType(`[0-9a-fA-F]+`, 0),
	// RFC 1123 host names: 63 byte labels, 253 bytes in total.
	"domain": newVarType(`(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`, 253),
}

// compiled holds every expression compiled by the package, keyed by
// source. Matchers are built at startup, so it stops growing once the
// stack is assembled.
var compiled sync.Map

func cachedRegexp(expr string) (*regexp.Regexp, error) {
	if re, ok := compiled.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	actual, _ := compiled.LoadOrStore(expr, re)

	return actual.(*regexp.Regexp), nil
}

// Pattern returns a Regexp matcher built from a path template. Variables
// are written as {name} or {name:pattern}, where pattern is a regular
// expression or one of the types uuid, int, float, slug, alpha,
// alphanum, date, hex and domain:
//
//	m, err := mux.Pattern("/users/{id:uuid}/posts/{page:int}")
//
// The template must match the whole path. A variable without a pattern
// matches one path segment.
func Pattern(tpl string) (Matcher, error) {
	spans, err := variableSpans(tpl)
	if err != nil {
		return Matcher{}, err
	}

	var (
		expr strings.Builder
		vars []patternVar
		last int
	)

	expr.WriteByte('^')

	for _, span := range spans {
		name, patt, typed := strings.Cut(tpl[span[0]+1:span[1]-1], ":")
		if name == "" {
			return Matcher{}, fmt.Errorf("mux: missing name in %q from %q", tpl[span[0]:span[1]], tpl)
		}

		for _, v := range vars {
			if v.name == name {
				return Matcher{}, fmt.Errorf("mux: duplicated route variable %q", name)
			}
		}

		var check valueCheck
		switch vt, ok := varTypes[patt]; {
		case !typed:
			patt = "[^/]+"
		case ok:
			patt, check = vt.expr, vt.check
		}

		if check == nil {
			re, err := cachedRegexp("^(?:" + patt + ")$")
			if err != nil {
				return Matcher{}, fmt.Errorf("mux: invalid pattern %q in variable %q: %w", patt, name, err)
			}
			check = re
		}

		expr.WriteString(regexp.QuoteMeta(tpl[last:span[0]]))
		fmt.Fprintf(&expr, "(?P<%s>%s)", name, patt)
		last = span[1]

		vars = append(vars, patternVar{name: name, check: check})
	}

	expr.WriteString(regexp.QuoteMeta(tpl[last:]))
	expr.WriteByte('$')

	re, err := cachedRegexp(expr.String())
	if err != nil {
		return Matcher{}, err
	}

	for i := range vars {
		vars[i].index = re.SubexpIndex(vars[i].name)
	}

	return Matcher{kind: matchRegexp, re: re, vars: vars}, nil
}

// MustPattern is like Pattern but panics if the template is invalid.
func MustPattern(tpl string) Matcher {
	m, err := Pattern(tpl)
	if err != nil {
		panic(err)
	}

	return m
}

// variableSpans returns the [start, end) offsets of every outermost
// {...} group of tpl.
func variableSpans(tpl string) ([][2]int, error) {
	var (
		spans [][2]int
		depth int
		start int
	)

	for i := range len(tpl) {
		switch tpl[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("mux: unbalanced braces in %q", tpl)
			}
			if depth == 0 {
				spans = append(spans, [2]int{start, i + 1})
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("mux: unbalanced braces in %q", tpl)
	}

	return spans, nil
}
