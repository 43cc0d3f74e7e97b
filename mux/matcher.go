package mux

import (
	"regexp"
	"slices"
)

type matcherKind uint8

const (
	matchAny matcherKind = iota
	matchPath
	matchRegexp
)

// Matcher selects the request paths a stack entry applies to. It is one
// of: any path, an exact path, or a regular expression tested against the
// path.
//
// Matchers compare structurally: two exact paths are equal when the
// strings are equal and two regular expressions are equal when their
// source is equal, regardless of identity. Pattern matchers also compare
// their variable checks, so a Pattern never equals a bare Regexp that
// skips them.
type Matcher struct {
	kind matcherKind
	path string
	re   *regexp.Regexp
	vars []patternVar
}

// Any returns the matcher that accepts every path.
func Any() Matcher {
	return Matcher{kind: matchAny}
}

// Path returns a matcher accepting exactly path. The empty path is
// treated as Any.
func Path(path string) Matcher {
	if path == "" {
		return Any()
	}

	return Matcher{kind: matchPath, path: path}
}

// Regexp returns a matcher accepting the paths re matches. A nil re is
// treated as Any. Named capture groups become Context variables.
func Regexp(re *regexp.Regexp) Matcher {
	if re == nil {
		return Any()
	}

	return Matcher{kind: matchRegexp, re: re}
}

// CompileRegexp compiles expr and returns a Regexp matcher.
func CompileRegexp(expr string) (Matcher, error) {
	re, err := cachedRegexp(expr)
	if err != nil {
		return Matcher{}, err
	}

	return Regexp(re), nil
}

// IsAny reports whether m accepts every path.
func (m Matcher) IsAny() bool {
	return m.kind == matchAny
}

// Equal reports whether m and o are structurally equal.
func (m Matcher) Equal(o Matcher) bool {
	if m.kind != o.kind {
		return false
	}

	switch m.kind {
	case matchPath:
		return m.path == o.path
	case matchRegexp:
		return m.re.String() == o.re.String() && slices.Equal(m.vars, o.vars)
	default:
		return true
	}
}

// Match reports whether path is accepted.
func (m Matcher) Match(path string) bool {
	switch m.kind {
	case matchPath:
		return m.path == path
	case matchRegexp:
		if len(m.vars) == 0 {
			return m.re.MatchString(path)
		}

		sub := m.re.FindStringSubmatch(path)
		if sub == nil {
			return false
		}

		for _, v := range m.vars {
			if !v.check.MatchString(sub[v.index]) {
				return false
			}
		}

		return true
	default:
		return true
	}
}

// Vars returns the named capture groups of a Regexp matcher for path, or
// nil when there are none or the path does not match.
func (m Matcher) Vars(path string) map[string]string {
	if m.kind != matchRegexp {
		return nil
	}

	names := m.re.SubexpNames()
	if len(names) < 2 {
		return nil
	}

	sub := m.re.FindStringSubmatch(path)
	if sub == nil {
		return nil
	}

	var vars map[string]string
	for i, name := range names {
		if name == "" {
			continue
		}
		if vars == nil {
			vars = make(map[string]string, len(names)-1)
		}
		vars[name] = sub[i]
	}

	return vars
}

func (m Matcher) String() string {
	switch m.kind {
	case matchPath:
		return m.path
	case matchRegexp:
		return m.re.String()
	default:
		return "*"
	}
}
