package mux

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Matcher
		want bool
	}{
		{name: "any and any", a: Any(), b: Any(), want: true},
		{name: "empty path is any", a: Path(""), b: Any(), want: true},
		{name: "nil regexp is any", a: Regexp(nil), b: Any(), want: true},
		{name: "same path", a: Path("/a"), b: Path("/a"), want: true},
		{name: "different path", a: Path("/a"), b: Path("/b"), want: false},
		{name: "path and any", a: Path("/a"), b: Any(), want: false},
		{name: "regexp by source", a: Regexp(regexp.MustCompile(`^/a`)), b: Regexp(regexp.MustCompile(`^/a`)), want: true},
		{name: "regexp flags are part of source", a: Regexp(regexp.MustCompile(`(?i)^/a`)), b: Regexp(regexp.MustCompile(`^/a`)), want: false},
		{name: "regexp and path", a: Regexp(regexp.MustCompile(`/a`)), b: Path("/a"), want: false},
		{name: "pattern and equivalent pattern", a: MustPattern("/u/{id}"), b: MustPattern("/u/{id}"), want: true},
		{name: "typed pattern and equivalent pattern", a: MustPattern("/h/{d:domain}"), b: MustPattern("/h/{d:domain}"), want: true},
		{name: "typed pattern and regexp of its source", a: MustPattern("/h/{d:domain}"), b: Regexp(MustPattern("/h/{d:domain}").re), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestStackKeepsTypedPatternApart(t *testing.T) {
	typed := MustPattern("/h/{d:domain}")
	bare := Regexp(regexp.MustCompile(typed.String()))

	var s Stack
	require.NoError(t, s.Attach(typed, Func(func(*Context) error { return nil })))
	require.NoError(t, s.Attach(bare, Func(func(*Context) error { return nil })))
	assert.Len(t, s.Entries(), 2)

	long := "/h/" + strings.Repeat("a.", 126) + "bc"
	assert.False(t, typed.Match(long))
	assert.True(t, bare.Match(long))
}

func TestMatcherMatch(t *testing.T) {
	assert.True(t, Any().Match("/anything"))
	assert.True(t, Path("/a").Match("/a"))
	assert.False(t, Path("/a").Match("/a/"))
	assert.True(t, Regexp(regexp.MustCompile(`^/api/`)).Match("/api/users"))
	assert.False(t, Regexp(regexp.MustCompile(`^/api/`)).Match("/web"))
}

func TestMatcherVars(t *testing.T) {
	t.Run("named groups", func(t *testing.T) {
		m := Regexp(regexp.MustCompile(`^/(?P<lang>[a-z]{2})/docs$`))
		assert.Equal(t, map[string]string{"lang": "en"}, m.Vars("/en/docs"))
		assert.Nil(t, m.Vars("/english/docs"))
	})

	t.Run("no named groups", func(t *testing.T) {
		assert.Nil(t, Regexp(regexp.MustCompile(`^/(a|b)$`)).Vars("/a"))
		assert.Nil(t, Path("/a").Vars("/a"))
	})
}

func TestCompileRegexpMatcher(t *testing.T) {
	m, err := CompileRegexp(`^/x`)
	require.NoError(t, err)
	assert.Equal(t, `^/x`, m.String())

	_, err = CompileRegexp(`([`)
	assert.Error(t, err)
}

func TestPatternErrors(t *testing.T) {
	for _, tpl := range []string{"/a/{id", "/a/{}", "/a/{id}/{id}", "/a/{id:[}"} {
		t.Run(tpl, func(t *testing.T) {
			_, err := Pattern(tpl)
			assert.Error(t, err)
		})
	}

	assert.Panics(t, func() { MustPattern("/a/{") })
}

func TestMatcherString(t *testing.T) {
	assert.Equal(t, "*", Any().String())
	assert.Equal(t, "/a", Path("/a").String())
	assert.Equal(t, `^/a/(?P<id>[^/]+)$`, MustPattern("/a/{id}").String())
	assert.True(t, Any().IsAny())
	assert.False(t, Path("/a").IsAny())
}
