package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":               "/",
		"/":              "/",
		"//":             "/",
		"/posts":         "/posts",
		"/posts/":        "/posts",
		"//posts":        "/posts",
		"posts":          "/posts",
		"/posts//a///b/": "/posts//a///b",
		"///posts///":    "/posts",
	}
	for in, want := range cases {
		got := Normalize(in)
		assert.Equal(t, want, got, "Normalize(%q)", in)
		assert.Equal(t, got, Normalize(got), "Normalize must be idempotent for %q", in)
	}
}

func TestCompile_CapturesInTemplateOrder(t *testing.T) {
	templates := []struct {
		template string
		build    func(vals []string) string
	}{
		{"/posts/{slug}", func(v []string) string { return "/posts/" + v[0] }},
		{"/posts/{slug}/edit", func(v []string) string { return "/posts/" + v[0] + "/edit" }},
		{"/a/{x}/b/{y}/c/{z}", func(v []string) string { return "/a/" + v[0] + "/b/" + v[1] + "/c/" + v[2] }},
		{"/files/{name}.{ext}", func(v []string) string { return "/files/" + v[0] + "." + v[1] }},
	}
	values := [][]string{
		{"hello-world", "x", "y"},
		{"post 5", "nieuws-artikel", "ÄÖÜ"},
		{"a.b", "(x)", "[y]"},
		{"%2F", "+", "$^"},
	}

	for _, tc := range templates {
		p, err := Compile(tc.template)
		require.NoError(t, err, tc.template)
		n := len(p.Names())
		for _, vals := range values {
			path := tc.build(vals)
			got, ok := p.Match(path)
			if strings.Contains(tc.template, "{name}.{ext}") && strings.Contains(vals[0], ".") {
				// adjacent placeholders split greedily; only the count is fixed
				require.True(t, ok, path)
				require.Len(t, got, n)
				continue
			}
			require.True(t, ok, "%s should match %s", tc.template, path)
			assert.Equal(t, vals[:n], got)
		}
	}
}

func TestCompile_PlaceholderIsSegmentScoped(t *testing.T) {
	p := MustCompile("/posts/{slug}/edit")

	_, ok := p.Match("/posts/a/b/edit")
	assert.False(t, ok)

	_, ok = p.Match("/posts//edit")
	assert.False(t, ok, "placeholders need at least one character")
}

func TestCompile_NoPartialMatch(t *testing.T) {
	p := MustCompile("/posts/{slug}")

	_, ok := p.Match("/posts/a/edit")
	assert.False(t, ok)
	_, ok = p.Match("/x/posts/a")
	assert.False(t, ok)
	_, ok = p.Match("/posts")
	assert.False(t, ok)
}

func TestCompile_LiteralsAreQuoted(t *testing.T) {
	p := MustCompile("/feed.xml")

	_, ok := p.Match("/feed.xml")
	assert.True(t, ok)
	_, ok = p.Match("/feedaxml")
	assert.False(t, ok)
}

func TestCompile_NoPlaceholders(t *testing.T) {
	p := MustCompile("/")

	params, ok := p.Match("/")
	require.True(t, ok)
	assert.Empty(t, params)
	assert.Equal(t, "/", p.String())
}

func TestCompile_Errors(t *testing.T) {
	for _, tpl := range []string{
		"/posts/{slug",
		"/posts/slug}",
		"/posts/{}",
		"/posts/{a-b}",
		"/x/{id}/y/{id}",
	} {
		_, err := Compile(tpl)
		assert.Error(t, err, tpl)
	}
	assert.Panics(t, func() { MustCompile("/{") })
}

func TestPattern_Names(t *testing.T) {
	p := MustCompile("/login/{provider}/callback")
	assert.Equal(t, []string{"provider"}, p.Names())
	assert.Equal(t, "/login/{provider}/callback", p.String())
}
