package router

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches a {name} placeholder in a route template.
var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Pattern is a compiled route template.
type Pattern struct {
	template string
	names    []string
	re       *regexp.Regexp
}

// Compile turns a template such as /posts/{slug}/edit into a Pattern.
// Each placeholder matches one or more characters other than '/', and the
// whole normalized path must match the whole template.
func Compile(template string) (*Pattern, error) {
	tpl := Normalize(template)

	var (
		b     strings.Builder
		names []string
		last  int
	)
	seen := make(map[string]bool)

	b.WriteString("^")
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(tpl, -1) {
		literal := tpl[last:loc[0]]
		if strings.ContainsAny(literal, "{}") {
			return nil, fmt.Errorf("router: malformed placeholder in %q", template)
		}
		b.WriteString(regexp.QuoteMeta(literal))

		name := tpl[loc[2]:loc[3]]
		if seen[name] {
			return nil, fmt.Errorf("router: duplicate placeholder {%s} in %q", name, template)
		}
		seen[name] = true
		names = append(names, name)

		b.WriteString(`([^/]+)`)
		last = loc[1]
	}

	tail := tpl[last:]
	if strings.ContainsAny(tail, "{}") {
		return nil, fmt.Errorf("router: malformed placeholder in %q", template)
	}
	b.WriteString(regexp.QuoteMeta(tail))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("router: compile %q: %w", template, err)
	}

	return &Pattern{template: tpl, names: names, re: re}, nil
}

// MustCompile is like Compile but panics on error. Meant for startup
// registration.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether path matches the pattern and returns the captured
// segments in template order. A miss is a normal result, not an error.
func (p *Pattern) Match(path string) ([]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// Names returns the placeholder names in template order.
func (p *Pattern) Names() []string {
	return append([]string(nil), p.names...)
}

// String returns the normalized template.
func (p *Pattern) String() string {
	return p.template
}

// Normalize returns path with exactly one leading slash and no trailing
// slash. The empty path becomes "/". Interior empty segments are kept, so
// they never satisfy a placeholder. Normalize is idempotent.
func Normalize(path string) string {
	return "/" + strings.Trim(path, "/")
}
