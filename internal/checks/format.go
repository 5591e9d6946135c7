package checks

import (
	"fmt"
	"regexp"
	"strings"
)

// fieldPattern matches one "{field}" placeholder. Field names may carry a
// ":spec" or "!conversion" suffix so they can be rejected explicitly.
var fieldPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// namePattern is a format with "{field}" placeholders compiled into an
// anchored regular expression. Each field matches the shortest non-empty run
// of characters that lets the rest of the pattern match.
type namePattern struct {
	source string
	fields []string
	re     *regexp.Regexp
}

func compilePattern(format string) (*namePattern, error) {
	fields, err := patternFields(format)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range fieldPattern.FindAllStringIndex(format, -1) {
		b.WriteString(regexp.QuoteMeta(format[last:loc[0]]))
		b.WriteString("(.+?)")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(format[last:]))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling format %q: %w", format, err)
	}
	return &namePattern{source: format, fields: fields, re: re}, nil
}

// patternFields returns the field names of format in order of appearance.
func patternFields(format string) ([]string, error) {
	if strings.Count(format, "{") != strings.Count(format, "}") {
		return nil, fmt.Errorf("unbalanced braces in %q", format)
	}
	var fields []string
	for _, m := range fieldPattern.FindAllStringSubmatch(format, -1) {
		name := m[1]
		if name == "" {
			return nil, fmt.Errorf("empty field name in format string")
		}
		if strings.ContainsAny(name, ":!") {
			return nil, fmt.Errorf("format specifiers and conversions are not supported")
		}
		if !isFieldName(name) {
			return nil, fmt.Errorf("invalid field name %q", name)
		}
		fields = append(fields, name)
	}
	return fields, nil
}

func isFieldName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// match parses value and returns the named parts, or false when value does
// not fit the pattern.
func (p *namePattern) match(value string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(value)
	if m == nil {
		return nil, false
	}
	parts := make(map[string]string, len(p.fields))
	for i, name := range p.fields {
		got := m[i+1]
		// a repeated field must match the same text each time
		if prev, ok := parts[name]; ok && prev != got {
			return nil, false
		}
		parts[name] = got
	}
	return parts, true
}
