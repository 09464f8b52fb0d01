// Package razor is the template front end: it extracts generator directives, parses
// Razor templates into spans and generates the initial code tree for a template.
package razor

import (
	"regexp"
	"strings"
)

var directivePattern = regexp.MustCompile(`\b(\w+)\s*:\s*([~\\/\w.,]+)\b`)

// ExtractDirectives reads generator directives from the leading Razor comment of a
// template, e.g. "@* Generator: MvcView GenerateCLSCompliantClassNames: true *@".
// Templates without a leading comment yield an empty map. Keys are case-sensitive;
// a repeated key keeps its last value.
func ExtractDirectives(source string) map[string]string {
	directives := make(map[string]string)

	trimmed := strings.TrimLeft(strings.TrimPrefix(source, "\ufeff"), " \t\r\n")
	if !strings.HasPrefix(trimmed, "@*") {
		return directives
	}
	body := trimmed[2:]
	end := strings.Index(body, "*@")
	if end < 0 {
		return directives
	}

	for _, m := range directivePattern.FindAllStringSubmatch(body[:end], -1) {
		directives[m[1]] = m[2]
	}
	return directives
}
