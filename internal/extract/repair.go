package extract

import (
	"regexp"
	"strings"
)

// Textual repair rules for almost-JSON model output. Each rule is a pure
// string rewrite; they are applied in a fixed order and the result is
// handed back to the normal parse path. The field-name rule only targets
// the two expected keys, so stray prose containing "summary:" outside an
// object stays harmless — the reparse still has to succeed.

var (
	// 'summary': / summary: / "summary": → "summary":
	// Only a field name immediately followed by the colon is rewritten.
	fieldNameRe = regexp.MustCompile(`['"]?(summary|quip)['"]?:`)

	// , } and , ] → } and ]
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

	curlyQuotes = strings.NewReplacer(
		"‘", "'", // ‘
		"’", "'", // ’
		"“", `"`, // “
		"”", `"`, // ”
	)
)

// repair normalizes the malformations this service has actually seen in
// model output: typographic quotes, unquoted or single-quoted field
// names, and trailing commas before a closing brace or bracket.
func repair(s string) string {
	s = curlyQuotes.Replace(s)
	s = fieldNameRe.ReplaceAllString(s, `"${1}":`)
	s = trailingCommaRe.ReplaceAllString(s, `${1}`)
	return s
}
