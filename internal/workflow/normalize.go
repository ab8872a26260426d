package workflow

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeID turns a state name into its graph id: "Handle Error" -> "HandleError".
// Event payloads carry raw names, so compile and replay must both go through here.
func NormalizeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			b.WriteString(word)
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}
	return b.String()
}
