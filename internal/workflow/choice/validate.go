package choice

import (
	"fmt"
	"unicode"
)

var reserved = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "in": {}, "matches": {}, "contains": {},
	"startsWith": {}, "endsWith": {}, "nil": {}, "true": {}, "false": {},
	"let": {}, "if": {}, "else": {},
}

func validateSegment(s string) error {
	if s == "" {
		return fmt.Errorf("empty path segment")
	}
	if _, ok := reserved[s]; ok {
		return fmt.Errorf("segment %q is a reserved word", s)
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return fmt.Errorf("illegal character %q in segment %q", r, s)
	}
	return nil
}
