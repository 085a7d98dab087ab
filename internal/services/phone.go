package services

import (
	"strings"
	"unicode"
)

// NormMobile reduces an Indian mobile number to its 10 national digits.
// Rules: strip everything but digits; 0091.. / 91.. with 12 digits -> drop the
// country code; a single leading 0 trunk prefix is dropped. Anything that does
// not end up with 10 digits is returned as the bare digits.
func NormMobile(p string) string {
	s := digitsOnly(p)
	switch {
	case len(s) == 14 && strings.HasPrefix(s, "0091"):
		s = s[4:]
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		s = s[2:]
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = s[1:]
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
