package services

import (
	"net/mail"
	"strings"
)

// NormEmail reduces an address to its lowercased addr-spec, dropping any
// display name: "Asha <ASHA@x.in>" becomes "asha@x.in". When s does not parse
// the trimmed, lowercased input is returned with ok false.
func NormEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	a, err := mail.ParseAddress(s)
	if err != nil {
		return strings.ToLower(s), false
	}
	return strings.ToLower(a.Address), true
}
