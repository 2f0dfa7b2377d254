package rate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const keySeparator = "|"

// LoginKey derives the throttle key for an email+IP pair: the email is
// lowercased and transliterated to its base letters (diacritics stripped),
// then joined with the client IP. The same pair always yields the same key;
// different emails or different IPs never collide.
func LoginKey(email, ip string) string {
	email = transliterate(strings.ToLower(strings.TrimSpace(email)))
	return email + keySeparator + ip
}

func transliterate(s string) string {
	// The chain is stateful, so build it per call rather than sharing.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(fold, s)
	if err != nil {
		return s
	}
	return out
}
