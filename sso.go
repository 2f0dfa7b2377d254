package authgate

import (
	"log"
	"regexp"
	"strings"
	"sync"
)

var ssoCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{5}$`)

// SSOGate validates a supplied shared-secret code against the configured
// expected code. It is a pure predicate: no side effects beyond a one-time
// operational log when the expected code is missing.
//
// Comparison is case-insensitive. An empty expected code fails every check
// with [ErrSSONotConfigured] rather than waving requests through.
type SSOGate struct {
	expected string
	warn     sync.Once
}

// NewSSOGate builds a gate around the configured expected code.
func NewSSOGate(expected string) *SSOGate {
	return &SSOGate{expected: expected}
}

// Validate checks the supplied code. Format is checked before anything
// else, so a malformed code reports [ErrSSOCodeMalformed] no matter what is
// configured.
func (g *SSOGate) Validate(code string) error {
	if !ssoCodePattern.MatchString(code) {
		return ErrSSOCodeMalformed
	}

	if g.expected == "" {
		g.warn.Do(func() {
			log.Print("authgate: no sso code configured, rejecting all gated requests")
		})
		return ErrSSONotConfigured
	}

	if !strings.EqualFold(code, g.expected) {
		return ErrSSOCodeIncorrect
	}

	return nil
}

// Configured reports whether an expected code is set.
func (g *SSOGate) Configured() bool {
	return g.expected != ""
}
