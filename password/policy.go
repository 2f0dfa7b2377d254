package password

import (
	"errors"
	"fmt"
	"unicode"
)

// Policy is the registration password strength policy.
type Policy struct {
	MinLength      int
	RequireLetters bool
	RequireNumbers bool
}

// Check returns nil when the plaintext satisfies the policy.
func (p Policy) Check(plaintext string) error {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = 8
	}

	if len([]rune(plaintext)) < minLength {
		return fmt.Errorf("must be at least %d characters", minLength)
	}

	if p.RequireLetters && !containsClass(plaintext, unicode.IsLetter) {
		return errors.New("must contain at least one letter")
	}
	if p.RequireNumbers && !containsClass(plaintext, unicode.IsDigit) {
		return errors.New("must contain at least one number")
	}

	return nil
}

func containsClass(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}
