package validators

import (
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordError is a single password policy violation.
type PasswordError struct {
	Code    string
	Message string
}

func (e *PasswordError) Error() string {
	return e.Message
}

// PasswordRule checks one property of a password. userInputs are values
// the password must not resemble.
type PasswordRule func(password string, userInputs []string) error

type PasswordPolicy struct {
	rules []PasswordRule
}

func NewPasswordPolicy(rules ...PasswordRule) *PasswordPolicy {
	return &PasswordPolicy{rules: append([]PasswordRule(nil), rules...)}
}

// DefaultPasswordPolicy mirrors the usual account rules: a length between 8
// characters and 72 bytes, not only digits, not close to the nick or email,
// and a zxcvbn score of at least 2.
func DefaultPasswordPolicy() *PasswordPolicy {
	return NewPasswordPolicy(
		MinLength(8),
		MaxBytes(72),
		NotNumeric(),
		NotSimilarTo(),
		MinStrength(2),
	)
}

// Validate returns the first violation. Its signature matches
// auth.PasswordCheck.
func (p *PasswordPolicy) Validate(password string, userInputs ...string) error {
	for _, rule := range p.rules {
		if err := rule(password, userInputs); err != nil {
			return err
		}
	}
	return nil
}

func MinLength(n int) PasswordRule {
	return func(password string, _ []string) error {
		if len([]rune(password)) < n {
			return &PasswordError{Code: "min_length", Message: fmt.Sprintf("password must be at least %d characters long", n)}
		}
		return nil
	}
}

// MaxBytes bounds the encoded length, which is what bcrypt limits.
func MaxBytes(n int) PasswordRule {
	return func(password string, _ []string) error {
		if len(password) > n {
			return &PasswordError{Code: "max_length", Message: fmt.Sprintf("password must be at most %d bytes long", n)}
		}
		return nil
	}
}

func NotNumeric() PasswordRule {
	return func(password string, _ []string) error {
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return &PasswordError{Code: "numeric", Message: "password cannot be entirely numeric"}
	}
}

// NotSimilarTo rejects passwords that contain, or are contained in, one of
// the user inputs (the local part of an email counts on its own).
func NotSimilarTo() PasswordRule {
	return func(password string, userInputs []string) error {
		pw := strings.ToLower(password)
		for _, input := range userInputs {
			candidates := []string{strings.ToLower(input)}
			if local, _, ok := strings.Cut(candidates[0], "@"); ok {
				candidates = append(candidates, local)
			}
			for _, c := range candidates {
				if len(c) < 3 {
					continue
				}
				if strings.Contains(pw, c) || strings.Contains(c, pw) {
					return &PasswordError{Code: "similar", Message: "password is too similar to your personal information"}
				}
			}
		}
		return nil
	}
}

func MinStrength(score int) PasswordRule {
	return func(password string, userInputs []string) error {
		if zxcvbn.PasswordStrength(password, userInputs).Score < score {
			return &PasswordError{Code: "weak_password", Message: "password is too weak; choose a more complex value"}
		}
		return nil
	}
}
