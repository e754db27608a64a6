package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports a field value that failed validation. The reply
// text is shown to the user verbatim so the same field can be re-prompted.
type ValidationError struct {
	Field string
	Reply string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s", e.Field)
}

var (
	emailRe      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	emailExactRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe      = regexp.MustCompile(`\+?\d[\d\s\-()]{5,}\d`)
	phoneExactRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateEmail reports whether s is a well-formed local@domain.tld address.
func ValidateEmail(s string) bool {
	return emailExactRe.MatchString(strings.TrimSpace(s))
}

// ValidatePhone reports whether s is a phone number: digits with an
// optional leading +, 7 to 15 digits after stripping separators.
func ValidatePhone(s string) bool {
	return phoneExactRe.MatchString(stripPhoneSeparators(s))
}

// ValidateName reports whether s is a usable name (non-empty after trim).
func ValidateName(s string) bool {
	return strings.TrimSpace(s) != ""
}

func stripPhoneSeparators(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(s))
}

// namePrefixes are lead-in phrases stripped before treating the rest of
// the message as a name.
var namePrefixes = []string{"my name is", "i'm", "i am", "it's", "this is"}

// ExtractName pulls a customer name from a free-text message.
func ExtractName(message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)
	for _, prefix := range namePrefixes {
		if idx := strings.Index(lower, prefix); idx >= 0 {
			rest := trimmed[idx+len(prefix):]
			rest = strings.Trim(rest, " .,!?")
			if ValidateName(rest) {
				return titleCase(rest), nil
			}
		}
	}
	if ValidateName(trimmed) {
		return titleCase(strings.Trim(trimmed, ".,!?")), nil
	}
	return "", &ValidationError{
		Field: "name",
		Reply: "I didn't catch your name. Could you please provide it?",
	}
}

// ExtractEmail pulls a validated email address from a free-text message.
// The returned address is trimmed and lowercased, otherwise unmodified.
func ExtractEmail(message string) (string, error) {
	if m := emailRe.FindString(message); m != "" && ValidateEmail(m) {
		return strings.ToLower(strings.TrimSpace(m)), nil
	}
	return "", &ValidationError{
		Field: "email",
		Reply: "That doesn't look like a valid email address. Could you try again?",
	}
}

// ExtractPhone pulls a validated phone number from a free-text message.
func ExtractPhone(message string) (string, error) {
	if m := phoneRe.FindString(message); m != "" && ValidatePhone(m) {
		return stripPhoneSeparators(m), nil
	}
	return "", &ValidationError{
		Field: "phone",
		Reply: "That doesn't seem to be a valid phone number. Please provide a valid number.",
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
