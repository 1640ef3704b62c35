// Package payment validates and normalizes payment-instrument input.
//
// Every function is pure and cheap enough to run on each keystroke.
// Validators return nil when the input is acceptable, otherwise one of the
// reason errors below, so callers can branch with errors.Is.
package payment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrRequired       = errors.New("required")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrInvalidLength  = errors.New("invalid length")
	ErrFailedChecksum = errors.New("failed checksum")
	ErrExpired        = errors.New("expired")
)

const (
	MinCardDigits  = 13
	MaxCardDigits  = 19
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	phoneNoise    = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")
)

// ValidateCardNumber checks presence, digits-only, length and the Luhn checksum.
func ValidateCardNumber(raw string) error {
	digits := stripSpaces(raw)

	if digits == "" {
		return ErrRequired
	}

	if !allDigits(digits) {
		return ErrInvalidFormat
	}

	if len(digits) < MinCardDigits || len(digits) > MaxCardDigits {
		return ErrInvalidLength
	}

	if !Luhn(digits) {
		return ErrFailedChecksum
	}

	return nil
}

// ValidateExpiry checks an MM/YY expiry against now.
//
// The year is compared as two digits against now.Year()%100, so a card
// expiring in "01/05" is treated as expired in 2099 and valid in 2104.
// Centuries are not disambiguated.
func ValidateExpiry(raw string, now time.Time) error {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return ErrRequired
	}

	m := expiryPattern.FindStringSubmatch(raw)
	if m == nil {
		return ErrInvalidFormat
	}

	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())

	if year < currentYear || (year == currentYear && month < currentMonth) {
		return ErrExpired
	}

	return nil
}

// ValidateCVV accepts 3 or 4 digits.
func ValidateCVV(raw string) error {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return ErrRequired
	}

	if !allDigits(raw) {
		return ErrInvalidFormat
	}

	if len(raw) < 3 || len(raw) > 4 {
		return ErrInvalidLength
	}

	return nil
}

// ValidatePhone strips spaces, dashes, plus signs and parentheses, then
// requires 10 to 15 digits.
func ValidatePhone(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrRequired
	}

	digits := phoneNoise.Replace(raw)

	if !allDigits(digits) {
		return ErrInvalidFormat
	}

	if len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return ErrInvalidLength
	}

	return nil
}

// ValidateRequired rejects blank text.
func ValidateRequired(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrRequired
	}

	return nil
}

// Luhn reports whether a string of ASCII digits passes the Luhn checksum.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	double := false

	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}

		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}

		sum += d
		double = !double
	}

	return sum%10 == 0
}

// Reason returns the stable tag of a validation error, e.g. "FailedChecksum".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRequired):
		return "Required"
	case errors.Is(err, ErrInvalidFormat):
		return "InvalidFormat"
	case errors.Is(err, ErrInvalidLength):
		return "InvalidLength"
	case errors.Is(err, ErrFailedChecksum):
		return "FailedChecksum"
	case errors.Is(err, ErrExpired):
		return "Expired"
	default:
		return "Invalid"
	}
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
