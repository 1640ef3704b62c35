package payment

import "strings"

// DisplayCardDigits is the most digits FormatCardNumber keeps.
const DisplayCardDigits = 16

// FormatCardNumber keeps digits only and groups them in fours,
// e.g. "4532015112830366" -> "4532 0151 1283 0366".
func FormatCardNumber(raw string) string {
	digits := onlyDigits(raw, DisplayCardDigits)

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/4)

	for i := 0; i < len(digits); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[i])
	}

	return b.String()
}

// FormatExpiry keeps up to four digits and puts a slash after the month.
func FormatExpiry(raw string) string {
	digits := onlyDigits(raw, 4)

	if len(digits) < 2 {
		return digits
	}

	return digits[:2] + "/" + digits[2:]
}

func onlyDigits(s string, limit int) string {
	out := make([]byte, 0, limit)

	for i := 0; i < len(s) && len(out) < limit; i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}

	return string(out)
}
