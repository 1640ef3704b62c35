package payment_test

import (
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/payment"
	"github.com/stretchr/testify/assert"
)

func TestValidateCardNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"valid visa", "4532015112830366", nil},
		{"valid with spaces", "4532 0151 1283 0366", nil},
		{"valid 13 digits", "4222222222222", nil},
		{"valid amex", "378282246310005", nil},
		{"checksum off by one", "4532015112830367", payment.ErrFailedChecksum},
		{"empty", "", payment.ErrRequired},
		{"only spaces", "   ", payment.ErrRequired},
		{"dashes", "4532-0151-1283-0366", payment.ErrInvalidFormat},
		{"letters", "4532abcd12830366", payment.ErrInvalidFormat},
		{"too short", "453201511283", payment.ErrInvalidLength},
		{"too long", "45320151128303664532", payment.ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payment.ValidateCardNumber(tt.input)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateExpiry(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"current month", "10/26", nil},
		{"next month", "11/26", nil},
		{"future year", "01/30", nil},
		{"last month", "09/26", payment.ErrExpired},
		{"long expired", "01/20", payment.ErrExpired},
		{"empty", "", payment.ErrRequired},
		{"month zero", "00/30", payment.ErrInvalidFormat},
		{"month thirteen", "13/30", payment.ErrInvalidFormat},
		{"single digit month", "1/30", payment.ErrInvalidFormat},
		{"four digit year", "01/2030", payment.ErrInvalidFormat},
		{"no slash", "0130", payment.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payment.ValidateExpiry(tt.input, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// Two-digit years are compared without a century, so the check wraps.
func TestValidateExpiry_CenturyWrap(t *testing.T) {
	late := time.Date(2099, time.June, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, payment.ValidateExpiry("01/05", late), payment.ErrExpired)
}

func TestValidateCVV(t *testing.T) {
	assert.NoError(t, payment.ValidateCVV("123"))
	assert.NoError(t, payment.ValidateCVV("1234"))
	assert.ErrorIs(t, payment.ValidateCVV(""), payment.ErrRequired)
	assert.ErrorIs(t, payment.ValidateCVV("12"), payment.ErrInvalidLength)
	assert.ErrorIs(t, payment.ValidateCVV("12345"), payment.ErrInvalidLength)
	assert.ErrorIs(t, payment.ValidateCVV("12a"), payment.ErrInvalidFormat)
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"international with separators", "+92-300-1234567", nil},
		{"parentheses and spaces", "(030) 0123 4567", nil},
		{"ten digits", "0300123456", nil},
		{"fifteen digits", "123456789012345", nil},
		{"too short", "12345", payment.ErrInvalidLength},
		{"sixteen digits", "1234567890123456", payment.ErrInvalidLength},
		{"letters", "0300-CALL-NOW", payment.ErrInvalidFormat},
		{"dots are not separators", "0300.123.4567", payment.ErrInvalidFormat},
		{"blank", "  ", payment.ErrRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payment.ValidatePhone(tt.input)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLuhn(t *testing.T) {
	assert.True(t, payment.Luhn("79927398713"))
	assert.False(t, payment.Luhn("79927398710"))
	assert.False(t, payment.Luhn(""))
	assert.False(t, payment.Luhn("7992x398713"))
}

func TestReasonAndMessage(t *testing.T) {
	assert.Equal(t, "", payment.Reason(nil))
	assert.Equal(t, "FailedChecksum", payment.Reason(payment.ErrFailedChecksum))
	assert.Equal(t, "Expired", payment.Reason(payment.ErrExpired))

	assert.Equal(t, "", payment.Message("Card number", nil))
	assert.Equal(t, "Card number is required", payment.Message("Card number", payment.ErrRequired))
	assert.Equal(t, "Card has expired", payment.Message("Expiry", payment.ErrExpired))
}
