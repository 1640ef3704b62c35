package payment

import "errors"

// Message turns a validation reason into the text shown next to a field.
func Message(label string, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRequired):
		return label + " is required"
	case errors.Is(err, ErrInvalidFormat):
		return label + " has an invalid format"
	case errors.Is(err, ErrInvalidLength):
		return label + " has an invalid length"
	case errors.Is(err, ErrFailedChecksum):
		return label + " is not a valid card number"
	case errors.Is(err, ErrExpired):
		return "Card has expired"
	default:
		return label + " is invalid"
	}
}
