package payment_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/payment"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// checksum computes the Luhn sum left to right, independent of payment.Luhn.
func checksum(digits []int) int {
	sum := 0
	parity := len(digits) % 2

	for i, d := range digits {
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}

	return sum
}

func digitString(digits []int) string {
	var b strings.Builder
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}

	return b.String()
}

func cardDigits() gopter.Gen {
	return gen.IntRange(payment.MinCardDigits, payment.MaxCardDigits).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), gen.IntRange(0, 9))
	}, reflect.TypeOf([]int{}))
}

func TestCardNumberMatchesChecksum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("valid iff checksum is 0 mod 10", prop.ForAll(
		func(digits []int) bool {
			err := payment.ValidateCardNumber(digitString(digits))
			if checksum(digits)%10 == 0 {
				return err == nil
			}
			return errors.Is(err, payment.ErrFailedChecksum)
		},
		cardDigits(),
	))

	properties.Property("appending the check digit always validates", prop.ForAll(
		func(digits []int) bool {
			body := digits[:len(digits)-1]
			for check := 0; check <= 9; check++ {
				candidate := append(append([]int{}, body...), check)
				if checksum(candidate)%10 == 0 {
					return payment.ValidateCardNumber(digitString(candidate)) == nil
				}
			}
			return false
		},
		cardDigits(),
	))

	properties.TestingRun(t)
}

func TestFormatCardNumberIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("format(format(x)) == format(x)", prop.ForAll(
		func(s string) bool {
			once := payment.FormatCardNumber(s)
			return payment.FormatCardNumber(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("formatted digits never exceed display length", prop.ForAll(
		func(s string) bool {
			return len(payment.FormatCardNumber(s)) <= payment.DisplayCardDigits+3
		},
		gen.NumString(),
	))

	properties.TestingRun(t)
}
