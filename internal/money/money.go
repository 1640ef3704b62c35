// Package money parses and formats the monetary and quantity values that the
// storefront service sends either as JSON numbers or as strings.
//
// Every helper is tolerant: malformed input becomes zero instead of NaN so
// that arithmetic consumers never see a non-numeric value.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ToAmount returns a finite, non-negative amount for value.
// Unparseable, negative or non-finite input yields 0.
func ToAmount(value any) float64 {
	d, ok := toDecimal(value)
	if !ok || d.IsNegative() {
		return 0
	}

	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

// ToQuantity returns a non-negative whole quantity for value. Fractions are
// truncated; anything unparseable yields 0.
func ToQuantity(value any) int {
	d, ok := toDecimal(value)
	if !ok || d.IsNegative() {
		return 0
	}

	q := d.Truncate(0).IntPart()
	if q > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(q)
}

// FormatCurrency renders amount with exactly two decimals. Presentation only.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0.00"
	}

	return decimal.NewFromFloat(amount).StringFixed(2)
}

// ToMinorUnits converts an amount to the smallest currency unit (cents),
// rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(ToAmount(amount)).Shift(2).Round(0).IntPart()
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parse(v.String())
	case string:
		return parse(v)
	case Amount:
		return toDecimal(float64(v))
	case Quantity:
		return decimal.NewFromInt(int64(v)), true
	default:
		return decimal.Zero, false
	}
}

func parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

// Amount decodes a JSON number or numeric string through ToAmount.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	v, err := decodeLoose(b)
	if err != nil {
		return err
	}

	*a = Amount(ToAmount(v))

	return nil
}

// Quantity decodes a JSON number or numeric string through ToQuantity.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	v, err := decodeLoose(b)
	if err != nil {
		return err
	}

	*q = Quantity(ToQuantity(v))

	return nil
}

func decodeLoose(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}
