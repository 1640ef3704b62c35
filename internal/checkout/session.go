// Package checkout drives the two-step checkout: shipping details, then
// payment, then order placement.
//
// Session is plain data. The transition functions in this package are pure;
// Service adds storage, the live cart and the remote order call around them.
package checkout

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
)

type Step int

const (
	StepShipping Step = iota
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type Field string

const (
	FieldShippingAddress Field = "shippingAddress"
	FieldShippingPhone   Field = "shippingPhone"
	FieldNotes           Field = "notes"
	FieldPaymentMethod   Field = "paymentMethod"
	FieldCardNumber      Field = "cardNumber"
	FieldExpiry          Field = "expiry"
	FieldCVV             Field = "cvv"
	FieldHolderName      Field = "holderName"
)

var fieldLabels = map[Field]string{
	FieldShippingAddress: "Shipping address",
	FieldShippingPhone:   "Phone number",
	FieldNotes:           "Notes",
	FieldPaymentMethod:   "Payment method",
	FieldCardNumber:      "Card number",
	FieldExpiry:          "Expiry date",
	FieldCVV:             "CVV",
	FieldHolderName:      "Cardholder name",
}

var cardFields = []Field{FieldCardNumber, FieldExpiry, FieldCVV, FieldHolderName}

func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldLabels[f]; !ok {
		return "", fmt.Errorf("unknown checkout field %q", s)
	}

	return f, nil
}

func (f Field) Label() string {
	return fieldLabels[f]
}

// FieldErrors maps a field to the message shown next to it.
type FieldErrors map[Field]string

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Strings converts the keys for the HTTP error envelope.
func (e FieldErrors) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[string(f)] = msg
	}

	return out
}

type Session struct {
	ID              string               `json:"id"`
	Owner           string               `json:"-"`
	Step            Step                 `json:"step"`
	ShippingAddress string               `json:"shippingAddress"`
	ShippingPhone   string               `json:"shippingPhone"`
	Notes           string               `json:"notes,omitempty"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	Card            models.CardDetails   `json:"card"`
	Errors          FieldErrors          `json:"validationErrors"`
	StartedAt       time.Time            `json:"startedAt"`
}

// NewSession starts at the shipping step with cash on delivery selected.
func NewSession(owner string, now time.Time) Session {
	return Session{
		ID:            uuid.NewString(),
		Owner:         owner,
		Step:          StepShipping,
		PaymentMethod: models.PaymentMethodCOD,
		Errors:        FieldErrors{},
		StartedAt:     now,
	}
}

// MarshalJSON writes the card masked. The full number and the CVV never leave
// the server.
func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session

	out := plain(s)
	out.Card = s.Card.Masked()

	return json.Marshal(out)
}

func (s Session) clone() Session {
	out := s
	out.Errors = maps.Clone(s.Errors)
	if out.Errors == nil {
		out.Errors = FieldErrors{}
	}

	return out
}
