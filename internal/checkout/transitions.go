package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/payment"
)

// ValidateField runs the validator for one field. Card fields are only
// checked when the selected method takes a card.
func ValidateField(s Session, f Field, now time.Time) error {
	switch f {
	case FieldShippingAddress:
		return payment.ValidateRequired(s.ShippingAddress)
	case FieldShippingPhone:
		return payment.ValidatePhone(s.ShippingPhone)
	case FieldPaymentMethod:
		if s.PaymentMethod == "" {
			return payment.ErrRequired
		}
		if !s.PaymentMethod.Valid() {
			return payment.ErrInvalidFormat
		}
		return nil
	}

	if !s.PaymentMethod.RequiresCard() {
		return nil
	}

	switch f {
	case FieldCardNumber:
		return payment.ValidateCardNumber(s.Card.Number)
	case FieldExpiry:
		return payment.ValidateExpiry(s.Card.Expiry, now)
	case FieldCVV:
		return payment.ValidateCVV(s.Card.CVV)
	case FieldHolderName:
		return payment.ValidateRequired(s.Card.HolderName)
	}

	return nil
}

func collect(s Session, fields []Field, now time.Time) FieldErrors {
	errs := FieldErrors{}

	for _, f := range fields {
		if err := ValidateField(s, f, now); err != nil {
			errs[f] = payment.Message(f.Label(), err)
		}
	}

	return errs
}

// ShippingErrors checks what the shipping step needs before moving on.
func ShippingErrors(s Session) FieldErrors {
	return collect(s, []Field{FieldShippingAddress, FieldShippingPhone}, time.Time{})
}

// PaymentErrors checks the payment step. Cash on delivery, wallets and bank
// transfer need no card data.
func PaymentErrors(s Session, now time.Time) FieldErrors {
	fields := []Field{FieldPaymentMethod}
	if s.PaymentMethod.RequiresCard() {
		fields = append(fields, cardFields...)
	}

	return collect(s, fields, now)
}

// Advance moves Shipping to Payment when the shipping fields are valid.
// Otherwise the step is unchanged and the errors are recorded on the
// returned session.
func Advance(s Session) (Session, FieldErrors) {
	next := s.clone()

	if s.Step != StepShipping {
		return next, nil
	}

	errs := ShippingErrors(s)
	delete(next.Errors, FieldShippingAddress)
	delete(next.Errors, FieldShippingPhone)

	if !errs.Empty() {
		for f, msg := range errs {
			next.Errors[f] = msg
		}
		return next, errs
	}

	next.Step = StepPayment

	return next, nil
}

// Back always returns to the shipping step.
func Back(s Session) Session {
	next := s.clone()
	next.Step = StepShipping

	return next
}

// ReadyToSubmit re-checks every field the order depends on, since shipping
// fields stay editable on the payment step. Errors are recorded on the
// returned session, and a shipping error sends it back to the shipping step.
func ReadyToSubmit(s Session, now time.Time) (Session, FieldErrors) {
	next := s.clone()

	shipping := ShippingErrors(s)
	errs := PaymentErrors(s, now)
	for f, msg := range shipping {
		errs[f] = msg
	}

	for _, f := range append([]Field{FieldShippingAddress, FieldShippingPhone, FieldPaymentMethod}, cardFields...) {
		delete(next.Errors, f)
	}
	for f, msg := range errs {
		next.Errors[f] = msg
	}

	if !shipping.Empty() {
		next.Step = StepShipping
	}

	return next, errs
}

// Edit stores a keystroke-level value. Card number and expiry are
// reformatted as typed; the field's error is cleared.
func Edit(s Session, f Field, value string) (Session, error) {
	next := s.clone()

	switch f {
	case FieldShippingAddress:
		next.ShippingAddress = value
	case FieldShippingPhone:
		next.ShippingPhone = value
	case FieldNotes:
		next.Notes = value
	case FieldPaymentMethod:
		method, err := models.ParsePaymentMethod(strings.TrimSpace(value))
		if err != nil {
			return s, err
		}
		next.PaymentMethod = method
		if !method.RequiresCard() {
			next.Card = models.CardDetails{}
			for _, cf := range cardFields {
				delete(next.Errors, cf)
			}
		}
	case FieldCardNumber:
		next.Card.Number = payment.FormatCardNumber(value)
	case FieldExpiry:
		next.Card.Expiry = payment.FormatExpiry(value)
	case FieldCVV:
		next.Card.CVV = value
	case FieldHolderName:
		next.Card.HolderName = value
	default:
		return s, fmt.Errorf("unknown checkout field %q", f)
	}

	delete(next.Errors, f)

	return next, nil
}

// Blur validates a single field when it loses focus.
func Blur(s Session, f Field, now time.Time) Session {
	next := s.clone()

	if err := ValidateField(s, f, now); err != nil {
		next.Errors[f] = payment.Message(f.Label(), err)
	} else {
		delete(next.Errors, f)
	}

	return next
}
