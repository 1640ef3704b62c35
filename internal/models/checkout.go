package models

import "fmt"

type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "COD"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodEasyPaisa    PaymentMethod = "EASYPAISA"
	PaymentMethodJazzCash     PaymentMethod = "JAZZCASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodEasyPaisa,
	PaymentMethodJazzCash,
	PaymentMethodBankTransfer,
}

// PaymentMethods lists the accepted methods in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)

	return out
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}

	return m, nil
}

func (m PaymentMethod) Valid() bool {
	for _, known := range paymentMethods {
		if m == known {
			return true
		}
	}

	return false
}

// RequiresCard is true for the methods that collect card details.
func (m PaymentMethod) RequiresCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

type CardDetails struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"-"`
	HolderName string `json:"holderName"`
}

// Masked hides everything but the last four digits of the card number.
func (c CardDetails) Masked() CardDetails {
	digits := make([]byte, 0, len(c.Number))
	for i := 0; i < len(c.Number); i++ {
		if c.Number[i] >= '0' && c.Number[i] <= '9' {
			digits = append(digits, c.Number[i])
		}
	}

	masked := c
	masked.CVV = ""
	if len(digits) > 4 {
		masked.Number = "**** " + string(digits[len(digits)-4:])
	}

	return masked
}

type EditFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type BlurFieldRequest struct {
	Field string `json:"field" validate:"required"`
}
