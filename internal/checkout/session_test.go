package checkout_test

import (
	"encoding/json"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJSON(t *testing.T) {
	s := cardSession("4532 0151 1283 0366", "12/30", "123", "Ayesha Khan")
	s.Errors[checkout.FieldCVV] = "CVV is required"

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "payment", decoded["step"])
	assert.Equal(t, map[string]any{
		"number":     "**** 0366",
		"expiry":     "12/30",
		"holderName": "Ayesha Khan",
	}, decoded["card"])
	assert.Equal(t, map[string]any{"cvv": "CVV is required"}, decoded["validationErrors"])
	assert.NotContains(t, string(raw), "4532")
	assert.NotContains(t, decoded, "Owner")
	assert.Equal(t, "4532 0151 1283 0366", s.Card.Number, "marshalling must not change the session")
}
