package cache

import (
	"context"
	"errors"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
)

// Confirmations keeps placed-order confirmations long enough for the
// confirmation view to be reloaded.
type Confirmations struct {
	cache Cache
	ttl   time.Duration
}

func NewConfirmations(c Cache, ttl time.Duration) *Confirmations {
	return &Confirmations{cache: c, ttl: ttl}
}

// ErrConfirmationExists is returned when an order number was already saved.
var ErrConfirmationExists = errors.New("order confirmation already saved")

// Save writes a confirmation once per order number and never stores the
// payment client secret.
func (c *Confirmations) Save(ctx context.Context, confirmation models.StoredConfirmation) error {
	confirmation.ClientSecret = ""

	stored, err := c.cache.Add(ctx, Key(ConfirmationKeyPrefix, confirmation.OrderNumber), confirmation, c.ttl)
	if err != nil {
		return err
	}

	if !stored {
		return ErrConfirmationExists
	}

	return nil
}

func (c *Confirmations) Load(ctx context.Context, orderNumber string) (*models.StoredConfirmation, bool, error) {
	var confirmation models.StoredConfirmation

	found, err := c.cache.Get(ctx, Key(ConfirmationKeyPrefix, orderNumber), &confirmation)
	if err != nil || !found {
		return nil, false, err
	}

	return &confirmation, true, nil
}

func (c *Confirmations) Delete(ctx context.Context, orderNumber string) error {
	return c.cache.Delete(ctx, Key(ConfirmationKeyPrefix, orderNumber))
}
