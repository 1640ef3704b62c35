package checkout

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cart"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/money"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/payment"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/ratelimit"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storefront"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Carts hands out the live cart aggregate for a principal.
type Carts interface {
	Acquire(p auth.Principal) *cart.Aggregate
}

// OrderGateway is the remote order endpoint.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.PlacedOrder, error)
}

type PaymentIntents interface {
	CreatePaymentIntent(ctx context.Context, req stripeClient.PaymentIntentRequest) (*stripeClient.PaymentIntent, error)
}

type Confirmations interface {
	Save(ctx context.Context, confirmation models.StoredConfirmation) error
	Load(ctx context.Context, orderNumber string) (*models.StoredConfirmation, bool, error)
}

type Limiter interface {
	Allow(ctx context.Context, id string) (ratelimit.Result, error)
}

type Mailer interface {
	Send(ctx context.Context, msg *models.EmailMessage) error
}

// Dependencies wires a Service. Carts and Gateway are required; the rest
// are optional and skipped when nil.
type Dependencies struct {
	Carts         Carts
	Gateway       OrderGateway
	Payments      PaymentIntents
	Confirmations Confirmations
	Limiter       Limiter
	Mailer        Mailer
	Currency      string
	Logger        *slog.Logger
	Now           func() time.Time
}

type Service struct {
	carts         Carts
	gateway       OrderGateway
	payments      PaymentIntents
	confirmations Confirmations
	limiter       Limiter
	mailer        Mailer
	currency      string
	logger        *slog.Logger
	now           func() time.Time
	store         *Store
	sanitizer     *bluemonday.Policy
}

func NewService(d Dependencies) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Now == nil {
		d.Now = time.Now
	}

	if d.Currency == "" {
		d.Currency = "pkr"
	}

	return &Service{
		carts:         d.Carts,
		gateway:       d.Gateway,
		payments:      d.Payments,
		confirmations: d.Confirmations,
		limiter:       d.Limiter,
		mailer:        d.Mailer,
		currency:      d.Currency,
		logger:        d.Logger,
		now:           d.Now,
		store:         NewStore(),
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

var tracer = otel.Tracer("github.com/aaravmahajanofficial/storefront-checkout/internal/checkout")

// Begin starts checkout, or resumes the principal's session if one exists.
// The cart is re-read first and must not be empty.
func (s *Service) Begin(ctx context.Context, p auth.Principal) (Session, error) {
	if err := authorize(p); err != nil {
		return Session{}, err
	}

	if existing, ok := s.store.Get(p.Subject); ok {
		return existing, nil
	}

	aggregate := s.carts.Acquire(p)
	if err := aggregate.Refresh(ctx); err != nil {
		return Session{}, err
	}

	if aggregate.IsEmpty() {
		return Session{}, appErrors.PreconditionFailedError("Your cart is empty")
	}

	session := NewSession(p.Subject, s.now())
	s.store.Put(session)

	metrics.RecordCheckoutTransition("begin", true)
	s.logger.Info("Checkout started", slog.String("subject", p.Subject), slog.String("sessionId", session.ID))

	return session, nil
}

func (s *Service) Get(p auth.Principal) (Session, error) {
	if err := authorize(p); err != nil {
		return Session{}, err
	}

	session, ok := s.store.Get(p.Subject)
	if !ok {
		return Session{}, errNoSession()
	}

	return session, nil
}

func (s *Service) Edit(p auth.Principal, field, value string) (Session, error) {
	f, err := s.field(p, field)
	if err != nil {
		return Session{}, err
	}

	return s.store.Update(p.Subject, func(current Session) (Session, error) {
		next, err := Edit(current, f, value)
		if err != nil {
			return current, appErrors.AddValidationError(field, err.Error())
		}
		return next, nil
	})
}

func (s *Service) Blur(p auth.Principal, field string) (Session, error) {
	f, err := s.field(p, field)
	if err != nil {
		return Session{}, err
	}

	return s.store.Update(p.Subject, func(current Session) (Session, error) {
		return Blur(current, f, s.now()), nil
	})
}

// Next moves from Shipping to Payment. When the shipping fields are invalid
// the errors are kept on the session and returned as a validation error.
func (s *Service) Next(p auth.Principal) (Session, error) {
	if err := authorize(p); err != nil {
		return Session{}, err
	}

	var denied FieldErrors

	session, err := s.store.Update(p.Subject, func(current Session) (Session, error) {
		next, errs := Advance(current)
		denied = errs
		return next, nil
	})
	if err != nil {
		return Session{}, err
	}

	metrics.RecordCheckoutTransition("shipping_to_payment", denied.Empty())

	if !denied.Empty() {
		return session, appErrors.ValidationError("Please correct the highlighted fields").WithFields(denied.Strings())
	}

	return session, nil
}

func (s *Service) Back(p auth.Principal) (Session, error) {
	if err := authorize(p); err != nil {
		return Session{}, err
	}

	session, err := s.store.Update(p.Subject, func(current Session) (Session, error) {
		return Back(current), nil
	})
	if err == nil {
		metrics.RecordCheckoutTransition("payment_to_shipping", true)
	}

	return session, err
}

// Cancel discards the session, e.g. when the shopper leaves checkout.
func (s *Service) Cancel(p auth.Principal) {
	if !p.Authenticated() {
		return
	}

	if _, ok := s.store.Get(p.Subject); ok {
		s.store.Delete(p.Subject)
		metrics.RecordCheckoutTransition("cancel", true)
	}
}

// PlaceOrder submits the order. Totals come from a fresh read of the live
// cart, never from anything captured earlier in the session. Shipping fields
// are validated again because they can be edited on the payment step.
func (s *Service) PlaceOrder(ctx context.Context, p auth.Principal) (*models.OrderConfirmation, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	release, err := s.store.beginSubmit(p.Subject)
	if err != nil {
		return nil, err
	}
	defer release()

	var denied FieldErrors

	session, err := s.store.Update(p.Subject, func(current Session) (Session, error) {
		if current.Step != StepPayment {
			return current, appErrors.PreconditionFailedError("Complete the shipping details first")
		}

		checked, errs := ReadyToSubmit(current, s.now())
		if errs.Empty() && s.sanitize(checked.ShippingAddress) == "" {
			errs = FieldErrors{FieldShippingAddress: payment.Message(FieldShippingAddress.Label(), payment.ErrRequired)}
			checked.Errors[FieldShippingAddress] = errs[FieldShippingAddress]
		}
		denied = errs

		return checked, nil
	})
	if err != nil {
		return nil, err
	}

	if !denied.Empty() {
		metrics.RecordCheckoutTransition("payment_to_submitted", false)
		return nil, appErrors.ValidationError("Please correct the highlighted fields").WithFields(denied.Strings())
	}

	req := models.OrderRequest{
		ShippingAddress: s.sanitize(session.ShippingAddress),
		ShippingPhone:   strings.TrimSpace(session.ShippingPhone),
		PaymentMethod:   session.PaymentMethod,
		Notes:           s.sanitize(session.Notes),
	}

	if err := s.checkRate(ctx, p); err != nil {
		return nil, err
	}

	aggregate := s.carts.Acquire(p)
	if err := aggregate.Refresh(ctx); err != nil {
		return nil, err
	}

	if aggregate.IsEmpty() {
		return nil, appErrors.PreconditionFailedError("Your cart is empty")
	}

	totals := aggregate.Totals()
	s.warnOnDrift(p, aggregate.Items())

	span.SetAttributes(
		attribute.String("payment_method", string(req.PaymentMethod)),
		attribute.Int("item_count", totals.ItemCount),
	)

	order, err := s.gateway.PlaceOrder(auth.NewContext(ctx, p), req)
	metrics.RecordOrder(string(req.PaymentMethod), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order rejected")
		s.logger.Warn("Order submission failed", slog.String("subject", p.Subject), slog.String("error", err.Error()))

		return nil, appErrors.ThirdPartyError(storefront.UserMessage(err, "We could not place your order. Please try again.")).WithError(err)
	}

	s.store.Delete(p.Subject)
	metrics.RecordCheckoutTransition("payment_to_submitted", true)

	confirmation := &models.OrderConfirmation{
		OrderNumber:   order.OrderNumber,
		OrderID:       order.ID,
		PaymentMethod: req.PaymentMethod,
		ItemCount:     totals.ItemCount,
		Subtotal:      totals.Subtotal,
		ShippingCost:  totals.ShippingCost,
		TaxAmount:     totals.TaxAmount,
		GrandTotal:    totals.GrandTotal,
		PlacedAt:      s.now(),
	}

	s.logger.Info("Order placed",
		slog.String("subject", p.Subject),
		slog.String("orderNumber", order.OrderNumber),
		slog.String("paymentMethod", string(req.PaymentMethod)),
		slog.Float64("grandTotal", totals.GrandTotal),
	)

	s.afterOrder(ctx, p, confirmation, aggregate)

	return confirmation, nil
}

// Confirmation reloads a placed order's confirmation for its owner.
func (s *Service) Confirmation(ctx context.Context, p auth.Principal, orderNumber string) (*models.OrderConfirmation, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}

	if s.confirmations == nil {
		return nil, appErrors.NotFoundError("Order confirmation not found")
	}

	stored, found, err := s.confirmations.Load(ctx, orderNumber)
	if err != nil {
		return nil, appErrors.InternalError("Failed to load order confirmation").WithError(err)
	}

	if !found || stored.Owner != p.Subject {
		return nil, appErrors.NotFoundError("Order confirmation not found")
	}

	return &stored.OrderConfirmation, nil
}

// afterOrder runs the post-order steps. None of them can fail the order.
func (s *Service) afterOrder(ctx context.Context, p auth.Principal, confirmation *models.OrderConfirmation, aggregate *cart.Aggregate) {
	if s.payments != nil && confirmation.PaymentMethod.RequiresCard() {
		intent, err := s.payments.CreatePaymentIntent(ctx, stripeClient.PaymentIntentRequest{
			Amount:       money.ToMinorUnits(confirmation.GrandTotal),
			Currency:     s.currency,
			Description:  "Order " + confirmation.OrderNumber,
			OrderNumber:  confirmation.OrderNumber,
			ReceiptEmail: p.Email,
			Metadata:     map[string]string{"payment_method": string(confirmation.PaymentMethod)},
		})
		if err != nil {
			s.logger.Error("Failed to create payment intent",
				slog.String("orderNumber", confirmation.OrderNumber),
				slog.String("error", err.Error()),
			)
		} else {
			confirmation.PaymentIntentID = intent.ID
			confirmation.ClientSecret = intent.ClientSecret
		}
	}

	if s.confirmations != nil {
		if err := s.confirmations.Save(ctx, models.StoredConfirmation{OrderConfirmation: *confirmation, Owner: p.Subject}); err != nil {
			s.logger.Warn("Failed to cache order confirmation",
				slog.String("orderNumber", confirmation.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.mailer != nil && p.Email != "" {
		if err := s.mailer.Send(ctx, confirmationEmail(p.Email, confirmation)); err != nil {
			s.logger.Warn("Failed to send confirmation email",
				slog.String("orderNumber", confirmation.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
	}

	// The storefront empties the cart when it accepts an order.
	if err := aggregate.Refresh(ctx); err != nil {
		s.logger.Debug("Cart refresh after order failed", slog.String("error", err.Error()))
	}
}

func (s *Service) checkRate(ctx context.Context, p auth.Principal) error {
	if s.limiter == nil {
		return nil
	}

	result, err := s.limiter.Allow(ctx, p.Subject)
	if err != nil {
		s.logger.Warn("Order rate limit unavailable", slog.String("error", err.Error()))
		return nil
	}

	if !result.Allowed {
		seconds := int(result.RetryAfter.Round(time.Second).Seconds())
		return appErrors.TooManyRequestsError("Too many order attempts. Please wait before trying again.").
			WithDetail(fmt.Sprintf("retry after %d seconds", seconds))
	}

	return nil
}

// warnOnDrift logs price and stock drift. Neither blocks the order.
func (s *Service) warnOnDrift(p auth.Principal, items []models.LineItem) {
	for _, item := range items {
		for _, notice := range cart.Notices(item) {
			s.logger.Warn("Submitting order with cart drift",
				slog.String("subject", p.Subject),
				slog.String("itemId", notice.ItemID),
				slog.String("kind", string(notice.Kind)),
			)
		}
	}
}

func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func (s *Service) field(p auth.Principal, name string) (Field, error) {
	if err := authorize(p); err != nil {
		return "", err
	}

	f, err := ParseField(name)
	if err != nil {
		return "", appErrors.AddValidationError("field", err.Error())
	}

	return f, nil
}

func authorize(p auth.Principal) error {
	if !p.Authenticated() {
		return appErrors.UnauthorizedError("Please sign in to check out")
	}

	return nil
}

func confirmationEmail(to string, c *models.OrderConfirmation) *models.EmailMessage {
	text := fmt.Sprintf(
		"Thank you for your order %s.\n\nItems: %d\nSubtotal: %s\nShipping: %s\nTax: %s\nTotal: %s\nPayment: %s\n",
		c.OrderNumber,
		c.ItemCount,
		money.FormatCurrency(c.Subtotal),
		money.FormatCurrency(c.ShippingCost),
		money.FormatCurrency(c.TaxAmount),
		money.FormatCurrency(c.GrandTotal),
		c.PaymentMethod,
	)

	return &models.EmailMessage{
		To:          to,
		Subject:     fmt.Sprintf("Order %s confirmed", c.OrderNumber),
		Content:     text,
		HTMLContent: "<pre>" + html.EscapeString(text) + "</pre>",
	}
}
