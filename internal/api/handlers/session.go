package handlers

import (
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
)

// Evictor tears down a subject's cart aggregate.
type Evictor interface {
	Evict(subject string) bool
}

type Canceller interface {
	Cancel(p auth.Principal)
}

type SessionHandler struct {
	carts    Evictor
	checkout Canceller
}

func NewSessionHandler(carts Evictor, checkout Canceller) *SessionHandler {
	return &SessionHandler{carts: carts, checkout: checkout}
}

// EndSession godoc
//
//	@Summary		End the shopping session
//	@Description	Called on logout. Drops the caller's cart aggregate and any checkout in progress; late storefront responses are discarded.
//	@Tags			Session
//	@Success		204
//	@Security		BearerAuth
//	@Router			/session/end [post]
func (h *SessionHandler) EndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		p := auth.FromContext(r.Context())

		if p.Authenticated() {
			h.checkout.Cancel(p)
			if h.carts.Evict(p.Subject) {
				middleware.LoggerFromContext(r.Context()).Info("Shopping session ended")
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
