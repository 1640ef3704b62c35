package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEndSession(t *testing.T) {
	t.Run("Evicts the cart and cancels checkout", func(t *testing.T) {
		// Arrange
		_, registry, cartHandler := setupCartTest(t)
		serve(t, cartHandler.GetCart(),
			testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, testutils.TestPrincipal, nil))

		aggregate, ok := registry.Peek(testutils.TestPrincipal.Subject)
		require.True(t, ok)

		mockService := new(mockCheckoutService)
		mockService.On("Cancel", testutils.TestPrincipal).Return().Once()

		h := handlers.NewSessionHandler(registry, mockService)
		recorder := httptest.NewRecorder()

		// Act
		h.EndSession()(recorder, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/session/end", nil, testutils.TestPrincipal, nil))

		// Assert
		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.True(t, aggregate.Closed())
		assert.Equal(t, 0, registry.Len())
		mockService.AssertExpectations(t)
	})

	t.Run("Anonymous is a no-op", func(t *testing.T) {
		_, registry, _ := setupCartTest(t)
		mockService := new(mockCheckoutService)

		h := handlers.NewSessionHandler(registry, mockService)
		recorder := httptest.NewRecorder()

		h.EndSession()(recorder, testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/session/end", nil, auth.Anonymous, nil))

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		mockService.AssertNotCalled(t, "Cancel", mock.Anything)
	})
}
