package sendGrid_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	sendgridClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/sendgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailService(t *testing.T) {
	// Act
	service := sendgridClient.NewEmailService("test-api-key", "sender@example.com", "Test Sender")

	// Assert
	assert.NotNil(t, service)
	assert.NotNil(t, service.GetSendGridClient())
}

type sendgridV3Payload struct {
	Personalizations []struct {
		To      []map[string]string `json:"to"`
		Subject string              `json:"subject"`
	} `json:"personalizations"`
	From    map[string]string `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func TestEmailService_Send(t *testing.T) {
	apiKey := "SG.test-api-key"
	fromEmail := "orders@example.com"
	fromName := "Storefront"
	ctx := t.Context()

	tests := []struct {
		name          string
		msg           *models.EmailMessage
		status        int
		expectedError string
		checkPayload  func(t *testing.T, payload sendgridV3Payload)
	}{
		{
			name: "Success - Text and HTML",
			msg: &models.EmailMessage{
				To:          "shopper@example.com",
				Subject:     "Order ORD-1001 confirmed",
				Content:     "Thanks for your order",
				HTMLContent: "<p>Thanks for your order</p>",
			},
			status: http.StatusAccepted,
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Personalizations, 1)
				pers := p.Personalizations[0]
				require.Len(t, pers.To, 1)
				assert.Equal(t, "shopper@example.com", pers.To[0]["email"])
				assert.Equal(t, "Order ORD-1001 confirmed", pers.Subject)

				assert.Equal(t, fromEmail, p.From["email"])
				assert.Equal(t, fromName, p.From["name"])

				require.Len(t, p.Content, 2)
				assert.Equal(t, "text/plain", p.Content[0].Type)
				assert.Equal(t, "text/html", p.Content[1].Type)
				assert.Equal(t, "<p>Thanks for your order</p>", p.Content[1].Value)
			},
		},
		{
			name: "Success - Text only",
			msg: &models.EmailMessage{
				To:      "shopper@example.com",
				Subject: "Plain",
				Content: "Plain text content",
			},
			status: http.StatusAccepted,
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Content, 1)
				assert.Equal(t, "Plain text content", p.Content[0].Value)
			},
		},
		{
			name: "Failure - SendGrid API Error (4xx)",
			msg: &models.EmailMessage{
				To:      "bad@example.com",
				Subject: "Subject",
				Content: "Content",
			},
			status:        http.StatusBadRequest,
			expectedError: "failed to send email, status code: 400",
		},
		{
			name: "Failure - SendGrid API Error (5xx)",
			msg: &models.EmailMessage{
				To:      "shopper@example.com",
				Subject: "Subject",
				Content: "Content",
			},
			status:        http.StatusInternalServerError,
			expectedError: "failed to send email, status code: 500",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			var payload sendgridV3Payload

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "Bearer "+apiKey, r.Header.Get("Authorization"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &payload))

				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			service := sendgridClient.NewEmailService(apiKey, fromEmail, fromName)
			service.GetSendGridClient().Request.BaseURL = server.URL

			// Act
			err := service.Send(ctx, tc.msg)

			// Assert
			if tc.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
			}

			if tc.checkPayload != nil {
				tc.checkPayload(t, payload)
			}
		})
	}

	t.Run("Failure - Network Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		service := sendgridClient.NewEmailService(apiKey, fromEmail, fromName)
		service.GetSendGridClient().Request.BaseURL = server.URL
		server.Close()

		err := service.Send(ctx, &models.EmailMessage{To: "shopper@example.com", Subject: "S", Content: "C"})

		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "dial tcp"))
	})
}
