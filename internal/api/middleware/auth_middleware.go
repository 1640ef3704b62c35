package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errSigningMethod = errors.New("unexpected signing method")

type AuthMiddleware struct {
	jwtKey []byte
}

func NewAuthMiddleware(jwtKey []byte) *AuthMiddleware {

	return &AuthMiddleware{jwtKey: jwtKey}

}

// Authenticate resolves the caller into an auth.Principal. A request without
// an Authorization header continues as the anonymous principal; a header that
// is present but not a valid token is rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), auth.Anonymous)))
			return
		}

		// Token is of format : "Bearer <token>"
		tokenParts := strings.Split(authHeader, " ")

		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			logger.Warn("Invalid authorization header format")
			response.Error(w, appErrors.UnauthorizedError("Invalid authorization format"))
			return
		}

		tokenString := tokenParts[1]

		// Stores the decoded information
		claims := &models.Claims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			// check the signing method
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				logger.Warn("Unexpected signing method used in JWT", slog.Any("alg", t.Header["alg"]))
				return nil, errSigningMethod
			}
			return m.jwtKey, nil
		})

		if err != nil || !token.Valid {
			reason := "invalid token"
			if err != nil {
				reason = err.Error()
			}
			logger.Warn("JWT validation failed", slog.String("error", reason))
			response.Error(w, appErrors.UnauthorizedError("Invalid or expired token"))
			return
		}

		principal := principalFromClaims(claims, tokenString)
		if !principal.Authenticated() {
			logger.Warn("JWT carries no subject")
			response.Error(w, appErrors.UnauthorizedError("Invalid or expired token"))
			return
		}

		ctx := auth.NewContext(r.Context(), principal)

		requestScopedLogger := logger.With(slog.String("userId", principal.Subject))
		ctx = context.WithValue(ctx, LoggerKey, requestScopedLogger)

		requestScopedLogger.Debug("User authenticated")

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// The raw token is kept so the storefront calls can forward it.
func principalFromClaims(claims *models.Claims, raw string) auth.Principal {
	subject := claims.Subject
	if claims.UserID != uuid.Nil {
		subject = claims.UserID.String()
	}

	return auth.Principal{
		Subject: subject,
		Email:   claims.Email,
		Token:   raw,
	}
}
