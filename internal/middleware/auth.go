package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/benvon/slotfinder/internal/logger"
	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/request"
	"github.com/benvon/slotfinder/internal/services/auth"
)

// TokenVerifier verifies a bearer token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

var _ TokenVerifier = (*auth.Verifier)(nil)

// Auth requires a valid bearer JWT and stores its claims in the request context
func Auth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header", logger)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format", logger)
				return
			}

			claims, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					logger.Debug("token_rejected", zap.String("error", logpkg.SanitizeError(err)))
					respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
					return
				}
				logger.Error("token_verification_failed", zap.String("error", logpkg.SanitizeError(err)))
				respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Token verification is unavailable", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithClaims(r.Context(), claims)))
		})
	}
}
