package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/benvon/slotfinder/internal/models"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature or
// claim validation
var ErrInvalidToken = errors.New("invalid token")

// Verifier verifies bearer JWTs against a JWKS endpoint
type Verifier struct {
	jwks    *JWKSManager
	jwksURL string
	issuer  string
}

// NewVerifier creates a new JWT verifier. An empty issuer skips the issuer check.
func NewVerifier(jwks *JWKSManager, jwksURL, issuer string) *Verifier {
	return &Verifier{jwks: jwks, jwksURL: jwksURL, issuer: issuer}
}

// Verify checks the signature and standard claims and extracts the identity
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.Claims, error) {
	keys, err := v.jwks.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParseOption{jwt.WithKeySet(keys), jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims := &models.Claims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}
	if exp := token.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	return claims, nil
}
