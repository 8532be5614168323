package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://auth.example.com"

type testKeys struct {
	private jwk.Key
	set     jwk.Set
}

func newTestKeys(t *testing.T, kid string) testKeys {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	private, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("Failed to wrap private key: %v", err)
	}
	if err := private.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("Failed to set kid: %v", err)
	}
	if err := private.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("Failed to set alg: %v", err)
	}
	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		t.Fatalf("Failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		t.Fatalf("Failed to add key: %v", err)
	}
	return testKeys{private: private, set: set}
}

func (k testKeys) sign(t *testing.T, issuer string, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewBuilder().
		Subject("user-1").
		Issuer(issuer).
		IssuedAt(time.Now()).
		Expiration(exp).
		Claim("email", "student@example.com").
		Build()
	if err != nil {
		t.Fatalf("Failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, k.private))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return string(signed)
}

func jwksServer(t *testing.T, set jwk.Set, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Failed to marshal JWKS: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t, "k1")
	other := newTestKeys(t, "k1")
	server := jwksServer(t, keys.set, nil)

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		issuer  string
		wantErr bool
	}{
		{
			name:   "valid token",
			token:  func(t *testing.T) string { return keys.sign(t, testIssuer, time.Now().Add(time.Hour)) },
			issuer: testIssuer,
		},
		{
			name:   "issuer check disabled",
			token:  func(t *testing.T) string { return keys.sign(t, "https://other.example.com", time.Now().Add(time.Hour)) },
			issuer: "",
		},
		{
			name:    "expired",
			token:   func(t *testing.T) string { return keys.sign(t, testIssuer, time.Now().Add(-time.Hour)) },
			issuer:  testIssuer,
			wantErr: true,
		},
		{
			name:    "issuer mismatch",
			token:   func(t *testing.T) string { return keys.sign(t, "https://other.example.com", time.Now().Add(time.Hour)) },
			issuer:  testIssuer,
			wantErr: true,
		},
		{
			name:    "signed by unknown key",
			token:   func(t *testing.T) string { return other.sign(t, testIssuer, time.Now().Add(time.Hour)) },
			issuer:  testIssuer,
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not.a.jwt" },
			issuer:  testIssuer,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := NewVerifier(NewJWKSManager(time.Minute), server.URL, tt.issuer)
			claims, err := v.Verify(context.Background(), tt.token(t))

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("Expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if claims.Sub != "user-1" {
				t.Errorf("Expected sub user-1, got %q", claims.Sub)
			}
			if claims.Email != "student@example.com" {
				t.Errorf("Expected email claim, got %q", claims.Email)
			}
			if claims.Exp == 0 {
				t.Error("Expected exp to be set")
			}
		})
	}
}

func TestJWKSManager_CachesKeys(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t, "k1")
	var hits atomic.Int32
	server := jwksServer(t, keys.set, &hits)

	m := NewJWKSManager(time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := m.GetJWKS(context.Background(), server.URL); err != nil {
			t.Fatalf("GetJWKS failed: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected 1 fetch, got %d", got)
	}
}

func TestJWKSManager_FetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "invalid body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			v := NewVerifier(NewJWKSManager(time.Hour), server.URL, testIssuer)
			_, err := v.Verify(context.Background(), "irrelevant")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected JWKS failure not to be reported as an invalid token, got %v", err)
			}
		})
	}
}
