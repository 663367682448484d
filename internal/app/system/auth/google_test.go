package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// tokeninfoServer fakes Google's tokeninfo endpoint: any token present in the
// responses map is answered with that body; everything else gets a 400.
func tokeninfoServer(t *testing.T, responses map[string]tokenInfo) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("id_token")
		info, ok := responses[token]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	}))
}

func TestGoogleVerifier_Verify(t *testing.T) {
	futureExp := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	pastExp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	srv := tokeninfoServer(t, map[string]tokenInfo{
		"good-token": {
			Audience: "my-client-id",
			Subject:  "google-uid-1",
			Email:    "admin@example.com",
			Name:     "Admin",
			Expiry:   futureExp,
		},
		"wrong-audience": {
			Audience: "someone-elses-client",
			Subject:  "google-uid-1",
			Expiry:   futureExp,
		},
		"expired-token": {
			Audience: "my-client-id",
			Subject:  "google-uid-1",
			Expiry:   pastExp,
		},
		"no-subject": {
			Audience: "my-client-id",
			Expiry:   futureExp,
		},
	})
	defer srv.Close()

	v := NewGoogleVerifier("my-client-id")
	v.SetEndpoint(srv.URL)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.Verify(ctx, "good-token")
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if claims.Subject != "google-uid-1" {
			t.Errorf("Subject = %q, want google-uid-1", claims.Subject)
		}
		if claims.Email != "admin@example.com" {
			t.Errorf("Email = %q, want admin@example.com", claims.Email)
		}
		if claims.ExpiresAt.Before(time.Now()) {
			t.Error("ExpiresAt should be in the future")
		}
	})

	rejected := []string{"rejected-by-google", "wrong-audience", "expired-token", "no-subject", ""}
	for _, token := range rejected {
		name := token
		if name == "" {
			name = "empty token"
		}
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", token, err)
			}
		})
	}
}

func TestGoogleVerifier_ProviderOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	v := NewGoogleVerifier("my-client-id")
	v.SetEndpoint(srv.URL)

	// A provider that answers garbage is an outage, not a bad token.
	_, err := v.Verify(context.Background(), "some-token")
	if err == nil {
		t.Fatal("Verify() error = nil, want decode error")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("decode failure should not be classified as an invalid token")
	}
}
