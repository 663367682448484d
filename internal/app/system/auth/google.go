package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrInvalidToken is returned for any token the provider rejects: malformed,
// expired, or minted for a different client. Callers map it to a 400, kept
// distinct from the 403 an unregistered admin gets.
var ErrInvalidToken = errors.New("invalid identity token")

// TokenClaims holds the verified claims the login flow needs.
type TokenClaims struct {
	Subject   string // provider subject; the admins collection _id
	Email     string
	Name      string
	ExpiresAt time.Time
}

// TokenVerifier verifies a Google ID token and returns its claims.
// Implementations return ErrInvalidToken for any rejected token.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*TokenClaims, error)
}

// googleTokenInfoURL is Google's token introspection endpoint. It validates
// the token signature server-side, so we only check audience and expiry here.
const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier verifies ID tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

// NewGoogleVerifier creates a verifier that accepts tokens minted for clientID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		endpoint: googleTokenInfoURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// tokenInfo is the subset of the tokeninfo response the login flow uses.
// Google returns exp as a string of unix seconds.
type tokenInfo struct {
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Expiry        string `json:"exp"`
}

// Verify checks the ID token with Google and validates audience and expiry.
// Network and decode failures are returned as-is so callers can tell a
// provider outage (500) from a bad token (400).
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*TokenClaims, error) {
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Google answers 400 for any token it cannot validate.
	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	if info.Audience != v.clientID || info.Subject == "" {
		return nil, ErrInvalidToken
	}

	exp, err := strconv.ParseInt(info.Expiry, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt := time.Unix(exp, 0)
	if time.Now().After(expiresAt) {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   info.Subject,
		Email:     info.Email,
		Name:      info.Name,
		ExpiresAt: expiresAt,
	}, nil
}

// SetEndpoint overrides the tokeninfo endpoint. Tests point this at a local
// httptest server.
func (v *GoogleVerifier) SetEndpoint(endpoint string) {
	v.endpoint = endpoint
}
