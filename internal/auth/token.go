package auth

import (
	"errors"
	"net/http"
	"strings"
)

const AccessTokenCookie = "access_token"

var ErrNoToken = errors.New("no access token")

// ExtractAccessToken reads the token from the access_token cookie, falling
// back to an Authorization bearer header. The scheme is matched case-insensitively.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate verifies the request's access token. It returns ErrNoToken for
// anonymous requests so callers can tell them apart from forged tokens.
func Authenticate(secret string, r *http.Request) (*Claims, error) {
	token := ExtractAccessToken(r)
	if token == "" {
		return nil, ErrNoToken
	}
	return ParseJWT(secret, token)
}
