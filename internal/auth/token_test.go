package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAccessToken(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "Cookie wins over header", cookie: "cookie_token", header: "Bearer header_token", want: "cookie_token"},
		{name: "Empty cookie uses header", cookie: "", header: "Bearer header_token", want: "header_token"},
		{name: "Lowercase scheme", header: "bearer header_token", want: "header_token"},
		{name: "Padded header", header: "  Bearer   header_token ", want: "header_token"},
		{name: "Basic scheme ignored", header: "Basic user:pass", want: ""},
		{name: "Nothing sent"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
			if tc.cookie != "" || tc.name == "Empty cookie uses header" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, ExtractAccessToken(req))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	const secret = "s3cret"

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/order/1/", nil)
		_, err := Authenticate(secret, req)
		assert.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("Staff cookie", func(t *testing.T) {
		token, err := GenerateJWT(secret, 7, "staff@example.com", RoleStaff, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/order/1/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

		claims, err := Authenticate(secret, req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
		assert.True(t, claims.IsStaff())
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := GenerateJWT("other", 7, "buyer@example.com", RoleBuyer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/order/1/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, err = Authenticate(secret, req)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoToken)
	})
}
