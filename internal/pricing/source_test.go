package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCBRSourceFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"disclaimer":"x","base":"RUB","rates":{"EUR":0.0101,"USD":0.0125}}`))
		}))
		defer srv.Close()

		rate, err := NewCBRSource(srv.URL).Fetch(ctx)

		require.NoError(t, err)
		assert.True(t, d("0.0115").Equal(rate), "got %s", rate)
	})

	t.Run("Non200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewCBRSource(srv.URL).Fetch(ctx)

		assert.ErrorIs(t, err, ErrRateUnavailable)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewCBRSource(srv.URL).Fetch(ctx)

		assert.ErrorIs(t, err, ErrRateUnavailable)
	})

	t.Run("MissingUSD", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rates":{"EUR":0.0101}}`))
		}))
		defer srv.Close()

		_, err := NewCBRSource(srv.URL).Fetch(ctx)

		assert.ErrorIs(t, err, ErrRateUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewCBRSource(url).Fetch(ctx)

		assert.ErrorIs(t, err, ErrRateUnavailable)
	})

	t.Run("Default URL", func(t *testing.T) {
		assert.Equal(t, DefaultRateSourceURL, NewCBRSource("").url)
	})
}
