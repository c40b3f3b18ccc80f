package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultRateSourceURL = "https://www.cbr-xml-daily.ru/latest.js"
	rateFetchTimeout     = 5 * time.Second
)

var (
	// DefaultRate is the RUB->USD rate used until a fetch succeeds.
	DefaultRate = decimal.RequireFromString("0.0115")
	rateGain    = decimal.RequireFromString("0.001")
)

type RateSource interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// CBRSource reads the daily RUB rates published by the Central Bank mirror.
type CBRSource struct {
	url    string
	client *http.Client
}

func NewCBRSource(url string) *CBRSource {
	if url == "" {
		url = DefaultRateSourceURL
	}
	return &CBRSource{
		url:    url,
		client: &http.Client{Timeout: rateFetchTimeout},
	}
}

type cbrResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Fetch returns how many USD one RUB buys, less a fixed 0.001 margin.
func (s *CBRSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body cbrResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode: %v", ErrRateUnavailable, err)
	}

	usd, ok := body.Rates["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: USD missing", ErrRateUnavailable)
	}

	rate := usd.Sub(rateGain)
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrRateUnavailable, rate)
	}
	return rate, nil
}
