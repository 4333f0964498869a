package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) config.PricingConfig {
	return config.PricingConfig{
		QuoteURL:     url,
		CacheTTL:     30 * time.Second,
		FetchTimeout: time.Second,
	}
}

func liveFeed(t *testing.T, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Contains(t, r.URL.Query().Get("ids"), "ethereum")
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ethereum": {"usd": 3500.0},
			"binancecoin": {"usd": 600.0},
			"tron": {"usd": 0.15},
			"solana": {"usd": 100.0},
			"tether": {"usd": 1.0}
		}`))
	}))
}

func TestRatesLiveFetch(t *testing.T) {
	var hits int32
	server := liveFeed(t, &hits)
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	rates, source, fetched := svc.Rates(context.Background())

	assert.Equal(t, PriceSourceLive, source)
	assert.Equal(t, 3500.0, rates[models.CurrencyETH])
	assert.Equal(t, 0.15, rates[models.CurrencyTRX])
	assert.False(t, fetched.IsZero())
}

func TestRatesServedFromCache(t *testing.T) {
	var hits int32
	server := liveFeed(t, &hits)
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	svc.Rates(context.Background())
	svc.Rates(context.Background())
	svc.Rates(context.Background())

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestRatesFallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	rates, source, _ := svc.Rates(context.Background())

	assert.Equal(t, PriceSourceFallback, source)
	assert.Equal(t, fallbackRates[models.CurrencyETH], rates[models.CurrencyETH])
	assert.Equal(t, fallbackRates[models.CurrencyUSDT], rates[models.CurrencyUSDT])
}

func TestRatesFallbackOnUnreachableFeed(t *testing.T) {
	svc := NewService(testConfig("http://127.0.0.1:1"))
	rates, source, asOf := svc.Rates(context.Background())

	assert.Equal(t, PriceSourceFallback, source)
	for _, currency := range models.SupportedCurrencies {
		assert.Equal(t, fallbackRates[currency], rates[currency])
	}
	// Even without a live fetch the served-at time is meaningful
	assert.False(t, asOf.IsZero())
}

func TestCalculateTokensFallbackHasLastUpdated(t *testing.T) {
	svc := NewService(testConfig("http://127.0.0.1:1"))

	quote, err := svc.CalculateTokens(context.Background(), models.CurrencyETH, 1)
	require.NoError(t, err)

	assert.Equal(t, PriceSourceFallback, quote.PriceSource)
	assert.False(t, quote.LastUpdated.IsZero())
}

func TestRatesFallbackOnMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	_, source, _ := svc.Rates(context.Background())
	assert.Equal(t, PriceSourceFallback, source)
}

func TestQuoteMissingAssetUsesFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ethereum": {"usd": 3500.0}}`))
	}))
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	rate, err := svc.Quote(context.Background(), models.CurrencySOL)
	require.NoError(t, err)
	assert.Equal(t, fallbackRates[models.CurrencySOL], rate)
}

func TestCalculateTokens(t *testing.T) {
	var hits int32
	server := liveFeed(t, &hits)
	defer server.Close()

	svc := NewService(testConfig(server.URL))
	quote, err := svc.CalculateTokens(context.Background(), models.CurrencyETH, 1)
	require.NoError(t, err)

	assert.Equal(t, 3500.0, quote.UsdtValue)
	assert.Equal(t, 227500.0, quote.TokenAmount) // 3500 / (1/65)
	assert.Equal(t, 3500.0, quote.Rate)
	assert.Equal(t, PriceSourceLive, quote.PriceSource)
	assert.InDelta(t, 1.0/65.0, quote.TokenPrice, 1e-12)
}

func TestCalculateTokensInvalidInput(t *testing.T) {
	svc := NewService(testConfig("http://127.0.0.1:1"))

	_, err := svc.CalculateTokens(context.Background(), models.CurrencyETH, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CalculateTokens(context.Background(), models.CurrencyETH, -5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CalculateTokens(context.Background(), models.Currency("DOGE"), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateTokensStillWorksOnFallback(t *testing.T) {
	svc := NewService(testConfig("http://127.0.0.1:1"))

	quote, err := svc.CalculateTokens(context.Background(), models.CurrencyBNB, 2)
	require.NoError(t, err)

	assert.Equal(t, PriceSourceFallback, quote.PriceSource)
	assert.Equal(t, 1240.0, quote.UsdtValue) // 2 * 620 fallback
	assert.Greater(t, quote.TokenAmount, 0.0)
}
