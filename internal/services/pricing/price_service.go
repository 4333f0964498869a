package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/models"
)

// ErrInvalidInput is returned for calculation requests with a non-positive
// amount or an unsupported currency.
var ErrInvalidInput = errors.New("invalid input")

// tokenPrice is the advertised unit price in USDT: 1 USDT buys 65 tokens.
const tokenPrice = 1.0 / 65.0

// PriceSource tells callers whether a quote came from the live feed or the
// static fallback table.
type PriceSource string

const (
	PriceSourceLive     PriceSource = "live"
	PriceSourceFallback PriceSource = "fallback"
)

// fallbackRates are used whenever the live feed is unreachable.
var fallbackRates = map[models.Currency]float64{
	models.CurrencyETH:  2400.00,
	models.CurrencyBNB:  620.00,
	models.CurrencyTRX:  0.12,
	models.CurrencySOL:  180.00,
	models.CurrencyUSDT: 1.00,
}

// coinGeckoIDs maps supported currencies to CoinGecko asset ids.
var coinGeckoIDs = map[models.Currency]string{
	models.CurrencyETH:  "ethereum",
	models.CurrencyBNB:  "binancecoin",
	models.CurrencyTRX:  "tron",
	models.CurrencySOL:  "solana",
	models.CurrencyUSDT: "tether",
}

// Service fetches spot prices for the supported currency set with a short
// in-process cache. It never fails a quote request: on any feed problem the
// static fallback table is served instead.
type Service struct {
	client   *http.Client
	quoteURL string
	cacheTTL time.Duration

	mu        sync.RWMutex
	rates     map[models.Currency]float64
	source    PriceSource
	lastFetch time.Time // last successful live fetch; gates the cache TTL
	asOf      time.Time // when the served table was last decided on
}

// NewService creates a new price feed service. The cache starts pre-populated
// with the fallback rates so a quote is always available.
func NewService(cfg config.PricingConfig) *Service {
	rates := make(map[models.Currency]float64, len(fallbackRates))
	for c, r := range fallbackRates {
		rates[c] = r
	}
	return &Service{
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		quoteURL: cfg.QuoteURL,
		cacheTTL: cfg.CacheTTL,
		rates:    rates,
		source:   PriceSourceFallback,
		asOf:     time.Now().UTC(),
	}
}

// Rates returns the current rate table plus its source and the time the
// table was last decided on (which is never zero, even before the first
// successful fetch). A cache younger than the TTL is served as-is; otherwise
// the full currency set is fetched in one round trip. Fetch failures fall
// back to the static table without surfacing an error.
func (s *Service) Rates(ctx context.Context) (map[models.Currency]float64, PriceSource, time.Time) {
	s.mu.RLock()
	if time.Since(s.lastFetch) < s.cacheTTL && len(s.rates) > 0 {
		rates, source, asOf := copyRates(s.rates), s.source, s.asOf
		s.mu.RUnlock()
		return rates, source, asOf
	}
	s.mu.RUnlock()

	fetched, err := s.fetchLive(ctx)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("price feed unavailable, serving fallback rates: %v", err)
		s.rates = copyRates(fallbackRates)
		s.source = PriceSourceFallback
		s.asOf = now
		// lastFetch is left alone so the next request retries the feed
		return copyRates(s.rates), s.source, s.asOf
	}

	s.rates = fetched
	s.source = PriceSourceLive
	s.lastFetch = now
	s.asOf = now
	return copyRates(s.rates), s.source, s.asOf
}

// Quote returns the USDT spot price for a single currency.
func (s *Service) Quote(ctx context.Context, currency models.Currency) (float64, error) {
	if !models.IsSupportedCurrency(currency) {
		return 0, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, currency)
	}
	rates, _, _ := s.Rates(ctx)
	rate, ok := rates[currency]
	if !ok {
		rate = fallbackRates[currency]
	}
	return rate, nil
}

// TokenQuote is the result of a token amount calculation.
type TokenQuote struct {
	Currency    models.Currency `json:"currency"`
	PayAmount   float64         `json:"payAmount"`
	UsdtValue   float64         `json:"usdtValue"`
	TokenAmount float64         `json:"tokenAmount"`
	TokenPrice  float64         `json:"tokenPrice"`
	Rate        float64         `json:"rate"`
	PriceSource PriceSource     `json:"priceSource"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// CalculateTokens converts a payment into its USDT value and the token amount
// it buys at the advertised unit price.
func (s *Service) CalculateTokens(ctx context.Context, currency models.Currency, payAmount float64) (*TokenQuote, error) {
	if !models.IsSupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, currency)
	}
	if payAmount <= 0 || math.IsNaN(payAmount) || math.IsInf(payAmount, 0) {
		return nil, fmt.Errorf("%w: pay amount must be a positive number", ErrInvalidInput)
	}

	rates, source, fetched := s.Rates(ctx)
	rate, ok := rates[currency]
	if !ok {
		rate = fallbackRates[currency]
	}

	usdtValue := payAmount * rate
	tokenAmount := usdtValue / tokenPrice
	if math.IsNaN(usdtValue) || math.IsNaN(tokenAmount) || math.IsInf(tokenAmount, 0) {
		return nil, fmt.Errorf("%w: calculation did not produce a finite result", ErrInvalidInput)
	}

	return &TokenQuote{
		Currency:    currency,
		PayAmount:   payAmount,
		UsdtValue:   round2(usdtValue),
		TokenAmount: round2(tokenAmount),
		TokenPrice:  tokenPrice,
		Rate:        rate,
		PriceSource: source,
		LastUpdated: fetched,
	}, nil
}

// Warm refreshes the cache if it has gone stale. Called from the scheduler so
// interactive requests rarely pay the fetch latency.
func (s *Service) Warm(ctx context.Context) {
	s.Rates(ctx)
}

// fetchLive fetches the full currency set from the quote service in one
// round trip.
func (s *Service) fetchLive(ctx context.Context) (map[models.Currency]float64, error) {
	ids := make([]string, 0, len(coinGeckoIDs))
	for _, id := range coinGeckoIDs {
		ids = append(ids, id)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.quoteURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status code %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode price feed response: %w", err)
	}

	rates := make(map[models.Currency]float64, len(coinGeckoIDs))
	for currency, id := range coinGeckoIDs {
		if usd, ok := payload[id]["usd"]; ok && usd > 0 {
			rates[currency] = usd
		} else {
			// Missing asset in an otherwise good response: use the fallback
			rates[currency] = fallbackRates[currency]
		}
	}
	return rates, nil
}

func copyRates(in map[models.Currency]float64) map[models.Currency]float64 {
	out := make(map[models.Currency]float64, len(in))
	for c, r := range in {
		out[c] = r
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
