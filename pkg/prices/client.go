// Package prices fetches USD spot prices for the supported currencies from
// a market-data API, degrading to a fixed reference table when the feed is
// unreachable. Callers always get a usable price set; staleness is the
// accepted failure mode, unavailability is not.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/internal/metrics"
	"github.com/brightfund/donation-gateway/pkg/currency"
)

// fallbackPrices is the reference table used when the feed fails. Values
// only need to be the right order of magnitude; the donor sees the real
// converted amount in their own wallet before sending.
var fallbackPrices = map[currency.Currency]decimal.Decimal{
	currency.BTC:  decimal.NewFromInt(65000),
	currency.ETH:  decimal.NewFromInt(3000),
	currency.USDT: decimal.NewFromInt(1),
	currency.USDC: decimal.NewFromInt(1),
	currency.XRP:  decimal.RequireFromString("0.5"),
	currency.BNB:  decimal.NewFromInt(550),
	currency.SOL:  decimal.NewFromInt(150),
	currency.TRX:  decimal.RequireFromString("0.12"),
}

// Quotes is one price snapshot. Fallback marks reference prices served
// because the feed call failed.
type Quotes struct {
	USD      map[currency.Currency]decimal.Decimal
	Fallback bool
}

// Client queries a CryptoCompare-style pricemulti endpoint
// (?fsyms=BTC,ETH&tsyms=USD).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a price feed client. The zero options give a 10 second
// request timeout.
func New(baseURL string, opts ...Option) (*Client, error) {
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     s.logger,
	}, nil
}

// GetPrices returns a USD price for every supported currency. It never
// fails: any feed error is logged, counted, and answered with the fallback
// table. No caching; every donation intent fetches fresh.
func (c *Client) GetPrices(ctx context.Context) Quotes {
	quotes, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("Price feed unavailable, serving fallback prices", zap.Error(err))
		metrics.PriceFeedFallbacks.Inc()
		usd := make(map[currency.Currency]decimal.Decimal, len(fallbackPrices))
		for cur, p := range fallbackPrices {
			usd[cur] = p
		}
		return Quotes{USD: usd, Fallback: true}
	}
	return Quotes{USD: quotes}
}

func (c *Client) fetch(ctx context.Context) (map[currency.Currency]decimal.Decimal, error) {
	symbols := make([]string, 0, len(currency.All()))
	for _, cur := range currency.All() {
		symbols = append(symbols, string(cur))
	}

	q := url.Values{}
	q.Set("fsyms", strings.Join(symbols, ","))
	q.Set("tsyms", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD decimal.Decimal `json:"USD"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode price feed response: %w", err)
	}

	out := make(map[currency.Currency]decimal.Decimal, len(symbols))
	for _, cur := range currency.All() {
		entry, ok := body[string(cur)]
		if !ok || !entry.USD.IsPositive() {
			return nil, fmt.Errorf("price feed response missing usable price for %s", cur)
		}
		out[cur] = entry.USD
	}
	return out, nil
}
