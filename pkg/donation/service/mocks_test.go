package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightfund/donation-gateway/pkg/chainproof"
	"github.com/brightfund/donation-gateway/pkg/currency"
	"github.com/brightfund/donation-gateway/pkg/donation"
	"github.com/brightfund/donation-gateway/pkg/donationstore"
	"github.com/brightfund/donation-gateway/pkg/prices"
	"github.com/brightfund/donation-gateway/pkg/wallets"
)

// mockStore is a func-field mock of donationstore.Store
type mockStore struct {
	CreateFunc       func(ctx context.Context, intent *donation.Intent) error
	GetByIDFunc      func(ctx context.Context, id string) (*donation.Intent, error)
	UpdateStatusFunc func(ctx context.Context, id string, status donation.Status, txHash string) (donation.Status, error)
	UpdateNotesFunc  func(ctx context.Context, id string, fields donationstore.NotesUpdate) error
}

func (m *mockStore) Create(ctx context.Context, intent *donation.Intent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, intent)
	}
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*donation.Intent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, donationstore.ErrNotFound
}

func (m *mockStore) UpdateStatus(ctx context.Context, id string, status donation.Status, txHash string) (donation.Status, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, txHash)
	}
	return donation.StatusPending, nil
}

func (m *mockStore) UpdateNotes(ctx context.Context, id string, fields donationstore.NotesUpdate) error {
	if m.UpdateNotesFunc != nil {
		return m.UpdateNotesFunc(ctx, id, fields)
	}
	return nil
}

// mockVerifier is a func-field mock of chainproof.Verifier
type mockVerifier struct {
	VerifyTransactionFunc func(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*chainproof.Result, error)
}

func (m *mockVerifier) VerifyTransaction(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*chainproof.Result, error) {
	if m.VerifyTransactionFunc != nil {
		return m.VerifyTransactionFunc(ctx, txHash, net, expectedAmount, walletAddress, cur)
	}
	return &chainproof.Result{IsValid: true, Confirmations: 12, Amount: expectedAmount, Timestamp: time.Now().UTC()}, nil
}

// mockPrices is a func-field mock of PriceSource
type mockPrices struct {
	GetPricesFunc func(ctx context.Context) prices.Quotes
}

func (m *mockPrices) GetPrices(ctx context.Context) prices.Quotes {
	if m.GetPricesFunc != nil {
		return m.GetPricesFunc(ctx)
	}
	return prices.Quotes{
		USD: map[currency.Currency]decimal.Decimal{
			currency.BTC:  decimal.NewFromInt(50000),
			currency.ETH:  decimal.NewFromInt(2500),
			currency.USDT: decimal.NewFromInt(1),
			currency.USDC: decimal.NewFromInt(1),
			currency.XRP:  decimal.RequireFromString("0.5"),
			currency.BNB:  decimal.NewFromInt(500),
			currency.SOL:  decimal.NewFromInt(100),
			currency.TRX:  decimal.RequireFromString("0.1"),
		},
	}
}

// mockCrediter is a func-field mock of Crediter
type mockCrediter struct {
	CreditAsyncFunc func(campaignID string, usdAmount decimal.Decimal, donationID string)
}

func (m *mockCrediter) CreditAsync(campaignID string, usdAmount decimal.Decimal, donationID string) {
	if m.CreditAsyncFunc != nil {
		m.CreditAsyncFunc(campaignID, usdAmount, donationID)
	}
}

// testDirectory builds a wallet directory covering the currencies the
// tests exercise.
func testDirectory() *wallets.Directory {
	d, err := wallets.NewDirectory(map[string]string{
		"BTC:bitcoin": "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		"ETH:erc20":   "0x8Ba1f109551bD432803012645Ac136ddd64DBA72",
		"USDT:erc20":  "0x8Ba1f109551bD432803012645Ac136ddd64DBA72",
		"USDT:sol":    "DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK",
		"USDT:trc20":  "TJRyWwFs9wTFGZg3JbrVriFbNfCug5tDeC",
		"XRP:xrp":     "rEb8TK3gBgk5auZkwc6sHnwrGVJH8DuaLh",
		"SOL:sol":     "DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK",
	}, "2042137")
	if err != nil {
		panic(err)
	}
	return d
}
