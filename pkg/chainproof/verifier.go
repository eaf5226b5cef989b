// Package chainproof confirms that a submitted transaction hash actually
// paid the expected amount to the organization's wallet.
//
// The error contract matters more than the transport: a returned error
// means "we could not check" and routes the donation to manual review; a
// Result with IsValid=false means "we checked and it does not match" and
// carries the reason shown to the donor. Implementations must never blur
// the two.
package chainproof

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightfund/donation-gateway/pkg/currency"
)

// Result is the outcome of a completed on-chain check.
type Result struct {
	IsValid       bool
	Confirmations int
	Amount        decimal.Decimal
	FromAddress   string
	ToAddress     string
	BlockHeight   int64
	Timestamp     time.Time

	// FailureReason explains IsValid=false in donor-facing terms.
	FailureReason string
}

// Verifier checks one transaction hash against the expected payment.
type Verifier interface {
	VerifyTransaction(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*Result, error)
}

// Router dispatches verification to the client registered for the
// transaction's network.
type Router struct {
	byNetwork map[currency.Network]Verifier
}

// NewRouter builds a network-keyed verifier dispatch table.
func NewRouter(byNetwork map[currency.Network]Verifier) *Router {
	return &Router{byNetwork: byNetwork}
}

func (r *Router) VerifyTransaction(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*Result, error) {
	v, ok := r.byNetwork[net]
	if !ok {
		return nil, fmt.Errorf("no verifier configured for network %s", net)
	}
	return v.VerifyTransaction(ctx, txHash, net, expectedAmount, walletAddress, cur)
}

// rejected builds a checked-and-rejected result.
func rejected(reason string, confirmations int) *Result {
	return &Result{
		IsValid:       false,
		Confirmations: confirmations,
		FailureReason: reason,
	}
}
