// Package donation holds the domain model for cryptocurrency donation
// intents and their verification lifecycle.
package donation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightfund/donation-gateway/pkg/currency"
)

// Status is the lifecycle state of a donation intent.
type Status string

const (
	// StatusPending covers both freshly created intents and intents whose
	// hash was submitted but not yet verified.
	StatusPending Status = "pending"

	// StatusCompleted means the transaction was verified on-chain. Terminal.
	StatusCompleted Status = "completed"

	// StatusVerificationFailed means the chain was checked and the
	// transaction did not match (wrong amount, wrong recipient). The donor
	// may resubmit a corrected hash.
	StatusVerificationFailed Status = "verification_failed"

	// StatusManualReview means the verifier itself failed, so the
	// transaction could not be checked. A human must review; automated
	// resubmission is still accepted in case the upstream recovers.
	StatusManualReview Status = "pending_manual_verification"
)

// ExpiryWindow is how long a created intent stays payable.
const ExpiryWindow = 24 * time.Hour

// Intent represents one requested cryptocurrency contribution.
type Intent struct {
	ID           string
	USDAmount    decimal.Decimal
	Currency     currency.Currency
	Network      currency.Network
	CryptoAmount decimal.Decimal

	WalletAddress string
	// Memo is the XRP destination tag; empty for other currencies.
	Memo string

	DonorName  string
	DonorEmail string
	Message    string

	Source     string
	Category   string
	CampaignID string

	Status        Status
	TxHash        string
	Confirmations int
	ConfirmedAt   *time.Time
	ExpiresAt     time.Time

	Notes Notes

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notes records verification metadata on the donation row for the
// back-office: what the chain actually showed, or why checking failed.
type Notes struct {
	VerifiedAmount string
	FromAddress    string
	BlockHeight    int64
	FailureReason  string
}

// NewIntent creates a pending intent with a fresh id and a 24 hour expiry.
func NewIntent(usd decimal.Decimal, cur currency.Currency, net currency.Network, cryptoAmount decimal.Decimal, walletAddress, memo string) *Intent {
	now := time.Now().UTC()
	return &Intent{
		ID:            uuid.NewString(),
		USDAmount:     usd,
		Currency:      cur,
		Network:       net,
		CryptoAmount:  cryptoAmount,
		WalletAddress: walletAddress,
		Memo:          memo,
		Status:        StatusPending,
		ExpiresAt:     now.Add(ExpiryWindow),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RequiredConfirmations returns the finality threshold for this intent's
// network.
func (i *Intent) RequiredConfirmations() int {
	return i.Network.RequiredConfirmations()
}

// Expired reports whether the payment window has closed.
func (i *Intent) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
