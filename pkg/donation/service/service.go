// Package service orchestrates the donation lifecycle: quoting, intent
// creation, status lookup, and on-chain verification of submitted hashes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/internal/metrics"
	apperrors "github.com/brightfund/donation-gateway/pkg/app/errors"
	"github.com/brightfund/donation-gateway/pkg/chainproof"
	"github.com/brightfund/donation-gateway/pkg/currency"
	"github.com/brightfund/donation-gateway/pkg/donation"
	"github.com/brightfund/donation-gateway/pkg/donationstore"
	"github.com/brightfund/donation-gateway/pkg/payuri"
	"github.com/brightfund/donation-gateway/pkg/prices"
	"github.com/brightfund/donation-gateway/pkg/wallets"
)

// PriceSource supplies a USD price snapshot for the supported currencies.
type PriceSource interface {
	GetPrices(ctx context.Context) prices.Quotes
}

// WalletResolver maps a (currency, network) pair to a receiving wallet.
type WalletResolver interface {
	Resolve(cur currency.Currency, net currency.Network) (*wallets.Wallet, error)
}

// Crediter applies a completed donation to its campaign in the background.
type Crediter interface {
	CreditAsync(campaignID string, usdAmount decimal.Decimal, donationID string)
}

// Service defines the donation business logic.
type Service interface {
	CreateIntent(ctx context.Context, req *donation.CreateRequest) (*donation.CreateResponse, error)
	GetStatus(ctx context.Context, donationID string) (*donation.StatusResponse, error)
	SubmitHash(ctx context.Context, req *donation.SubmitRequest) (*donation.SubmitResponse, error)
}

type donationService struct {
	store    donationstore.Store
	verifier chainproof.Verifier
	prices   PriceSource
	wallets  WalletResolver
	crediter Crediter
	logger   *zap.Logger
	validate *validator.Validate
}

// NewService creates a new donation service
func NewService(
	store donationstore.Store,
	verifier chainproof.Verifier,
	priceSource PriceSource,
	walletResolver WalletResolver,
	crediter Crediter,
	logger *zap.Logger,
) Service {
	return &donationService{
		store:    store,
		verifier: verifier,
		prices:   priceSource,
		wallets:  walletResolver,
		crediter: crediter,
		logger:   logger,
		validate: validator.New(),
	}
}

// CreateIntent quotes the USD amount into crypto, resolves the receiving
// wallet, persists a pending intent, and returns payment instructions.
func (s *donationService) CreateIntent(ctx context.Context, req *donation.CreateRequest) (*donation.CreateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.ValidationError(err, "validation failed", validationDetails(err))
	}

	cur, err := currency.Parse(req.Currency)
	if err != nil {
		return nil, apperrors.BadRequestError(err, fmt.Sprintf("unsupported currency %q", req.Currency))
	}

	net := currency.Network(strings.ToLower(strings.TrimSpace(req.Network)))
	wallet, err := s.wallets.Resolve(cur, net)
	if err != nil {
		if errors.Is(err, wallets.ErrUnsupportedNetwork) {
			return nil, apperrors.BadRequestError(err, err.Error())
		}
		// Valid pair with no address is an operator problem, not the donor's.
		return nil, apperrors.GeneralError(err)
	}

	usd := decimal.NewFromFloat(req.AmountUSD).Round(2)

	quotes := s.prices.GetPrices(ctx)
	price, ok := quotes.USD[cur]
	if !ok {
		return nil, apperrors.GeneralError(fmt.Errorf("no price available for %s", cur))
	}

	cryptoAmount, err := currency.ConvertUSD(cur, usd, price)
	if err != nil {
		return nil, apperrors.BadRequestError(err, err.Error())
	}

	intent := donation.NewIntent(usd, cur, wallet.Network, cryptoAmount, wallet.Address, wallet.Memo)
	intent.DonorName = sanitize(req.DonorName)
	intent.DonorEmail = strings.TrimSpace(req.DonorEmail)
	intent.Message = sanitize(req.Message)
	intent.Source = sanitize(req.Source)
	intent.Category = sanitize(req.Category)
	intent.CampaignID = strings.TrimSpace(req.CampaignID)

	if err := s.store.Create(ctx, intent); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to persist donation intent: %w", err))
	}

	metrics.DonationsCreated.WithLabelValues(string(cur), string(wallet.Network)).Inc()
	usdFloat, _ := usd.Float64()
	metrics.DonationUSDAmount.WithLabelValues(string(cur)).Observe(usdFloat)

	uri, err := payuri.Build(cur, wallet.Network, wallet.Address, cryptoAmount, "Donation", wallet.Memo)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to build payment uri: %w", err))
	}
	qr, err := payuri.QRCodeDataURL(uri)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to render qr code: %w", err))
	}

	s.logger.Info("Donation intent created",
		zap.String("donation_id", intent.ID),
		zap.String("currency", string(cur)),
		zap.String("network", string(wallet.Network)),
		zap.String("usd_amount", usd.String()),
		zap.String("crypto_amount", cryptoAmount.String()),
		zap.Bool("fallback_price", quotes.Fallback),
	)

	return &donation.CreateResponse{
		Success:               true,
		DonationID:            intent.ID,
		WalletAddress:         wallet.Address,
		Memo:                  wallet.Memo,
		CryptoAmount:          cryptoAmount.String(),
		Currency:              string(cur),
		Network:               string(wallet.Network),
		USDAmount:             usd.StringFixed(2),
		PaymentURI:            uri,
		QRCode:                qr,
		RequiredConfirmations: intent.RequiredConfirmations(),
		ExpiresAt:             intent.ExpiresAt,
		PaymentInstructions:   paymentInstructions(intent),
	}, nil
}

// GetStatus returns the current state of a donation intent. Read-only.
func (s *donationService) GetStatus(ctx context.Context, donationID string) (*donation.StatusResponse, error) {
	intent, err := s.store.GetByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, donationstore.ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "donation not found")
		}
		return nil, apperrors.GeneralError(err)
	}

	return &donation.StatusResponse{
		DonationID:            intent.ID,
		Status:                string(intent.Status),
		Currency:              string(intent.Currency),
		Network:               string(intent.Network),
		USDAmount:             intent.USDAmount.StringFixed(2),
		CryptoAmount:          intent.CryptoAmount.String(),
		Confirmations:         intent.Confirmations,
		RequiredConfirmations: intent.RequiredConfirmations(),
		TxHash:                intent.TxHash,
		ConfirmedAt:           intent.ConfirmedAt,
		ExpiresAt:             intent.ExpiresAt,
	}, nil
}

// SubmitHash records the donor's transaction hash and verifies it on-chain.
//
// Three outcomes, all HTTP 200: the chain confirms the payment (completed),
// the chain contradicts it (verification_failed, donor may retry with a
// corrected hash), or the chain could not be consulted
// (pending_manual_verification, a human follows up).
func (s *donationService) SubmitHash(ctx context.Context, req *donation.SubmitRequest) (*donation.SubmitResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.ValidationError(err, "validation failed", validationDetails(err))
	}

	intent, err := s.store.GetByID(ctx, req.DonationID)
	if err != nil {
		if errors.Is(err, donationstore.ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "donation not found")
		}
		return nil, apperrors.GeneralError(err)
	}

	// Resubmitting a hash for an already verified donation is a no-op so
	// retried requests cannot double-credit the campaign.
	if intent.Status == donation.StatusCompleted {
		return &donation.SubmitResponse{
			Success:               true,
			DonationID:            intent.ID,
			Status:                string(donation.StatusCompleted),
			TxHash:                intent.TxHash,
			Confirmations:         intent.Confirmations,
			RequiredConfirmations: intent.RequiredConfirmations(),
			Message:               "donation already verified",
		}, nil
	}

	txHash := strings.TrimSpace(req.TxHash)
	if _, err := s.store.UpdateStatus(ctx, intent.ID, donation.StatusPending, txHash); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to record transaction hash: %w", err))
	}

	start := time.Now()
	result, verifyErr := s.verifier.VerifyTransaction(ctx, txHash, intent.Network, intent.CryptoAmount, intent.WalletAddress, intent.Currency)
	metrics.VerificationDuration.WithLabelValues(string(intent.Network)).Observe(time.Since(start).Seconds())

	if verifyErr != nil {
		return s.queueManualReview(ctx, intent, txHash, verifyErr)
	}
	if !result.IsValid {
		return s.rejectSubmission(ctx, intent, txHash, result)
	}
	return s.completeDonation(ctx, intent, txHash, result)
}

// queueManualReview handles "could not check": the verifier itself failed,
// so the donation is parked for a human instead of being rejected.
func (s *donationService) queueManualReview(ctx context.Context, intent *donation.Intent, txHash string, verifyErr error) (*donation.SubmitResponse, error) {
	metrics.VerificationsTotal.WithLabelValues(string(intent.Network), metrics.OutcomeManualReview).Inc()
	s.logger.Warn("Verification unavailable, queueing for manual review",
		zap.String("donation_id", intent.ID),
		zap.String("tx_hash", txHash),
		zap.Error(verifyErr),
	)

	if _, err := s.store.UpdateStatus(ctx, intent.ID, donation.StatusManualReview, txHash); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	reason := "automatic verification unavailable: " + verifyErr.Error()
	if err := s.store.UpdateNotes(ctx, intent.ID, donationstore.NotesUpdate{FailureReason: &reason}); err != nil {
		s.logger.Error("Failed to record manual review reason", zap.String("donation_id", intent.ID), zap.Error(err))
	}

	return &donation.SubmitResponse{
		Success:               true,
		DonationID:            intent.ID,
		Status:                string(donation.StatusManualReview),
		TxHash:                txHash,
		RequiredConfirmations: intent.RequiredConfirmations(),
		Message:               "transaction could not be verified automatically and has been queued for manual review",
	}, nil
}

// rejectSubmission handles "checked and it does not match".
func (s *donationService) rejectSubmission(ctx context.Context, intent *donation.Intent, txHash string, result *chainproof.Result) (*donation.SubmitResponse, error) {
	metrics.VerificationsTotal.WithLabelValues(string(intent.Network), metrics.OutcomeFailed).Inc()
	s.logger.Info("Verification rejected transaction",
		zap.String("donation_id", intent.ID),
		zap.String("tx_hash", txHash),
		zap.String("reason", result.FailureReason),
	)

	if _, err := s.store.UpdateStatus(ctx, intent.ID, donation.StatusVerificationFailed, txHash); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	update := donationstore.NotesUpdate{
		Confirmations: &result.Confirmations,
		FailureReason: &result.FailureReason,
	}
	if err := s.store.UpdateNotes(ctx, intent.ID, update); err != nil {
		s.logger.Error("Failed to record rejection details", zap.String("donation_id", intent.ID), zap.Error(err))
	}

	return &donation.SubmitResponse{
		Success:               false,
		DonationID:            intent.ID,
		Status:                string(donation.StatusVerificationFailed),
		TxHash:                txHash,
		Confirmations:         result.Confirmations,
		RequiredConfirmations: intent.RequiredConfirmations(),
		FailureReason:         result.FailureReason,
		Message:               "transaction did not match the expected payment",
	}, nil
}

// completeDonation marks the intent verified and credits the campaign once.
func (s *donationService) completeDonation(ctx context.Context, intent *donation.Intent, txHash string, result *chainproof.Result) (*donation.SubmitResponse, error) {
	metrics.VerificationsTotal.WithLabelValues(string(intent.Network), metrics.OutcomeCompleted).Inc()

	prev, err := s.store.UpdateStatus(ctx, intent.ID, donation.StatusCompleted, txHash)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	confirmedAt := result.Timestamp
	if confirmedAt.IsZero() {
		confirmedAt = time.Now().UTC()
	}
	verifiedAmount := result.Amount.String()
	update := donationstore.NotesUpdate{
		Confirmations:  &result.Confirmations,
		ConfirmedAt:    &confirmedAt,
		VerifiedAmount: &verifiedAmount,
		BlockHeight:    &result.BlockHeight,
	}
	if result.FromAddress != "" {
		update.FromAddress = &result.FromAddress
	}
	if err := s.store.UpdateNotes(ctx, intent.ID, update); err != nil {
		s.logger.Error("Failed to record verification details", zap.String("donation_id", intent.ID), zap.Error(err))
	}

	// Credit only on the transition into completed; a concurrent duplicate
	// submission observes prev=completed and skips.
	if prev != donation.StatusCompleted && intent.CampaignID != "" {
		s.crediter.CreditAsync(intent.CampaignID, intent.USDAmount, intent.ID)
	}

	s.logger.Info("Donation verified",
		zap.String("donation_id", intent.ID),
		zap.String("tx_hash", txHash),
		zap.Int("confirmations", result.Confirmations),
		zap.String("verified_amount", verifiedAmount),
	)

	return &donation.SubmitResponse{
		Success:               true,
		DonationID:            intent.ID,
		Status:                string(donation.StatusCompleted),
		TxHash:                txHash,
		Confirmations:         result.Confirmations,
		RequiredConfirmations: intent.RequiredConfirmations(),
		Message:               "donation verified, thank you",
	}, nil
}

// paymentInstructions renders the donor-facing how-to-pay text.
func paymentInstructions(intent *donation.Intent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Send exactly %s %s to %s on %s.",
		intent.CryptoAmount.String(), intent.Currency, intent.WalletAddress, intent.Network.DisplayName())
	if intent.Memo != "" {
		fmt.Fprintf(&b, " Include destination tag %s or the deposit cannot be credited.", intent.Memo)
	}
	confirmations := intent.RequiredConfirmations()
	noun := "confirmations"
	if confirmations == 1 {
		noun = "confirmation"
	}
	fmt.Fprintf(&b, " The donation completes after %d network %s.", confirmations, noun)
	fmt.Fprintf(&b, " This address is valid until %s.", intent.ExpiresAt.UTC().Format(time.RFC3339))
	return b.String()
}

// validationDetails flattens validator errors into a field -> constraint map
// for the HTTP error body.
func validationDetails(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fmt.Sprintf("failed %q constraint", fe.Tag())
	}
	return details
}

// sanitize strips control characters and trims free-text donor input before
// it is persisted or echoed back.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
