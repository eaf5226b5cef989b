package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/brightfund/donation-gateway/pkg/app/errors"
	"github.com/brightfund/donation-gateway/pkg/chainproof"
	"github.com/brightfund/donation-gateway/pkg/currency"
	"github.com/brightfund/donation-gateway/pkg/donation"
	"github.com/brightfund/donation-gateway/pkg/donationstore"
)

func newTestService(store *mockStore, verifier *mockVerifier, crediter *mockCrediter) Service {
	if store == nil {
		store = &mockStore{}
	}
	if verifier == nil {
		verifier = &mockVerifier{}
	}
	if crediter == nil {
		crediter = &mockCrediter{}
	}
	return NewService(store, verifier, &mockPrices{}, testDirectory(), crediter, zap.NewNop())
}

func pendingIntent(id string) *donation.Intent {
	intent := donation.NewIntent(
		decimal.RequireFromString("50"),
		currency.BTC,
		currency.NetworkBitcoin,
		decimal.RequireFromString("0.001"),
		"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		"",
	)
	intent.ID = id
	return intent
}

func TestCreateIntent_BTC(t *testing.T) {
	var created *donation.Intent
	store := &mockStore{
		CreateFunc: func(_ context.Context, intent *donation.Intent) error {
			created = intent
			return nil
		},
	}
	svc := newTestService(store, nil, nil)

	resp, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 50,
		Currency:  "BTC",
	})
	if err != nil {
		t.Fatalf("CreateIntent() failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.CryptoAmount != "0.001" {
		t.Errorf("expected crypto amount 0.001, got %s", resp.CryptoAmount)
	}
	if resp.Network != "bitcoin" {
		t.Errorf("expected network bitcoin, got %s", resp.Network)
	}
	if resp.WalletAddress != "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh" {
		t.Errorf("unexpected wallet address %s", resp.WalletAddress)
	}
	if resp.RequiredConfirmations != 2 {
		t.Errorf("expected 2 required confirmations, got %d", resp.RequiredConfirmations)
	}
	if !strings.HasPrefix(resp.PaymentURI, "bitcoin:") {
		t.Errorf("expected bitcoin payment uri, got %s", resp.PaymentURI)
	}
	if !strings.HasPrefix(resp.QRCode, "data:image/png;base64,") {
		t.Errorf("expected PNG data url qr code, got prefix %.30s", resp.QRCode)
	}

	if created == nil {
		t.Fatal("intent was not persisted")
	}
	if created.Status != donation.StatusPending {
		t.Errorf("expected persisted status pending, got %s", created.Status)
	}
	if got := time.Until(created.ExpiresAt); got < 23*time.Hour || got > 25*time.Hour {
		t.Errorf("expected ~24h expiry, got %s", got)
	}
}

func TestCreateIntent_UnsupportedNetwork(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 25,
		Currency:  "BTC",
		Network:   "erc20",
	})
	if err == nil {
		t.Fatal("expected error for BTC on erc20")
	}
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Errorf("expected data error category, got %v", err)
	}
	// Error names the allowed set so the donor can correct the request.
	if !strings.Contains(err.Error(), "bitcoin") {
		t.Errorf("expected supported networks in error, got %q", err.Error())
	}
}

func TestCreateIntent_MissingAddressIsServerError(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	// USDC on sol is a valid pair but the test directory has no address.
	_, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 25,
		Currency:  "USDC",
		Network:   "sol",
	})
	if err == nil {
		t.Fatal("expected error for unconfigured wallet")
	}
	if !apperrors.Is(err, apperrors.CategoryGeneralError) {
		t.Errorf("expected general error category, got %v", err)
	}
}

func TestCreateIntent_ValidationDetails(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD:  0,
		Currency:   "",
		DonorEmail: "not-an-email",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if svcErr.Category != apperrors.CategoryDataError {
		t.Errorf("expected data error, got %s", svcErr.Category)
	}
	for _, field := range []string{"AmountUSD", "Currency", "DonorEmail"} {
		if _, ok := svcErr.Details[field]; !ok {
			t.Errorf("expected detail for field %s, got %v", field, svcErr.Details)
		}
	}
}

func TestCreateIntent_XRPDestinationTag(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	resp, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 10,
		Currency:  "XRP",
	})
	if err != nil {
		t.Fatalf("CreateIntent() failed: %v", err)
	}

	if resp.Memo != "2042137" {
		t.Errorf("expected destination tag memo 2042137, got %q", resp.Memo)
	}
	if !strings.Contains(resp.PaymentInstructions, "destination tag 2042137") {
		t.Errorf("expected destination tag callout in instructions: %q", resp.PaymentInstructions)
	}
	if !strings.Contains(resp.PaymentURI, "dt=2042137") {
		t.Errorf("expected dt parameter in payment uri: %q", resp.PaymentURI)
	}
}

func TestCreateIntent_DefaultNetwork(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	resp, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 20,
		Currency:  "USDT",
	})
	if err != nil {
		t.Fatalf("CreateIntent() failed: %v", err)
	}
	if resp.Network != "sol" {
		t.Errorf("expected default network sol for USDT, got %s", resp.Network)
	}
}

func TestCreateIntent_SanitizesDonorInput(t *testing.T) {
	var created *donation.Intent
	store := &mockStore{
		CreateFunc: func(_ context.Context, intent *donation.Intent) error {
			created = intent
			return nil
		},
	}
	svc := newTestService(store, nil, nil)

	_, err := svc.CreateIntent(context.Background(), &donation.CreateRequest{
		AmountUSD: 5,
		Currency:  "BTC",
		DonorName: "  Ada\x00 Lovelace\n ",
		Message:   "keep\tup the good work\x1b",
	})
	if err != nil {
		t.Fatalf("CreateIntent() failed: %v", err)
	}
	if created.DonorName != "Ada Lovelace" {
		t.Errorf("expected sanitized donor name, got %q", created.DonorName)
	}
	if created.Message != "keepup the good work" {
		t.Errorf("expected control characters stripped, got %q", created.Message)
	}
}

func TestGetStatus_NotFound(t *testing.T) {
	svc := newTestService(&mockStore{}, nil, nil)

	_, err := svc.GetStatus(context.Background(), "missing-id")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found category, got %v", err)
	}
}

func TestGetStatus_ReturnsIntentState(t *testing.T) {
	intent := pendingIntent("d-1")
	intent.Status = donation.StatusCompleted
	intent.TxHash = "abc123def456"
	intent.Confirmations = 3
	store := &mockStore{
		GetByIDFunc: func(_ context.Context, id string) (*donation.Intent, error) {
			if id != "d-1" {
				return nil, donationstore.ErrNotFound
			}
			return intent, nil
		},
	}
	svc := newTestService(store, nil, nil)

	resp, err := svc.GetStatus(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("expected status completed, got %s", resp.Status)
	}
	if resp.TxHash != "abc123def456" {
		t.Errorf("unexpected tx hash %s", resp.TxHash)
	}
	if resp.Confirmations != 3 || resp.RequiredConfirmations != 2 {
		t.Errorf("unexpected confirmations %d/%d", resp.Confirmations, resp.RequiredConfirmations)
	}
}

func TestSubmitHash_ValidTransactionCompletesAndCredits(t *testing.T) {
	intent := pendingIntent("d-1")
	intent.CampaignID = "c-9"

	var statuses []donation.Status
	var notes donationstore.NotesUpdate
	store := &mockStore{
		GetByIDFunc: func(_ context.Context, _ string) (*donation.Intent, error) {
			return intent, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ string, status donation.Status, _ string) (donation.Status, error) {
			statuses = append(statuses, status)
			return donation.StatusPending, nil
		},
		UpdateNotesFunc: func(_ context.Context, _ string, fields donationstore.NotesUpdate) error {
			notes = fields
			return nil
		},
	}
	verifier := &mockVerifier{
		VerifyTransactionFunc: func(_ context.Context, _ string, _ currency.Network, expected decimal.Decimal, _ string, _ currency.Currency) (*chainproof.Result, error) {
			return &chainproof.Result{
				IsValid:       true,
				Confirmations: 4,
				Amount:        expected,
				FromAddress:   "bc1qsender",
				BlockHeight:   850001,
				Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	credited := make(chan string, 1)
	crediter := &mockCrediter{
		CreditAsyncFunc: func(campaignID string, usd decimal.Decimal, donationID string) {
			if !usd.Equal(decimal.RequireFromString("50")) {
				t.Errorf("expected 50 USD credit, got %s", usd)
			}
			credited <- campaignID
		},
	}
	svc := newTestService(store, verifier, crediter)

	resp, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "d-1",
		TxHash:     "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16",
	})
	if err != nil {
		t.Fatalf("SubmitHash() failed: %v", err)
	}

	if resp.Status != string(donation.StatusCompleted) {
		t.Errorf("expected completed, got %s", resp.Status)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Confirmations != 4 {
		t.Errorf("expected 4 confirmations, got %d", resp.Confirmations)
	}

	wantStatuses := []donation.Status{donation.StatusPending, donation.StatusCompleted}
	if len(statuses) != 2 || statuses[0] != wantStatuses[0] || statuses[1] != wantStatuses[1] {
		t.Errorf("expected status transitions %v, got %v", wantStatuses, statuses)
	}

	select {
	case campaignID := <-credited:
		if campaignID != "c-9" {
			t.Errorf("expected campaign c-9 credited, got %s", campaignID)
		}
	default:
		t.Error("expected campaign credit")
	}

	if notes.VerifiedAmount == nil || *notes.VerifiedAmount != "0.001" {
		t.Errorf("expected verified amount note 0.001, got %v", notes.VerifiedAmount)
	}
	if notes.BlockHeight == nil || *notes.BlockHeight != 850001 {
		t.Errorf("expected block height note, got %v", notes.BlockHeight)
	}
	if notes.FromAddress == nil || *notes.FromAddress != "bc1qsender" {
		t.Errorf("expected from address note, got %v", notes.FromAddress)
	}
}

func TestSubmitHash_RejectedTransaction(t *testing.T) {
	intent := pendingIntent("d-2")
	var finalStatus donation.Status
	store := &mockStore{
		GetByIDFunc: func(_ context.Context, _ string) (*donation.Intent, error) {
			return intent, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ string, status donation.Status, _ string) (donation.Status, error) {
			finalStatus = status
			return donation.StatusPending, nil
		},
	}
	verifier := &mockVerifier{
		VerifyTransactionFunc: func(_ context.Context, _ string, _ currency.Network, _ decimal.Decimal, _ string, _ currency.Currency) (*chainproof.Result, error) {
			return &chainproof.Result{IsValid: false, FailureReason: "amount 0.0005 BTC is less than expected 0.001 BTC"}, nil
		},
	}
	credits := 0
	crediter := &mockCrediter{CreditAsyncFunc: func(string, decimal.Decimal, string) { credits++ }}
	svc := newTestService(store, verifier, crediter)

	resp, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "d-2",
		TxHash:     "deadbeefdeadbeef",
	})
	if err != nil {
		t.Fatalf("SubmitHash() should not error for rejected transactions: %v", err)
	}

	if resp.Status != string(donation.StatusVerificationFailed) {
		t.Errorf("expected verification_failed, got %s", resp.Status)
	}
	if resp.Success {
		t.Error("expected success=false for rejection")
	}
	if resp.FailureReason == "" {
		t.Error("expected failure reason")
	}
	if finalStatus != donation.StatusVerificationFailed {
		t.Errorf("expected stored status verification_failed, got %s", finalStatus)
	}
	if credits != 0 {
		t.Errorf("rejected transaction must not credit campaign, got %d credits", credits)
	}
}

func TestSubmitHash_VerifierOutageQueuesManualReview(t *testing.T) {
	intent := pendingIntent("d-3")
	var finalStatus donation.Status
	var reason *string
	store := &mockStore{
		GetByIDFunc: func(_ context.Context, _ string) (*donation.Intent, error) {
			return intent, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ string, status donation.Status, _ string) (donation.Status, error) {
			finalStatus = status
			return donation.StatusPending, nil
		},
		UpdateNotesFunc: func(_ context.Context, _ string, fields donationstore.NotesUpdate) error {
			reason = fields.FailureReason
			return nil
		},
	}
	verifier := &mockVerifier{
		VerifyTransactionFunc: func(_ context.Context, _ string, _ currency.Network, _ decimal.Decimal, _ string, _ currency.Currency) (*chainproof.Result, error) {
			return nil, errors.New("rpc node unreachable")
		},
	}
	svc := newTestService(store, verifier, nil)

	resp, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "d-3",
		TxHash:     "deadbeefdeadbeef",
	})
	if err != nil {
		t.Fatalf("verifier outage must not surface as a request error: %v", err)
	}

	if resp.Status != string(donation.StatusManualReview) {
		t.Errorf("expected pending_manual_verification, got %s", resp.Status)
	}
	if !resp.Success {
		t.Error("expected success=true for manual review queueing")
	}
	if finalStatus != donation.StatusManualReview {
		t.Errorf("expected stored status pending_manual_verification, got %s", finalStatus)
	}
	if reason == nil || !strings.Contains(*reason, "rpc node unreachable") {
		t.Errorf("expected outage recorded in notes, got %v", reason)
	}
}

func TestSubmitHash_CompletedIntentIsIdempotent(t *testing.T) {
	intent := pendingIntent("d-4")
	intent.Status = donation.StatusCompleted
	intent.TxHash = "f4184fc596403b9d"
	intent.Confirmations = 6
	intent.CampaignID = "c-9"

	verifierCalls := 0
	credits := 0
	store := &mockStore{
		GetByIDFunc: func(_ context.Context, _ string) (*donation.Intent, error) {
			return intent, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ string, _ donation.Status, _ string) (donation.Status, error) {
			t.Error("completed intent must not be rewritten")
			return donation.StatusCompleted, nil
		},
	}
	verifier := &mockVerifier{
		VerifyTransactionFunc: func(_ context.Context, _ string, _ currency.Network, _ decimal.Decimal, _ string, _ currency.Currency) (*chainproof.Result, error) {
			verifierCalls++
			return &chainproof.Result{IsValid: true}, nil
		},
	}
	crediter := &mockCrediter{CreditAsyncFunc: func(string, decimal.Decimal, string) { credits++ }}
	svc := newTestService(store, verifier, crediter)

	resp, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "d-4",
		TxHash:     "f4184fc596403b9d",
	})
	if err != nil {
		t.Fatalf("SubmitHash() failed: %v", err)
	}

	if resp.Status != string(donation.StatusCompleted) {
		t.Errorf("expected completed, got %s", resp.Status)
	}
	if verifierCalls != 0 {
		t.Errorf("expected no re-verification, got %d calls", verifierCalls)
	}
	if credits != 0 {
		t.Errorf("expected no re-credit, got %d", credits)
	}
}

func TestSubmitHash_NoDoubleCreditOnConcurrentCompletion(t *testing.T) {
	intent := pendingIntent("d-5")
	intent.CampaignID = "c-1"

	store := &mockStore{
		GetByIDFunc: func(_ context.Context, _ string) (*donation.Intent, error) {
			return intent, nil
		},
		UpdateStatusFunc: func(_ context.Context, _ string, status donation.Status, _ string) (donation.Status, error) {
			// Another request already completed the row.
			if status == donation.StatusCompleted {
				return donation.StatusCompleted, nil
			}
			return donation.StatusPending, nil
		},
	}
	credits := 0
	crediter := &mockCrediter{CreditAsyncFunc: func(string, decimal.Decimal, string) { credits++ }}
	svc := newTestService(store, &mockVerifier{}, crediter)

	resp, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "d-5",
		TxHash:     "f4184fc596403b9d",
	})
	if err != nil {
		t.Fatalf("SubmitHash() failed: %v", err)
	}
	if resp.Status != string(donation.StatusCompleted) {
		t.Errorf("expected completed, got %s", resp.Status)
	}
	if credits != 0 {
		t.Errorf("expected no credit when row was already completed, got %d", credits)
	}
}

func TestSubmitHash_NotFound(t *testing.T) {
	svc := newTestService(&mockStore{}, nil, nil)

	_, err := svc.SubmitHash(context.Background(), &donation.SubmitRequest{
		DonationID: "missing",
		TxHash:     "deadbeefdeadbeef",
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected not found category, got %v", err)
	}
}
