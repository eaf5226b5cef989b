package chainproof

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/pkg/currency"
)

// ExplorerVerifier checks transactions on non-EVM networks through a
// chain-explorer REST gateway (one base URL per network).
type ExplorerVerifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// explorerTx is the gateway's transaction lookup response.
type explorerTx struct {
	Found         bool            `json:"found"`
	Success       bool            `json:"success"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Amount        decimal.Decimal `json:"amount"`
	Asset         string          `json:"asset"`
	Confirmations int             `json:"confirmations"`
	BlockHeight   int64           `json:"blockHeight"`
	Timestamp     int64           `json:"timestamp"`
}

// NewExplorerVerifier creates a verifier against the given explorer
// gateway base URL.
func NewExplorerVerifier(baseURL string, opts ...Option) (*ExplorerVerifier, error) {
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: s.Timeout}
	}
	return &ExplorerVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     s.logger,
	}, nil
}

func (v *ExplorerVerifier) VerifyTransaction(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*Result, error) {
	tx, err := v.lookup(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if !tx.Found {
		return rejected(fmt.Sprintf("transaction %s was not found on %s", txHash, net.DisplayName()), 0), nil
	}

	res := &Result{
		Confirmations: tx.Confirmations,
		Amount:        tx.Amount,
		FromAddress:   tx.From,
		ToAddress:     tx.To,
		BlockHeight:   tx.BlockHeight,
	}
	if tx.Timestamp > 0 {
		res.Timestamp = time.Unix(tx.Timestamp, 0).UTC()
	}

	switch {
	case !tx.Success:
		res.FailureReason = "transaction failed on-chain"
	case !strings.EqualFold(tx.To, walletAddress):
		res.FailureReason = "transaction recipient does not match the donation address"
	case tx.Asset != "" && !strings.EqualFold(tx.Asset, string(cur)):
		res.FailureReason = fmt.Sprintf("transaction moved %s, expected %s", tx.Asset, cur)
	case tx.Amount.LessThan(expectedAmount):
		res.FailureReason = fmt.Sprintf("transaction amount %s is below the expected %s", tx.Amount, expectedAmount)
	default:
		res.IsValid = true
	}
	return res, nil
}

func (v *ExplorerVerifier) lookup(ctx context.Context, txHash string) (*explorerTx, error) {
	url := fmt.Sprintf("%s/tx/%s", v.baseURL, txHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build explorer request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// A 404 is a definite answer about the hash, not an outage.
	if resp.StatusCode == http.StatusNotFound {
		return &explorerTx{Found: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	var tx explorerTx
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("decode explorer response: %w", err)
	}
	v.logger.Debug("Explorer lookup",
		zap.String("tx_hash", txHash),
		zap.Bool("found", tx.Found),
		zap.Int("confirmations", tx.Confirmations),
	)
	return &tx, nil
}
