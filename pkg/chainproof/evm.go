package chainproof

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/donation-gateway/pkg/currency"
	"github.com/brightfund/donation-gateway/pkg/payuri"
)

const evmNativeDecimals = 18

// transferTopic is the Transfer(address,address,uint256) event signature.
var transferTopic = common.BytesToHash(crypto.Keccak256([]byte("Transfer(address,address,uint256)")))

// EVMVerifier checks transactions on an EVM chain over JSON-RPC. One
// instance per network (Ethereum, BNB Smart Chain), sharing the same logic
// for native value transfers and ERC-20/BEP-20 token transfers.
type EVMVerifier struct {
	client  *ethclient.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewEVMVerifier connects to the given JSON-RPC endpoint.
func NewEVMVerifier(rpcURL string, opts ...Option) (*EVMVerifier, error) {
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial evm rpc %s: %w", rpcURL, err)
	}

	return &EVMVerifier{
		client:  client,
		timeout: s.Timeout,
		logger:  s.logger,
	}, nil
}

// Close releases the underlying RPC connection.
func (v *EVMVerifier) Close() {
	v.client.Close()
}

func (v *EVMVerifier) VerifyTransaction(ctx context.Context, txHash string, net currency.Network, expectedAmount decimal.Decimal, walletAddress string, cur currency.Currency) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	wallet := common.HexToAddress(walletAddress)

	tx, isPending, err := v.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return rejected(fmt.Sprintf("transaction %s was not found on %s", txHash, net.DisplayName()), 0), nil
		}
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}
	if isPending {
		return rejected("transaction has not been mined yet; submit the hash again once it confirms", 0), nil
	}

	receipt, err := v.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return rejected("transaction reverted on-chain", 0), nil
	}

	head, err := v.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch head block: %w", err)
	}
	confirmations := int(head - receipt.BlockNumber.Uint64() + 1)

	header, err := v.client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch block header: %w", err)
	}

	res := &Result{
		Confirmations: confirmations,
		BlockHeight:   receipt.BlockNumber.Int64(),
		Timestamp:     time.Unix(int64(header.Time), 0).UTC(),
	}

	if contract, chainDecimals, ok := payuri.TokenDeployment(cur, net); ok {
		v.checkTokenTransfer(res, receipt, common.HexToAddress(contract), chainDecimals, wallet, expectedAmount)
	} else {
		v.checkNativeTransfer(ctx, res, tx, receipt, wallet, expectedAmount)
	}
	return res, nil
}

// checkNativeTransfer validates a plain value transfer to the wallet.
func (v *EVMVerifier) checkNativeTransfer(ctx context.Context, res *Result, tx *types.Transaction, receipt *types.Receipt, wallet common.Address, expected decimal.Decimal) {
	if tx.To() == nil || *tx.To() != wallet {
		res.FailureReason = "transaction recipient does not match the donation address"
		if tx.To() != nil {
			res.ToAddress = tx.To().Hex()
		}
		return
	}
	res.ToAddress = tx.To().Hex()

	amount := decimal.NewFromBigInt(tx.Value(), -evmNativeDecimals)
	res.Amount = amount
	if amount.LessThan(expected) {
		res.FailureReason = fmt.Sprintf("transaction amount %s is below the expected %s", amount, expected)
		return
	}

	// Sender lookup is informational; a failure here must not flip the
	// verdict or abort the check.
	if sender, err := v.client.TransactionSender(ctx, tx, receipt.BlockHash, receipt.TransactionIndex); err == nil {
		res.FromAddress = sender.Hex()
	} else {
		v.logger.Debug("Could not recover transaction sender", zap.Error(err))
	}

	res.IsValid = true
}

// checkTokenTransfer validates a token Transfer event from the expected
// contract to the wallet.
func (v *EVMVerifier) checkTokenTransfer(res *Result, receipt *types.Receipt, contract common.Address, chainDecimals int32, wallet common.Address, expected decimal.Decimal) {
	for _, lg := range receipt.Logs {
		if lg.Address != contract || len(lg.Topics) != 3 || lg.Topics[0] != transferTopic {
			continue
		}
		to := common.BytesToAddress(lg.Topics[2].Bytes())
		if to != wallet {
			continue
		}

		amount := decimal.NewFromBigInt(new(big.Int).SetBytes(lg.Data), -chainDecimals)
		res.Amount = amount
		res.ToAddress = to.Hex()
		res.FromAddress = common.BytesToAddress(lg.Topics[1].Bytes()).Hex()

		if amount.LessThan(expected) {
			res.FailureReason = fmt.Sprintf("token transfer amount %s is below the expected %s", amount, expected)
			return
		}
		res.IsValid = true
		return
	}

	res.FailureReason = "transaction contains no token transfer to the donation address"
}
