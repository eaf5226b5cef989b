// Package payuri builds wallet-scannable payment URIs and QR codes for the
// supported currency/network pairs.
//
// Native-asset payments use the plain scheme forms (bitcoin:, ethereum:,
// solana:, tron:, xrp:). Token transfers on EVM networks cannot be expressed
// as a value transfer, so they embed the transfer(address,uint256) call data
// for the token contract inside an ethereum: URI instead.
package payuri

import (
	"fmt"
	"math/big"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/brightfund/donation-gateway/pkg/currency"
)

// evmNativeDecimals is the wei scale shared by Ethereum and BNB Smart Chain.
const evmNativeDecimals = 18

// tokenContracts maps EVM token deployments for currencies that settle as
// contract balances. Mainnet deployments.
var tokenContracts = map[currency.Currency]map[currency.Network]string{
	currency.USDT: {
		currency.NetworkERC20: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		currency.NetworkBEP20: "0x55d398326f99059fF775485246999027B3197955",
	},
	currency.USDC: {
		currency.NetworkERC20: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		currency.NetworkBEP20: "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	},
	currency.ETH: {
		// Binance-Peg ETH
		currency.NetworkBEP20: "0x2170Ed0880ac9A755fd29B2688956BD959F933F8",
	},
}

// tokenChainDecimals is the on-chain scale of each token deployment, which
// is not always the currency's canonical precision (USDT/USDC are 6 on
// Ethereum but 18 on BNB Smart Chain).
var tokenChainDecimals = map[currency.Network]map[currency.Currency]int32{
	currency.NetworkERC20: {currency.USDT: 6, currency.USDC: 6},
	currency.NetworkBEP20: {currency.USDT: 18, currency.USDC: 18, currency.ETH: 18},
}

// splTokenMints maps SPL token mints for currencies received on Solana.
var splTokenMints = map[currency.Currency]string{
	currency.USDT: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	currency.USDC: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
}

// TokenDeployment returns the token contract address and on-chain decimals
// for a currency received as an EVM token, or ok=false for native assets.
func TokenDeployment(cur currency.Currency, net currency.Network) (contract string, decimals int32, ok bool) {
	contract, ok = tokenContracts[cur][net]
	if !ok {
		return "", 0, false
	}
	decimals, ok = tokenChainDecimals[net][cur]
	if !ok {
		return "", 0, false
	}
	return contract, decimals, true
}

// Build returns the payment URI for a resolved destination. amount is in
// the currency's own units; memo is the XRP destination tag when present.
func Build(cur currency.Currency, net currency.Network, address string, amount decimal.Decimal, label, memo string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("empty address for %s on %s", cur, net)
	}

	switch net {
	case currency.NetworkBitcoin:
		return nativeURI("bitcoin", address, amount, label), nil

	case currency.NetworkERC20, currency.NetworkBEP20:
		if cur.IsToken(net) {
			return tokenTransferURI(cur, net, address, amount)
		}
		return evmNativeURI(address, amount), nil

	case currency.NetworkSolana:
		return solanaURI(cur, address, amount, label), nil

	case currency.NetworkTRC20:
		return tronURI(cur, address, amount), nil

	case currency.NetworkXRP:
		return xrpURI(address, amount, label, memo), nil
	}
	return "", fmt.Errorf("no URI scheme for network %s", net)
}

// nativeURI covers BIP-21-style schemes: scheme:address?amount=..&label=..
func nativeURI(scheme, address string, amount decimal.Decimal, label string) string {
	q := url.Values{}
	q.Set("amount", amount.String())
	if label != "" {
		q.Set("label", label)
	}
	return fmt.Sprintf("%s:%s?%s", scheme, address, q.Encode())
}

// evmNativeURI emits an EIP-681 value transfer with the amount in wei.
func evmNativeURI(address string, amount decimal.Decimal) string {
	wei := toBaseUnits(amount, evmNativeDecimals)
	return fmt.Sprintf("ethereum:%s?value=%s", address, wei.String())
}

// tokenTransferURI emits an EIP-681 call to the token contract carrying the
// raw transfer(address,uint256) call data. The recipient lives inside the
// call data, not in the URI path.
func tokenTransferURI(cur currency.Currency, net currency.Network, recipient string, amount decimal.Decimal) (string, error) {
	contract, ok := tokenContracts[cur][net]
	if !ok {
		return "", fmt.Errorf("no token contract for %s on %s", cur, net)
	}
	chainDecimals, ok := tokenChainDecimals[net][cur]
	if !ok {
		return "", fmt.Errorf("no chain decimals for %s on %s", cur, net)
	}

	if !common.IsHexAddress(recipient) {
		return "", fmt.Errorf("invalid EVM recipient address %q", recipient)
	}

	data := transferCallData(common.HexToAddress(recipient), toBaseUnits(amount, chainDecimals))
	return fmt.Sprintf("ethereum:%s?data=%s", contract, hexutil.Encode(data)), nil
}

// transferCallData ABI-encodes transfer(address,uint256).
func transferCallData(to common.Address, amount *big.Int) []byte {
	selector := crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// solanaURI follows Solana Pay; SPL tokens carry their mint address.
func solanaURI(cur currency.Currency, address string, amount decimal.Decimal, label string) string {
	q := url.Values{}
	q.Set("amount", amount.String())
	if mint, ok := splTokenMints[cur]; ok && cur != currency.SOL {
		q.Set("spl-token", mint)
	}
	if label != "" {
		q.Set("label", label)
	}
	return fmt.Sprintf("solana:%s?%s", address, q.Encode())
}

func tronURI(cur currency.Currency, address string, amount decimal.Decimal) string {
	q := url.Values{}
	q.Set("amount", amount.String())
	if cur != currency.TRX {
		q.Set("token", string(cur))
	}
	return fmt.Sprintf("tron:%s?%s", address, q.Encode())
}

// xrpURI appends the destination tag; payments without it cannot be routed
// to the organization's account.
func xrpURI(address string, amount decimal.Decimal, label, destinationTag string) string {
	q := url.Values{}
	q.Set("amount", amount.String())
	if destinationTag != "" {
		q.Set("dt", destinationTag)
	}
	if label != "" {
		q.Set("label", label)
	}
	return fmt.Sprintf("xrp:%s?%s", address, q.Encode())
}

// toBaseUnits scales a decimal amount to the chain's integer base units.
func toBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}
