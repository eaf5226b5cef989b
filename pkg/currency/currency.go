// Package currency defines the closed set of cryptocurrencies the gateway
// accepts, their canonical decimal precision, and the networks each one can
// be received on.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is one of the supported tickers.
type Currency string

const (
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
	USDC Currency = "USDC"
	XRP  Currency = "XRP"
	BNB  Currency = "BNB"
	SOL  Currency = "SOL"
	TRX  Currency = "TRX"
)

// Network identifies a settlement network a currency can be received on.
type Network string

const (
	NetworkBitcoin Network = "bitcoin"
	NetworkERC20   Network = "erc20"
	NetworkBEP20   Network = "bep20"
	NetworkTRC20   Network = "trc20"
	NetworkSolana  Network = "sol"
	NetworkXRP     Network = "xrp"
)

// All lists every supported currency in a stable order.
func All() []Currency {
	return []Currency{BTC, ETH, USDT, USDC, XRP, BNB, SOL, TRX}
}

// Parse validates a ticker string against the supported set.
func Parse(s string) (Currency, error) {
	switch Currency(s) {
	case BTC, ETH, USDT, USDC, XRP, BNB, SOL, TRX:
		return Currency(s), nil
	}
	return "", fmt.Errorf("unsupported currency: %q", s)
}

// Decimals returns the canonical decimal precision for amounts in c.
func (c Currency) Decimals() int32 {
	switch c {
	case BTC, BNB:
		return 8
	case ETH:
		return 18
	case SOL:
		return 9
	case USDT, USDC, XRP, TRX:
		return 6
	}
	return 8
}

// Networks returns the networks c can be received on. The first entry is
// the default when the donor does not choose one.
func (c Currency) Networks() []Network {
	switch c {
	case BTC:
		return []Network{NetworkBitcoin}
	case ETH:
		return []Network{NetworkERC20, NetworkBEP20}
	case USDT, USDC:
		return []Network{NetworkSolana, NetworkERC20, NetworkBEP20, NetworkTRC20}
	case XRP:
		return []Network{NetworkXRP}
	case BNB:
		return []Network{NetworkBEP20}
	case SOL:
		return []Network{NetworkSolana}
	case TRX:
		return []Network{NetworkTRC20}
	}
	return nil
}

// DefaultNetwork returns the network used when the donor leaves it blank.
func (c Currency) DefaultNetwork() Network {
	return c.Networks()[0]
}

// Supports reports whether c can be received on n.
func (c Currency) Supports(n Network) bool {
	for _, s := range c.Networks() {
		if s == n {
			return true
		}
	}
	return false
}

// IsToken reports whether a transfer of c on n moves a token contract
// balance rather than the network's native asset.
func (c Currency) IsToken(n Network) bool {
	switch c {
	case USDT, USDC:
		return true
	case ETH:
		return n == NetworkBEP20
	}
	return false
}

// DisplayName returns a donor-facing network label.
func (n Network) DisplayName() string {
	switch n {
	case NetworkBitcoin:
		return "Bitcoin"
	case NetworkERC20:
		return "Ethereum (ERC-20)"
	case NetworkBEP20:
		return "BNB Smart Chain (BEP-20)"
	case NetworkTRC20:
		return "Tron (TRC-20)"
	case NetworkSolana:
		return "Solana"
	case NetworkXRP:
		return "XRP Ledger"
	}
	return string(n)
}

// RequiredConfirmations returns the confirmation count at which a payment
// on n is treated as final.
func (n Network) RequiredConfirmations() int {
	switch n {
	case NetworkBitcoin:
		return 2
	case NetworkERC20:
		return 12
	case NetworkBEP20:
		return 15
	case NetworkTRC20:
		return 19
	case NetworkSolana:
		return 32
	case NetworkXRP:
		return 1
	}
	return 12
}

// IsEVM reports whether n settles on an EVM chain reachable over JSON-RPC.
func (n Network) IsEVM() bool {
	return n == NetworkERC20 || n == NetworkBEP20
}

// convGuardDigits keeps enough quotient precision that ceiling at the
// currency's own precision never loses value to division truncation.
const convGuardDigits = 6

// ConvertUSD converts a USD target into an amount of c at the given unit
// price, rounded up to c's precision. Rounding up means the organization can
// overcollect by a fraction of the smallest unit but never undercollect.
func ConvertUSD(c Currency, usd, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if !usd.IsPositive() {
		return decimal.Zero, fmt.Errorf("usd amount must be positive, got %s", usd)
	}
	if !unitPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("unit price must be positive, got %s", unitPrice)
	}
	raw := usd.DivRound(unitPrice, c.Decimals()+convGuardDigits)
	return raw.RoundCeil(c.Decimals()), nil
}
