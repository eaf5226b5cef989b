// Package wallets resolves the organization's receiving address for each
// supported (currency, network) pair from process-wide read-only
// configuration.
package wallets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brightfund/donation-gateway/pkg/currency"
)

var (
	// ErrUnsupportedNetwork is returned when the requested network is not in
	// the currency's supported set. Donor-correctable.
	ErrUnsupportedNetwork = errors.New("unsupported network for currency")

	// ErrNoAddressConfigured is returned when a valid pair has no receiving
	// address configured. Operator error, never donor-correctable.
	ErrNoAddressConfigured = errors.New("no receiving address configured")
)

// Wallet is a resolved receiving destination.
type Wallet struct {
	Currency currency.Currency
	Network  currency.Network
	Address  string

	// Memo carries the XRP destination tag. Empty for every other currency.
	Memo string
}

// Directory is an immutable lookup of receiving addresses, built once at
// startup and shared read-only across requests.
type Directory struct {
	addresses map[string]string
	xrpTag    string
}

// NewDirectory builds a Directory from a (currency, network) -> address map.
// Keys use the "CUR:network" form produced by pairKey. Unknown pairs are
// rejected so a config typo fails at startup rather than at donation time.
func NewDirectory(addresses map[string]string, xrpDestinationTag string) (*Directory, error) {
	d := &Directory{
		addresses: make(map[string]string, len(addresses)),
		xrpTag:    xrpDestinationTag,
	}
	for key, addr := range addresses {
		cur, net, err := splitPairKey(key)
		if err != nil {
			return nil, err
		}
		if !cur.Supports(net) {
			return nil, fmt.Errorf("wallet config: %s cannot be received on %s", cur, net)
		}
		if strings.TrimSpace(addr) == "" {
			return nil, fmt.Errorf("wallet config: empty address for %s", key)
		}
		d.addresses[pairKey(cur, net)] = strings.TrimSpace(addr)
	}
	return d, nil
}

// Resolve maps (currency, network) to a receiving wallet. An empty network
// selects the currency's default. XRP wallets carry the fixed destination
// tag required by the organization's custodial account.
func (d *Directory) Resolve(cur currency.Currency, net currency.Network) (*Wallet, error) {
	if net == "" {
		net = cur.DefaultNetwork()
	}
	if !cur.Supports(net) {
		return nil, fmt.Errorf("%w: %s on %s (supported: %s)",
			ErrUnsupportedNetwork, cur, net, networkList(cur))
	}

	addr, ok := d.addresses[pairKey(cur, net)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoAddressConfigured, cur, net)
	}

	w := &Wallet{
		Currency: cur,
		Network:  net,
		Address:  addr,
	}
	if cur == currency.XRP {
		w.Memo = d.xrpTag
	}
	return w, nil
}

func networkList(cur currency.Currency) string {
	nets := cur.Networks()
	parts := make([]string, len(nets))
	for i, n := range nets {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

func pairKey(cur currency.Currency, net currency.Network) string {
	return string(cur) + ":" + string(net)
}

func splitPairKey(key string) (currency.Currency, currency.Network, error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("wallet config: malformed key %q (want CUR:network)", key)
	}
	cur, err := currency.Parse(strings.ToUpper(parts[0]))
	if err != nil {
		return "", "", fmt.Errorf("wallet config: %w", err)
	}
	return cur, currency.Network(strings.ToLower(parts[1])), nil
}
