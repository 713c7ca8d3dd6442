package wallet

import (
	"context"
	"strings"

	"github.com/medrex/portal-gate/pkg/logger"
)

// AccountsHeader carries the accounts the browser's own wallet provider
// reports (its eth_accounts result), comma separated.
const AccountsHeader = "X-Wallet-Accounts"

// ParseAccounts splits an AccountsHeader value, dropping anything that is not an address
func ParseAccounts(header string) []string {
	var accounts []string
	for _, part := range strings.Split(header, ",") {
		if ValidAddress(part) {
			accounts = append(accounts, NormalizeAddress(part))
		}
	}
	return accounts
}

// BrowserProvider answers from the accounts one browser reported for one request
type BrowserProvider struct {
	accounts []string
}

// NewBrowserProvider creates a provider over reported accounts
func NewBrowserProvider(accounts []string) *BrowserProvider {
	return &BrowserProvider{accounts: append([]string(nil), accounts...)}
}

// RequestAccounts returns the reported accounts; the prompt already happened in the browser
func (p *BrowserProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return p.accounts, nil
}

// CurrentAccounts returns the reported accounts
func (p *BrowserProvider) CurrentAccounts(ctx context.Context) ([]string, error) {
	return p.accounts, nil
}

// BrowserBackend hands out the gateway bound to one browser profile
type BrowserBackend struct {
	logger *logger.Logger
}

// NewBrowserBackend creates a backend
func NewBrowserBackend(log *logger.Logger) *BrowserBackend {
	if log == nil {
		log = logger.Discard()
	}
	return &BrowserBackend{logger: log}
}

// ForProfile returns the gateway for profile's current request.
// A profile that reported no account gets a gateway with no provider.
func (b *BrowserBackend) ForProfile(profile string, reported []string) *Gateway {
	if len(reported) == 0 {
		b.logger.WithComponent("wallet").WithField("profile_id", profile).Debug("No wallet bound to profile")
		return NewGateway(nil, b.logger)
	}
	return NewGateway(NewBrowserProvider(reported), b.logger)
}
