// Package wallet resolves the active account of the user's wallet provider.
package wallet

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/types"
)

// Provider is the wallet provider boundary.
// RequestAccounts may prompt the user; CurrentAccounts never does.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	CurrentAccounts(ctx context.Context) ([]string, error)
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeAddress lowercases and trims an account address
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ValidAddress reports whether address is a 20-byte hex account after normalization
func ValidAddress(address string) bool {
	return addressPattern.MatchString(NormalizeAddress(address))
}

// Gateway obtains the active account from a Provider.
// A Gateway built with a nil Provider reports ProviderUnavailable on every call.
type Gateway struct {
	provider Provider
	logger   *logger.Logger

	mu        sync.Mutex
	connected bool
}

// NewGateway creates a gateway over provider
func NewGateway(provider Provider, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{provider: provider, logger: log}
}

// Available reports whether a provider is present
func (g *Gateway) Available() bool {
	return g.provider != nil
}

// EnsureConnected returns the primary account, requesting access only when
// no connection has been granted yet or the provider reports no accounts.
func (g *Gateway) EnsureConnected(ctx context.Context) (string, error) {
	if g.provider == nil {
		return "", types.NewAccessError(types.ErrorKindProviderUnavailable, "no wallet provider available")
	}

	g.mu.Lock()
	connected := g.connected
	g.mu.Unlock()

	if connected {
		accounts, err := g.provider.CurrentAccounts(ctx)
		if err == nil && len(accounts) > 0 {
			return NormalizeAddress(accounts[0]), nil
		}
		g.logger.WithComponent("wallet").WithError(err).Debug("Connection lost, requesting account access again")
	}

	accounts, err := g.provider.RequestAccounts(ctx)
	if err != nil {
		g.setConnected(false)
		return "", types.WrapAccessError(types.ErrorKindProviderUnavailable, "wallet account request failed", err).
			WithDetail("user_rejected", IsUserRejected(err))
	}
	if len(accounts) == 0 {
		g.setConnected(false)
		return "", types.NewAccessError(types.ErrorKindProviderUnavailable, "wallet returned no accounts")
	}

	g.setConnected(true)
	return NormalizeAddress(accounts[0]), nil
}

// ActiveAddress returns the current account without prompting, or "" when disconnected
func (g *Gateway) ActiveAddress(ctx context.Context) (string, error) {
	if g.provider == nil {
		return "", types.NewAccessError(types.ErrorKindProviderUnavailable, "no wallet provider available")
	}

	accounts, err := g.provider.CurrentAccounts(ctx)
	if err != nil {
		return "", types.WrapAccessError(types.ErrorKindProviderUnavailable, "failed to read wallet accounts", err)
	}
	if len(accounts) == 0 {
		return "", nil
	}
	return NormalizeAddress(accounts[0]), nil
}

func (g *Gateway) setConnected(v bool) {
	g.mu.Lock()
	g.connected = v
	g.mu.Unlock()
}
