// Package access decides whether the current session may open a role page.
//
// A validation moves through four states and stops at the first failure:
//
//	Unvalidated -> SessionChecked -> AddressReconciled -> RoleConfirmed
//
// Any failed step yields Rejected(reason), which is terminal.
package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/medrex/portal-gate/internal/page"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// User-facing notices
const (
	NoticeNoSession           = "Unauthorized access. Please log in."
	NoticeRoleMismatch        = "Unauthorized role. Access denied."
	NoticeAddressMismatch     = "Wallet address mismatch. Please log in with the correct account."
	NoticeProviderUnavailable = "Failed to connect to wallet. Please connect your wallet and log in."
)

// Wallet resolves the connected account
type Wallet interface {
	EnsureConnected(ctx context.Context) (string, error)
}

// Oracle answers role membership questions
type Oracle interface {
	RoleRecordFor(ctx context.Context, address string, role types.Role) (types.RoleRecord, error)
	IsAdmin(ctx context.Context, address string) (bool, error)
}

// Options configures a Controller
type Options struct {
	Sessions  session.Store
	Wallet    Wallet
	Oracle    Oracle
	Presenter page.Presenter
	EntryPage string
	Logger    *logger.Logger
	Metrics   *monitoring.Collector
}

// Controller validates one browser profile's session against wallet and ledger state.
// It keeps no state between calls.
type Controller struct {
	sessions  session.Store
	wallet    Wallet
	oracle    Oracle
	presenter page.Presenter
	entryPage string
	logger    *logger.Logger
	metrics   *monitoring.Collector
}

// NewController creates a controller from opts
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.EntryPage == "" {
		opts.EntryPage = "/"
	}
	return &Controller{
		sessions:  opts.Sessions,
		wallet:    opts.Wallet,
		oracle:    opts.Oracle,
		presenter: opts.Presenter,
		entryPage: opts.EntryPage,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Validate runs the state machine for expected and returns its result.
// The only side effect is clearing the session on an address mismatch.
func (c *Controller) Validate(ctx context.Context, expected types.Role) types.ValidationResult {
	result := c.validate(ctx, expected)

	c.metrics.RecordAccessDecision(string(expected), result.Outcome(), string(result.Reason))
	if !result.OK {
		c.logger.Security("access_rejected", result.Address, map[string]interface{}{
			"role":   string(expected),
			"reason": string(result.Reason),
		})
	} else {
		c.logger.Audit(result.Address, "access", string(expected), true, nil)
	}

	return result
}

func (c *Controller) validate(ctx context.Context, expected types.Role) types.ValidationResult {
	log := c.logger.WithContext(ctx).WithField("expected_role", string(expected))

	// Unvalidated -> SessionChecked
	current, err := c.sessions.Read(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read session")
		return types.Rejected(expected, types.ReasonNoSession)
	}
	if current == nil {
		return types.Rejected(expected, types.ReasonNoSession)
	}

	// SessionChecked -> AddressReconciled
	address, err := c.wallet.EnsureConnected(ctx)
	if err != nil {
		log.WithError(err).Warn("Wallet unavailable during validation")
		return types.Rejected(expected, types.ReasonProviderUnavailable)
	}
	if !strings.EqualFold(address, current.Address) {
		if err := c.sessions.Clear(ctx); err != nil {
			log.WithError(err).Error("Failed to clear mismatched session")
		}
		result := types.Rejected(expected, types.ReasonAddressMismatch)
		result.Address = address
		return result
	}

	// AddressReconciled -> RoleConfirmed
	if current.Role != expected {
		result := types.Rejected(expected, types.ReasonRoleMismatch)
		result.Address = address
		return result
	}

	confirmed, err := c.confirmRole(ctx, address, expected)
	if err != nil {
		log.WithError(err).Warn("Ledger role lookup failed")
	}
	if !confirmed {
		result := types.Rejected(expected, types.ReasonLedgerDenied)
		result.Address = address
		return result
	}

	return types.Authorized(expected, address)
}

func (c *Controller) confirmRole(ctx context.Context, address string, role types.Role) (bool, error) {
	if role == types.RoleAdmin {
		return c.oracle.IsAdmin(ctx, address)
	}
	record, err := c.oracle.RoleRecordFor(ctx, address, role)
	if err != nil {
		return false, err
	}
	return record.Matches(role), nil
}

// InitializePage validates expected and, on rejection, shows the notice and
// navigates to the entry page before returning the rejection as an error.
func (c *Controller) InitializePage(ctx context.Context, expected types.Role) (bool, error) {
	result, err := c.Authorize(ctx, expected)
	return result.OK, err
}

// Authorize is InitializePage returning the full result, so callers can
// render the confirmed address without reading the session again
func (c *Controller) Authorize(ctx context.Context, expected types.Role) (types.ValidationResult, error) {
	result := c.Validate(ctx, expected)
	if result.OK {
		return result, nil
	}

	notice := Notice(result)
	c.reject(notice)
	return result, result.Err(notice)
}

// ValidateAccess is InitializePage without the error, for guard use
func (c *Controller) ValidateAccess(ctx context.Context, expected types.Role) bool {
	ok, _ := c.InitializePage(ctx, expected)
	return ok
}

func (c *Controller) reject(notice string) {
	if c.presenter == nil {
		return
	}
	c.presenter.Notify(notice)
	c.presenter.Navigate(c.entryPage)
}

// Notice returns the user-facing message for a rejected result
func Notice(result types.ValidationResult) string {
	switch result.Reason {
	case types.ReasonNoSession:
		return NoticeNoSession
	case types.ReasonRoleMismatch:
		return NoticeRoleMismatch
	case types.ReasonAddressMismatch:
		return NoticeAddressMismatch
	case types.ReasonProviderUnavailable:
		return NoticeProviderUnavailable
	case types.ReasonLedgerDenied:
		return fmt.Sprintf("Access denied. %s role required.", result.Role.Title())
	}
	return ""
}
