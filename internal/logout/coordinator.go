// Package logout tears down a session after reporting the logout to the ledger.
package logout

import (
	"context"

	"github.com/medrex/portal-gate/internal/page"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// User-facing notices
const (
	NoticeSuccess             = "Logged out successfully."
	NoticeUnrecognizedRole    = "Unrecognized user role. Unable to log out."
	NoticeProviderUnavailable = "No wallet account found. Please connect your wallet."
)

// Logout outcome labels
const (
	StatusSuccess         = "success"
	StatusLedgerFailed    = "ledger_write_failed"
	StatusUnrecognized    = "unrecognized_role"
	StatusProviderMissing = "provider_unavailable"
	StatusStorageFailed   = "storage_error"
)

// Wallet reports the active account without prompting
type Wallet interface {
	ActiveAddress(ctx context.Context) (string, error)
}

// Oracle resolves roles and records logout events
type Oracle interface {
	RoleRecordFor(ctx context.Context, address string, role types.Role) (types.RoleRecord, error)
	IsAdmin(ctx context.Context, address string) (bool, error)
	NotifyLogout(ctx context.Context, address string, role types.Role) error
}

// Options configures a Coordinator
type Options struct {
	Sessions  session.Store
	Wallet    Wallet
	Oracle    Oracle
	Presenter page.Presenter
	EntryPage string
	Logger    *logger.Logger
	Metrics   *monitoring.Collector
}

// Coordinator performs the logout flow for one browser profile
type Coordinator struct {
	sessions  session.Store
	wallet    Wallet
	oracle    Oracle
	presenter page.Presenter
	entryPage string
	logger    *logger.Logger
	metrics   *monitoring.Collector
}

// NewCoordinator creates a coordinator from opts
func NewCoordinator(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.EntryPage == "" {
		opts.EntryPage = "/"
	}
	return &Coordinator{
		sessions:  opts.Sessions,
		wallet:    opts.Wallet,
		oracle:    opts.Oracle,
		presenter: opts.Presenter,
		entryPage: opts.EntryPage,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Logout resolves the acting account's role, reports the logout to the
// ledger and clears the session. The ledger write is best effort; once a
// role is resolved the session is always cleared.
func (c *Coordinator) Logout(ctx context.Context) (types.Role, error) {
	log := c.logger.WithContext(ctx).WithField("component", "logout")

	address, err := c.wallet.ActiveAddress(ctx)
	if err == nil && address == "" {
		err = types.NewAccessError(types.ErrorKindProviderUnavailable, "no active wallet account")
	}
	if err != nil {
		log.WithError(err).Warn("Logout without an active wallet account")
		c.metrics.RecordLogout("", StatusProviderMissing)
		c.notify(NoticeProviderUnavailable)
		return "", err
	}

	role, ok := c.resolveRole(ctx, address)
	if !ok {
		c.logger.Security("logout_unrecognized_role", address, nil)
		c.metrics.RecordLogout("", StatusUnrecognized)
		c.notify(NoticeUnrecognizedRole)
		return "", types.NewAccessError(types.ErrorKindUnrecognizedRole, NoticeUnrecognizedRole).
			WithDetail("address", address)
	}

	status := StatusSuccess
	if err := c.oracle.NotifyLogout(ctx, address, role); err != nil {
		log.WithError(err).WithField("role", string(role)).Error("Ledger logout event failed, clearing session anyway")
		status = StatusLedgerFailed
	}

	if err := c.sessions.Clear(ctx); err != nil {
		c.metrics.RecordLogout(string(role), StatusStorageFailed)
		return role, types.WrapAccessError(types.ErrorKindStorage, "failed to clear session", err)
	}

	c.metrics.RecordLogout(string(role), status)
	c.logger.Audit(address, "logout", string(role), true, map[string]interface{}{
		"ledger_status": status,
	})

	c.notify(NoticeSuccess)
	if c.presenter != nil {
		c.presenter.Navigate(c.entryPage)
	}

	return role, nil
}

// resolveRole probes roles in precedence order; a failed probe counts as no match
func (c *Coordinator) resolveRole(ctx context.Context, address string) (types.Role, bool) {
	for _, role := range types.LogoutPrecedence {
		matched, err := c.probe(ctx, address, role)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithField("role", string(role)).Warn("Role probe failed")
			continue
		}
		if matched {
			return role, true
		}
	}
	return "", false
}

func (c *Coordinator) probe(ctx context.Context, address string, role types.Role) (bool, error) {
	if role == types.RoleAdmin {
		return c.oracle.IsAdmin(ctx, address)
	}
	record, err := c.oracle.RoleRecordFor(ctx, address, role)
	if err != nil {
		return false, err
	}
	return record.Matches(role), nil
}

func (c *Coordinator) notify(message string) {
	if c.presenter != nil {
		c.presenter.Notify(message)
	}
}
