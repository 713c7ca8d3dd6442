// Package portal serves the role pages and the logout endpoint over HTTP.
package portal

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medrex/portal-gate/internal/access"
	"github.com/medrex/portal-gate/internal/logout"
	"github.com/medrex/portal-gate/internal/page"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/config"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// Wallet is the wallet surface the portal needs
type Wallet interface {
	access.Wallet
	logout.Wallet
}

// Wallets binds a wallet to the browser profile making the request,
// from the accounts that browser reported
type Wallets func(profile string, reported []string) Wallet

// BrowserWallets binds each profile to its own browser's accounts
func BrowserWallets(backend *wallet.BrowserBackend) Wallets {
	return func(profile string, reported []string) Wallet {
		return backend.ForProfile(profile, reported)
	}
}

// Oracle is the ledger surface the portal needs
type Oracle interface {
	access.Oracle
	logout.Oracle
	AgentName(ctx context.Context, address string) string
}

// Options holds the portal's collaborators
type Options struct {
	Config   *config.Config
	Sessions session.Backend
	Wallets  Wallets
	Oracle   Oracle
	Logger   *logger.Logger
	Metrics  *monitoring.Collector
	Health   *monitoring.HealthManager
}

// Server is the portal HTTP surface
type Server struct {
	cfg      *config.Config
	sessions session.Backend
	wallets  Wallets
	oracle   Oracle
	logger   *logger.Logger
	metrics  *monitoring.Collector
	health   *monitoring.HealthManager
	throttle *Throttle
	router   *gin.Engine
}

// NewServer creates the server and registers its routes
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Health == nil {
		opts.Health = monitoring.NewHealthManager("portal-gate", "")
	}
	if opts.Wallets == nil {
		opts.Wallets = BrowserWallets(wallet.NewBrowserBackend(opts.Logger))
	}

	s := &Server{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		wallets:  opts.Wallets,
		oracle:   opts.Oracle,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		health:   opts.Health,
	}
	if s.cfg.Server.RateLimit > 0 {
		s.throttle = NewThrottle(s.cfg.Server.RateLimit, time.Minute)
	}

	s.health.Register("sessions", s.sessions.Ping)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestContext())
	router.Use(s.securityHeaders())
	router.Use(s.requestMetrics())
	s.registerRoutes(router)
	s.router = router

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	if s.cfg.Monitoring.Enabled && s.metrics != nil {
		router.GET(s.cfg.Monitoring.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	pages := router.Group("/")
	pages.Use(s.profile())
	{
		pages.GET("/", s.handleEntry)
		for _, role := range types.LogoutPrecedence {
			pages.GET("/"+string(role), s.handleRolePage(role))
		}
		pages.POST("/logout", s.throttled(), s.handleLogout)
		pages.POST("/session", s.throttled(), s.handleWriteSession)
	}

	api := router.Group("/api")
	api.Use(s.profile())
	{
		api.GET("/access/:role", s.handleAccessGuard)
	}

	router.GET("/agents/:address/name", s.handleAgentName)
}

// controller builds the access controller for the current request's profile
func (s *Server) controller(c *gin.Context, presenter page.Presenter) *access.Controller {
	return access.NewController(access.Options{
		Sessions:  s.sessions.ForProfile(profileID(c)),
		Wallet:    s.walletFor(c),
		Oracle:    s.oracle,
		Presenter: presenter,
		EntryPage: s.cfg.Server.EntryPage,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
}

// coordinator builds the logout coordinator for the current request's profile
func (s *Server) coordinator(c *gin.Context, presenter page.Presenter) *logout.Coordinator {
	return logout.NewCoordinator(logout.Options{
		Sessions:  s.sessions.ForProfile(profileID(c)),
		Wallet:    s.walletFor(c),
		Oracle:    s.oracle,
		Presenter: presenter,
		EntryPage: s.cfg.Server.EntryPage,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
}

// walletFor returns the wallet bound to the current request's profile
func (s *Server) walletFor(c *gin.Context) Wallet {
	return s.wallets(profileID(c), wallet.ParseAccounts(c.GetHeader(wallet.AccountsHeader)))
}
