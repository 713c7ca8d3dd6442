// Package cli implements the portalctl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/medrex/portal-gate/internal/access"
	"github.com/medrex/portal-gate/internal/app"
	"github.com/medrex/portal-gate/internal/logout"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/pkg/config"
	"github.com/medrex/portal-gate/pkg/logger"
)

// SetupFunc builds the collaborators for a command run
type SetupFunc func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app.Infra, error)

// ErrProcessLocalBackend is returned when portalctl is pointed at the memory backend,
// whose sessions would not outlive a single command
var ErrProcessLocalBackend = errors.New("portalctl needs a shared session backend: set session.backend to redis")

func defaultSetup(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app.Infra, error) {
	if cfg.Session.Backend == config.BackendMemory {
		return nil, ErrProcessLocalBackend
	}
	return app.Setup(ctx, cfg, log, nil)
}

type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	infra *app.Infra
}

type options struct {
	configPath string
	profile    string
	logLevel   string
}

// NewRootCmd creates the root command for portalctl
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultSetup)
}

func newRootCmd(setup SetupFunc) *cobra.Command {
	opts := &options{}
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Inspect and drive the healthcare portal access gate",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			rt.cfg = cfg
			rt.log = logger.NewWithWriter(level, cmd.ErrOrStderr())

			infra, err := setup(cmd.Context(), cfg, rt.log)
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			rt.infra = infra
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.infra != nil {
				return rt.infra.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to portal.yaml (default: search ./, ./config, /etc/portal-gate)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "cli", "Browser profile whose session to act on")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	root.AddCommand(
		newValidateCmd(rt, opts),
		newLogoutCmd(rt, opts),
		newSessionCmd(rt, opts),
		newAgentCmd(rt),
	)

	return root
}

func (rt *runtime) store(opts *options) session.Store {
	return rt.infra.Sessions.ForProfile(opts.profile)
}

func (rt *runtime) controller(opts *options, out io.Writer) *access.Controller {
	return access.NewController(access.Options{
		Sessions:  rt.store(opts),
		Wallet:    rt.infra.Wallet,
		Oracle:    rt.infra.Oracle,
		Presenter: &consolePresenter{out: out},
		EntryPage: rt.cfg.Server.EntryPage,
		Logger:    rt.log,
	})
}

func (rt *runtime) coordinator(opts *options, out io.Writer) *logout.Coordinator {
	return logout.NewCoordinator(logout.Options{
		Sessions:  rt.store(opts),
		Wallet:    rt.infra.Wallet,
		Oracle:    rt.infra.Oracle,
		Presenter: &consolePresenter{out: out},
		EntryPage: rt.cfg.Server.EntryPage,
		Logger:    rt.log,
	})
}

// consolePresenter prints notices and navigation instead of rendering them
type consolePresenter struct {
	out io.Writer
}

func (p *consolePresenter) Notify(message string) {
	fmt.Fprintf(p.out, "notice: %s\n", message)
}

func (p *consolePresenter) Navigate(page string) {
	fmt.Fprintf(p.out, "redirect: %s\n", page)
}
