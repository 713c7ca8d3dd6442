// Package app wires the gate's collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medrex/portal-gate/internal/ledger"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/config"
	"github.com/medrex/portal-gate/pkg/logger"
	"github.com/medrex/portal-gate/pkg/monitoring"
)

// Infra holds the collaborators shared by every request
type Infra struct {
	Sessions session.Backend
	// Wallet is the local RPC wallet; the HTTP service binds browser wallets per profile instead
	Wallet   *wallet.Gateway
	Oracle   *ledger.RoleOracle

	redis *redis.Client
}

// Setup builds the session backend, wallet gateway and role oracle
func Setup(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *monitoring.Collector) (*Infra, error) {
	infra := &Infra{}

	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := session.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		if err != nil {
			return nil, err
		}
		infra.redis = client
		infra.Sessions = session.NewRedisBackend(client, cfg.Session.KeyPrefix, cfg.Session.TTLDuration())
		log.WithComponent("app").WithField("addr", cfg.Redis.Addr).Info("Redis session backend ready")
	case config.BackendMemory:
		infra.Sessions = session.NewMemoryBackend()
		log.WithComponent("app").Info("In-memory session backend ready")
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.Session.Backend)
	}

	provider := wallet.NewRPCProvider(cfg.Wallet.RPCURL, time.Duration(cfg.Wallet.Timeout)*time.Second)
	infra.Wallet = wallet.NewGateway(provider, log)

	contract := ledger.NewGatewayContract(
		cfg.Ledger.GatewayURL,
		cfg.Ledger.Channel,
		cfg.Ledger.Contract,
		cfg.Ledger.Bearer,
		time.Duration(cfg.Ledger.Timeout)*time.Second,
	)
	infra.Oracle = ledger.NewRoleOracle(contract, cfg.Ledger.Contract, log, monitoring.NewInstrumentation(metrics))

	return infra, nil
}

// Close releases the session backend connection
func (i *Infra) Close() error {
	if i.redis != nil {
		return i.redis.Close()
	}
	return nil
}
