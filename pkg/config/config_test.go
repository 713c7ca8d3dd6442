package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/", cfg.Server.EntryPage)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTLDuration())
	assert.Equal(t, "healthcare-roles", cfg.Ledger.Contract)
	assert.Equal(t, 30, cfg.Server.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFile_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	content := `
server:
  port: 9000
  entry_page: /index.html
session:
  backend: redis
redis:
  addr: redis:6379
wallet:
  rpc_url: http://wallet:8550
ledger:
  gateway_url: http://ledger:7545
  channel: clinic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/index.html", cfg.Server.EntryPage)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://wallet:8550", cfg.Wallet.RPCURL)
	assert.Equal(t, "clinic", cfg.Ledger.Channel)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("PORT", "9443")
	t.Setenv("LEDGER_GATEWAY_URL", "http://ledger.internal:7545")

	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, "http://ledger.internal:7545", cfg.Ledger.GatewayURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080, EntryPage: "/"},
			Session: SessionConfig{Backend: BackendMemory, TTL: 60},
			Wallet:  WalletConfig{RPCURL: "http://wallet"},
			Ledger:  LedgerConfig{GatewayURL: "http://ledger"},
		}
	}

	require.NoError(t, Validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"relative entry page", func(c *Config) { c.Server.EntryPage = "index.html" }},
		{"unknown backend", func(c *Config) { c.Session.Backend = "cookie" }},
		{"redis without addr", func(c *Config) { c.Session.Backend = BackendRedis; c.Redis.Addr = "" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"missing wallet", func(c *Config) { c.Wallet.RPCURL = "" }},
		{"missing ledger", func(c *Config) { c.Ledger.GatewayURL = "" }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
