package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadIndexerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError error
		validate    func(*testing.T, *IndexerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
environment: staging
marketplaces_path: /etc/indexer/marketplaces.yaml
worker:
  pool_size: 4
  queue_size: 64
database:
  host: localhost
  port: 5433
  read_host: replica
  user: testuser
  password: testpass
  dbname: testdb
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  subject: "test.transactions"
redis:
  addr: "redis:6379"
  db: 2
retry:
  max_attempts: 3
  max_elapsed: 30s
processor:
  name: test_processor
  start_version: 1000
rate_limiter:
  hosts:
    - host: ipfs.io
      requests_per_second: 20
      burst: 40
metadata:
  enabled: false
  batch_size: 50
`,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "staging", cfg.Environment)
				assert.Equal(t, "/etc/indexer/marketplaces.yaml", cfg.MarketplacesPath)
				assert.Equal(t, 4, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 64, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "replica", cfg.Database.ReadHost)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "test.transactions", cfg.NATS.Subject)
				assert.Equal(t, "redis:6379", cfg.Redis.Addr)
				assert.Equal(t, 2, cfg.Redis.DB)
				assert.Equal(t, uint64(3), cfg.Retry.MaxAttempts)
				assert.Equal(t, 30*time.Second, cfg.Retry.MaxElapsed)
				assert.Equal(t, "test_processor", cfg.Processor.Name)
				assert.Equal(t, uint64(1000), cfg.Processor.StartVersion)
				require.Len(t, cfg.RateLimiter.Hosts, 1)
				assert.Equal(t, "ipfs.io", cfg.RateLimiter.Hosts[0].Host)
				assert.Equal(t, 20, cfg.RateLimiter.Hosts[0].RequestsPerSecond)
				assert.False(t, cfg.Metadata.Enabled)
				assert.Equal(t, 50, cfg.Metadata.BatchSize)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`,
			validate: func(t *testing.T, cfg *IndexerConfig) {
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "APTOS_TRANSACTIONS", cfg.NATS.StreamName)
				assert.Equal(t, "aptos.transactions", cfg.NATS.Subject)
				assert.Equal(t, "marketplace-indexer", cfg.NATS.ConsumerName)
				assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, 16, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, uint64(10), cfg.Retry.MaxAttempts)
				assert.Equal(t, 5*time.Minute, cfg.Retry.MaxElapsed)
				assert.Equal(t, "marketplace_processor", cfg.Processor.Name)
				assert.Equal(t, 20, cfg.Metadata.BatchSize)
				assert.True(t, cfg.Metadata.Enabled)
				assert.Equal(t, int64(2*1024*1024), cfg.Metadata.MaxBodySize)
				assert.Equal(t, []string{"https://arweave.net"}, cfg.Metadata.URI.ArweaveGateways)
				assert.Equal(t, 5, cfg.RateLimiter.Default.RequestsPerSecond)
				assert.True(t, cfg.RateLimiter.EnableLocalFallback)
				assert.Equal(t, "config/marketplaces.yaml", cfg.MarketplacesPath)
				assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`,
			expectError: domain.ErrFatalConfig,
		},
		{
			name: "missing nats url",
			configFile: `
database:
  host: localhost
  dbname: testdb
`,
			expectError: domain.ErrFatalConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadIndexerConfig(writeConfig(t, tt.configFile), t.TempDir())
			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadIndexerConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadIndexerConfig(filepath.Join(t.TempDir(), "absent.yaml"), t.TempDir())
	require.Error(t, err)
}

func TestLoadIndexerConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MARKETPLACE_INDEXER_DATABASE_HOST", "envhost")
	t.Setenv("MARKETPLACE_INDEXER_WORKER_POOL_SIZE", "3")
	t.Setenv("MARKETPLACE_INDEXER_PROCESSOR_START_VERSION", "42")

	cfg, err := LoadIndexerConfig(writeConfig(t, `
database:
  host: filehost
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, 3, cfg.Worker.WorkerPoolSize)
	assert.Equal(t, uint64(42), cfg.Processor.StartVersion)
}

func TestLoadIndexerConfig_EnvFiles(t *testing.T) {
	envDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte("MARKETPLACE_INDEXER_REDIS_ADDR=base:6379\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env.marketplace-indexer.local"), []byte("MARKETPLACE_INDEXER_REDIS_ADDR=local:6379\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("MARKETPLACE_INDEXER_REDIS_ADDR") })

	cfg, err := LoadIndexerConfig(writeConfig(t, `
database:
  host: localhost
  dbname: testdb
nats:
  url: "nats://localhost:4222"
`), envDir)
	require.NoError(t, err)

	// the per-service local file overrides the shared one
	assert.Equal(t, "local:6379", cfg.Redis.Addr)
}

func TestLoadStreamLoaderConfig(t *testing.T) {
	cfg, err := LoadStreamLoaderConfig(writeConfig(t, `
nats:
  url: "nats://localhost:4222"
  stream_name: "LOADER"
stream_replicas: 3
`), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "LOADER", cfg.NATS.StreamName)
	assert.Equal(t, "aptos.transactions", cfg.NATS.Subject)
	assert.Equal(t, 3, cfg.StreamReplicas)

	_, err = LoadStreamLoaderConfig(writeConfig(t, "debug: true\n"), t.TempDir())
	require.ErrorIs(t, err, domain.ErrFatalConfig)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "primary",
		Port:     5432,
		ReadHost: "replica",
		User:     "u",
		Password: "p",
		DBName:   "db",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=primary port=5432 user=u password=p dbname=db sslmode=disable", cfg.DSN())
	assert.Equal(t, "host=replica port=5432 user=u password=p dbname=db sslmode=disable", cfg.ReadDSN())

	cfg.ReadPort = 6432
	assert.Equal(t, "host=replica port=6432 user=u password=p dbname=db sslmode=disable", cfg.ReadDSN())
}
