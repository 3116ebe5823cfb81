package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// URIConfig holds URI resolver configuration
type URIConfig struct {
	IPFSGateways    []string `mapstructure:"ipfs_gateways"`
	ArweaveGateways []string `mapstructure:"arweave_gateways"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	Subject        string        `mapstructure:"subject"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxAckPending  int           `mapstructure:"max_ack_pending"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// RetryConfig bounds the retries of transient storage and price failures
type RetryConfig struct {
	MaxAttempts     uint64        `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
}

// ProcessorConfig holds the transaction processor configuration
type ProcessorConfig struct {
	Name         string `mapstructure:"name"`
	StartVersion uint64 `mapstructure:"start_version"`
}

// PriceConfig holds the USD price lookup configuration
type PriceConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheKeyPrefix string        `mapstructure:"cache_key_prefix"`
}

// RateLimitConfig holds the limit applied to one metadata host.
// Host is empty for the default limit
type RateLimitConfig struct {
	Host              string        `mapstructure:"host"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxWait           time.Duration `mapstructure:"max_wait"`
}

// RateLimiterConfig holds the distributed rate limiter configuration
type RateLimiterConfig struct {
	RedisKeyPrefix          string            `mapstructure:"redis_key_prefix"`
	EnableLocalFallback     bool              `mapstructure:"enable_local_fallback"`
	LocalFallbackMultiplier float64           `mapstructure:"local_fallback_multiplier"`
	Default                 RateLimitConfig   `mapstructure:"default"`
	Hosts                   []RateLimitConfig `mapstructure:"hosts"`
}

// MetadataConfig holds the NFT metadata worker configuration
type MetadataConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	MaxRetryTime time.Duration `mapstructure:"max_retry_time"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
	Worker       WorkerConfig  `mapstructure:"worker"`
	URI          URIConfig     `mapstructure:"uri"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// IndexerConfig holds configuration for marketplace-indexer
type IndexerConfig struct {
	BaseConfig       `mapstructure:",squash"`
	Database         DatabaseConfig    `mapstructure:"database"`
	NATS             NATSConfig        `mapstructure:"nats"`
	Redis            RedisConfig       `mapstructure:"redis"`
	Worker           WorkerConfig      `mapstructure:"worker"`
	Retry            RetryConfig       `mapstructure:"retry"`
	Processor        ProcessorConfig   `mapstructure:"processor"`
	Price            PriceConfig       `mapstructure:"price"`
	RateLimiter      RateLimiterConfig `mapstructure:"rate_limiter"`
	Metadata         MetadataConfig    `mapstructure:"metadata"`
	Metrics          MetricsConfig     `mapstructure:"metrics"`
	MarketplacesPath string            `mapstructure:"marketplaces_path"`
}

// StreamLoaderConfig holds configuration for stream-loader
type StreamLoaderConfig struct {
	BaseConfig `mapstructure:",squash"`
	NATS       NATSConfig `mapstructure:"nats"`
	// StreamReplicas is used when the loader has to create the stream
	StreamReplicas int `mapstructure:"stream_replicas"`
}

// LoadIndexerConfig loads configuration for marketplace-indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("marketplace-indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	setNATSDefaults(v)
	v.SetDefault("nats.consumer_name", "marketplace-indexer")
	v.SetDefault("nats.ack_wait", "60s")
	v.SetDefault("nats.max_ack_pending", 4096)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("worker.pool_size", 16)
	v.SetDefault("worker.queue_size", 1024)
	v.SetDefault("retry.max_attempts", 10)
	v.SetDefault("retry.initial_interval", "500ms")
	v.SetDefault("retry.max_interval", "30s")
	v.SetDefault("retry.max_elapsed", "5m")
	v.SetDefault("processor.name", "marketplace_processor")
	v.SetDefault("price.cache_ttl", "10m")
	v.SetDefault("price.cache_key_prefix", "marketplace:indexer:price:")
	v.SetDefault("rate_limiter.redis_key_prefix", "marketplace:indexer:limiter:")
	v.SetDefault("rate_limiter.enable_local_fallback", true)
	v.SetDefault("rate_limiter.local_fallback_multiplier", 0.5)
	v.SetDefault("rate_limiter.default.requests_per_second", 5)
	v.SetDefault("rate_limiter.default.burst", 5)
	v.SetDefault("rate_limiter.default.max_wait", "2m")
	v.SetDefault("metadata.enabled", true)
	v.SetDefault("metadata.batch_size", 20)
	v.SetDefault("metadata.poll_interval", "30s")
	v.SetDefault("metadata.http_timeout", "20s")
	v.SetDefault("metadata.max_retry_time", "1m")
	v.SetDefault("metadata.max_body_size", 2*1024*1024) // 2MB
	v.SetDefault("metadata.worker.pool_size", 8)
	v.SetDefault("metadata.worker.queue_size", 64)
	v.SetDefault("metadata.uri.ipfs_gateways", []string{"https://ipfs.io", "https://cloudflare-ipfs.com"})
	v.SetDefault("metadata.uri.arweave_gateways", []string{"https://arweave.net"})
	v.SetDefault("metrics.listen_addr", ":9090")
	v.SetDefault("marketplaces_path", "config/marketplaces.yaml")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg IndexerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("%w: database.host is required", domain.ErrFatalConfig)
	}
	if cfg.Database.DBName == "" {
		return nil, fmt.Errorf("%w: database.dbname is required", domain.ErrFatalConfig)
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("%w: nats.url is required", domain.ErrFatalConfig)
	}
	if cfg.Worker.WorkerPoolSize <= 0 {
		return nil, fmt.Errorf("%w: worker.pool_size must be positive", domain.ErrFatalConfig)
	}

	return &cfg, nil
}

// LoadStreamLoaderConfig loads configuration for stream-loader
func LoadStreamLoaderConfig(configFile string, envPath string) (*StreamLoaderConfig, error) {
	v := configureViper("stream-loader", configFile, envPath)

	// Set defaults
	setNATSDefaults(v)
	v.SetDefault("stream_replicas", 1)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg StreamLoaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("%w: nats.url is required", domain.ErrFatalConfig)
	}

	return &cfg, nil
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "APTOS_TRANSACTIONS")
	v.SetDefault("nats.subject", "aptos.transactions")
}

// readConfig reads the config file. A missing file found by search is not an error,
// environment variables are used instead
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("MARKETPLACE_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"environment",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_ack_pending",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Processing
		"worker.pool_size",
		"worker.queue_size",
		"retry.max_attempts",
		"retry.initial_interval",
		"retry.max_interval",
		"retry.max_elapsed",
		"processor.name",
		"processor.start_version",
		"marketplaces_path",
		// Price
		"price.cache_ttl",
		"price.cache_key_prefix",
		// Rate limiter
		"rate_limiter.redis_key_prefix",
		"rate_limiter.enable_local_fallback",
		"rate_limiter.local_fallback_multiplier",
		"rate_limiter.default.requests_per_second",
		"rate_limiter.default.burst",
		"rate_limiter.default.max_wait",
		// Metadata worker
		"metadata.enabled",
		"metadata.batch_size",
		"metadata.poll_interval",
		"metadata.http_timeout",
		"metadata.max_retry_time",
		"metadata.max_body_size",
		"metadata.worker.pool_size",
		"metadata.worker.queue_size",
		"metadata.uri.ipfs_gateways",
		"metadata.uri.arweave_gateways",
		// Metrics
		"metrics.listen_addr",
		// Stream loader
		"stream_replicas",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then the optional per-service local file
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSN returns the read-replica database connection string.
// If ReadPort is not configured, it falls back to Port.
func (c *DatabaseConfig) ReadDSN() string {
	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)
}
