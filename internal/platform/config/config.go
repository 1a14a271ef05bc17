package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures process level settings for the registry server.
type Config struct {
	HTTPAddr  string `env:"SUPPLY_HTTP_ADDR"  envDefault:":8080"`
	GRPCAddr  string `env:"SUPPLY_GRPC_ADDR"  envDefault:":50051"`
	LogLevel  string `env:"SUPPLY_LOG_LEVEL"  envDefault:"info"`
	QueueSize int    `env:"SUPPLY_QUEUE_SIZE" envDefault:"10000"`

	Owner  string `env:"SUPPLY_OWNER_ADDRESS"  envDefault:"registry-owner"`
	Escrow string `env:"SUPPLY_ESCROW_ADDRESS" envDefault:"registry-escrow"`

	// InitialBalances funds accounts at startup, as "address:amount" pairs.
	InitialBalances []string `env:"SUPPLY_INITIAL_BALANCES" envSeparator:","`

	// MySQLDSN selects the MySQL ledger and event journal. Empty keeps the
	// ledger in memory and disables history.
	MySQLDSN         string `env:"SUPPLY_MYSQL_DSN"`
	MySQLAutoMigrate bool   `env:"SUPPLY_MYSQL_AUTO_MIGRATE" envDefault:"true"`

	RedisAddr      string        `env:"SUPPLY_REDIS_ADDR"`
	RedisChannel   string        `env:"SUPPLY_REDIS_CHANNEL"    envDefault:"supplychain:item-events"`
	IdempotencyTTL time.Duration `env:"SUPPLY_IDEMPOTENCY_TTL"  envDefault:"24h"`

	KafkaBrokers []string `env:"SUPPLY_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"SUPPLY_KAFKA_TOPIC"   envDefault:"supplychain.item-events"`

	TraceExporter string `env:"SUPPLY_TRACE_EXPORTER" envDefault:"none"`
}

// FromEnv parses Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.QueueSize <= 0 {
		return Config{}, fmt.Errorf("queue size must be positive, got %d", cfg.QueueSize)
	}
	if cfg.Owner == "" || cfg.Escrow == "" {
		return Config{}, fmt.Errorf("owner and escrow addresses are required")
	}
	if _, err := cfg.Balances(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Balances decodes InitialBalances.
func (c Config) Balances() (map[string]uint64, error) {
	balances := make(map[string]uint64, len(c.InitialBalances))
	for _, pair := range c.InitialBalances {
		address, amount, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || address == "" {
			return nil, fmt.Errorf("invalid initial balance %q: want address:amount", pair)
		}
		value, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid initial balance %q: %w", pair, err)
		}
		if balances[address]+value < value {
			return nil, fmt.Errorf("invalid initial balance %q: total for %s overflows", pair, address)
		}
		balances[address] += value
	}
	return balances, nil
}
