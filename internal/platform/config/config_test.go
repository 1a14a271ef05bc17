package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, 10000, cfg.QueueSize)
	assert.Equal(t, "registry-escrow", cfg.Escrow)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.MySQLDSN)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SUPPLY_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SUPPLY_INITIAL_BALANCES", "alice:100,bob:50,alice:5")
	t.Setenv("SUPPLY_QUEUE_SIZE", "16")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 16, cfg.QueueSize)

	balances, err := cfg.Balances()
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"alice": 105, "bob": 50}, balances)
}

func TestFromEnv_RejectsBadBalance(t *testing.T) {
	t.Setenv("SUPPLY_INITIAL_BALANCES", "alice")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_RejectsZeroQueue(t *testing.T) {
	t.Setenv("SUPPLY_QUEUE_SIZE", "0")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestBalances_RejectsOverflowingTotal(t *testing.T) {
	cfg := Config{InitialBalances: []string{"alice:18446744073709551615", "alice:1"}}
	_, err := cfg.Balances()
	assert.ErrorContains(t, err, "overflows")
}
