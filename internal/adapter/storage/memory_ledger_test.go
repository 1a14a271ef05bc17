package storage

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/supply-chain/internal/port"
)

func TestMemoryLedger_CommitAppliesTransfers(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 100))

	tx, err := ledger.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Transfer(ctx, "alice", "escrow", 80))
	require.NoError(t, tx.Transfer(ctx, "escrow", "bob", 50))

	// Staged transfers are invisible until commit
	balance, _ := ledger.Balance(ctx, "bob")
	assert.Zero(t, balance)

	require.NoError(t, tx.Commit())

	alice, _ := ledger.Balance(ctx, "alice")
	escrow, _ := ledger.Balance(ctx, "escrow")
	bob, _ := ledger.Balance(ctx, "bob")
	assert.Equal(t, uint64(20), alice)
	assert.Equal(t, uint64(30), escrow)
	assert.Equal(t, uint64(50), bob)
}

func TestMemoryLedger_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 100))

	tx, _ := ledger.Begin(ctx)
	require.NoError(t, tx.Transfer(ctx, "alice", "bob", 60))
	require.NoError(t, tx.Rollback())

	alice, _ := ledger.Balance(ctx, "alice")
	assert.Equal(t, uint64(100), alice)
	assert.ErrorIs(t, tx.Transfer(ctx, "alice", "bob", 1), port.ErrTxDone)
	assert.ErrorIs(t, tx.Commit(), port.ErrTxDone)
}

func TestMemoryLedger_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 10))

	tx, _ := ledger.Begin(ctx)
	defer tx.Rollback()

	assert.ErrorIs(t, tx.Transfer(ctx, "alice", "bob", 11), port.ErrInsufficientFunds)
	require.NoError(t, tx.Transfer(ctx, "alice", "bob", 10))
	assert.ErrorIs(t, tx.Transfer(ctx, "alice", "bob", 1), port.ErrInsufficientFunds)
}

func TestMemoryLedger_RecipientRefused(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 10))
	ledger.Refuse("bob", true)

	tx, _ := ledger.Begin(ctx)
	defer tx.Rollback()
	assert.ErrorIs(t, tx.Transfer(ctx, "alice", "bob", 5), port.ErrRecipientRefused)

	ledger.Refuse("bob", false)
	assert.NoError(t, tx.Transfer(ctx, "alice", "bob", 5))
}

func TestMemoryLedger_CommitDetectsConcurrentSpend(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 10))

	first, _ := ledger.Begin(ctx)
	second, _ := ledger.Begin(ctx)
	require.NoError(t, first.Transfer(ctx, "alice", "bob", 10))
	require.NoError(t, second.Transfer(ctx, "alice", "carol", 10))

	require.NoError(t, first.Commit())
	assert.ErrorIs(t, second.Commit(), port.ErrInsufficientFunds)

	carol, _ := ledger.Balance(ctx, "carol")
	assert.Zero(t, carol)
}

func TestMemoryLedger_FundOverflow(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", math.MaxUint64))

	assert.ErrorIs(t, ledger.Fund(ctx, "alice", 1), port.ErrBalanceOverflow)
	balance, _ := ledger.Balance(ctx, "alice")
	assert.Equal(t, uint64(math.MaxUint64), balance)
}

func TestMemoryLedger_TransferOverflow(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 10))
	require.NoError(t, ledger.Fund(ctx, "bob", math.MaxUint64-5))

	tx, _ := ledger.Begin(ctx)
	defer tx.Rollback()
	require.NoError(t, tx.Transfer(ctx, "alice", "bob", 5))
	assert.ErrorIs(t, tx.Transfer(ctx, "alice", "bob", 1), port.ErrBalanceOverflow)
}

func TestMemoryLedger_CommitDetectsOverflow(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Fund(ctx, "alice", 10))

	tx, _ := ledger.Begin(ctx)
	require.NoError(t, tx.Transfer(ctx, "alice", "bob", 10))

	// bob is funded to the limit after the transfer was staged
	require.NoError(t, ledger.Fund(ctx, "bob", math.MaxUint64))
	assert.ErrorIs(t, tx.Commit(), port.ErrBalanceOverflow)

	alice, _ := ledger.Balance(ctx, "alice")
	bob, _ := ledger.Balance(ctx, "bob")
	assert.Equal(t, uint64(10), alice)
	assert.Equal(t, uint64(math.MaxUint64), bob)
}
