package port

import (
	"context"
	"errors"

	"github.com/rl1809/supply-chain/internal/core/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRecipientRefused  = errors.New("recipient refused funds")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrTxDone            = errors.New("ledger transaction already finished")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

type Ledger interface {
	// Begin opens a transaction. Transfers made through it become visible
	// only after Commit.
	Begin(ctx context.Context) (LedgerTx, error)

	// Balance returns the committed balance of an account.
	Balance(ctx context.Context, account domain.Address) (uint64, error)
}

type LedgerTx interface {
	// Transfer moves amount from one account to another, failing with
	// ErrInsufficientFunds, ErrRecipientRefused or ErrBalanceOverflow. A
	// recipient without an account is opened by its first credit.
	Transfer(ctx context.Context, from, to domain.Address, amount uint64) error

	Commit() error

	// Rollback discards staged transfers. It is safe to call after Commit.
	Rollback() error
}
