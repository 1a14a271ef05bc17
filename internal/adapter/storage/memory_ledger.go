package storage

import (
	"context"
	"sync"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/port"
)

// MemoryLedger keeps balances in process. Transactions stage their transfers
// and apply them all at once on Commit.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[domain.Address]uint64
	refusing map[domain.Address]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[domain.Address]uint64),
		refusing: make(map[domain.Address]bool),
	}
}

// Fund credits an account outside of any transaction.
func (l *MemoryLedger) Fund(ctx context.Context, account domain.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balances[account]
	if balance+amount < balance {
		return port.ErrBalanceOverflow
	}
	l.balances[account] = balance + amount
	return nil
}

// Refuse makes an account reject incoming transfers.
func (l *MemoryLedger) Refuse(account domain.Address, refuse bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if refuse {
		l.refusing[account] = true
	} else {
		delete(l.refusing, account)
	}
}

func (l *MemoryLedger) Balance(ctx context.Context, account domain.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) Begin(ctx context.Context) (port.LedgerTx, error) {
	return &memoryLedgerTx{
		ledger:  l,
		debits:  make(map[domain.Address]uint64),
		credits: make(map[domain.Address]uint64),
	}, nil
}

type memoryLedgerTx struct {
	ledger  *MemoryLedger
	debits  map[domain.Address]uint64
	credits map[domain.Address]uint64
	done    bool
}

func (t *memoryLedgerTx) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	if t.done {
		return port.ErrTxDone
	}
	if amount == 0 {
		return nil
	}

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()

	if t.ledger.refusing[to] {
		return port.ErrRecipientRefused
	}
	spendable, err := t.available(from)
	if err != nil {
		return err
	}
	if spendable < amount {
		return port.ErrInsufficientFunds
	}
	received, err := t.available(to)
	if err != nil {
		return err
	}
	if from != to && received+amount < received {
		return port.ErrBalanceOverflow
	}
	if t.debits[from]+amount < amount || t.credits[to]+amount < amount {
		return port.ErrBalanceOverflow
	}
	t.debits[from] += amount
	t.credits[to] += amount
	return nil
}

// available returns the balance of account with this transaction's staged
// transfers applied. It must be called with the ledger lock held.
func (t *memoryLedgerTx) available(account domain.Address) (uint64, error) {
	balance := t.ledger.balances[account]
	credit, debit := t.credits[account], t.debits[account]
	if credit >= debit {
		next := balance + (credit - debit)
		if next < balance {
			return 0, port.ErrBalanceOverflow
		}
		return next, nil
	}
	if balance < debit-credit {
		return 0, port.ErrInsufficientFunds
	}
	return balance - (debit - credit), nil
}

func (t *memoryLedgerTx) Commit() error {
	if t.done {
		return port.ErrTxDone
	}
	t.done = true

	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()

	// Balances may have moved since Transfer, so every account is checked
	// again before anything is applied.
	next := make(map[domain.Address]uint64, len(t.debits)+len(t.credits))
	for _, staged := range []map[domain.Address]uint64{t.credits, t.debits} {
		for account := range staged {
			balance, err := t.available(account)
			if err != nil {
				return err
			}
			next[account] = balance
		}
	}
	for account, balance := range next {
		t.ledger.balances[account] = balance
	}
	return nil
}

func (t *memoryLedgerTx) Rollback() error {
	t.done = true
	return nil
}
