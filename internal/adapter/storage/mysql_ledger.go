package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/port"
)

//go:embed schema.sql
var schema string

// EnsureSchema creates the ledger and journal tables if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

type MySQLLedger struct {
	db *sql.DB
}

func NewMySQLLedger(db *sql.DB) *MySQLLedger {
	return &MySQLLedger{db: db}
}

// OpenAccount creates an account that accepts funds, if it does not exist.
// Transfers open recipients on demand, so this is only needed to make an
// empty account visible to Balance.
func (m *MySQLLedger) OpenAccount(ctx context.Context, account domain.Address) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT IGNORE INTO accounts (address, balance, accepts_funds) VALUES (?, 0, 1)`,
		string(account),
	)
	if err != nil {
		return fmt.Errorf("open account: %w", err)
	}
	return nil
}

func (m *MySQLLedger) Fund(ctx context.Context, account domain.Address, amount uint64) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO accounts (address, balance, accepts_funds) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE balance = balance + VALUES(balance), updated_at = NOW(6)`,
		string(account), amount,
	)
	if isOutOfRange(err) {
		return port.ErrBalanceOverflow
	}
	if err != nil {
		return fmt.Errorf("fund account: %w", err)
	}
	return nil
}

func (m *MySQLLedger) Refuse(ctx context.Context, account domain.Address, refuse bool) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE accounts SET accepts_funds = ?, updated_at = NOW(6) WHERE address = ?`,
		!refuse, string(account),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (m *MySQLLedger) Balance(ctx context.Context, account domain.Address) (uint64, error) {
	var balance uint64
	err := m.db.QueryRowContext(ctx, `
		SELECT balance FROM accounts WHERE address = ?`, string(account),
	).Scan(&balance)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, port.ErrUnknownAccount
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

func (m *MySQLLedger) Begin(ctx context.Context) (port.LedgerTx, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &mysqlLedgerTx{tx: tx}, nil
}

type mysqlLedgerTx struct {
	tx *sql.Tx
}

func (t *mysqlLedgerTx) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - ?, updated_at = NOW(6)
		WHERE address = ? AND balance >= ?`,
		amount, string(from), amount,
	)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return port.ErrInsufficientFunds
	}

	if err := t.credit(ctx, to, amount); err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO transfers (id, from_address, to_address, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), string(from), string(to), amount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// credit adds amount to the recipient, opening the account on first credit.
// The recipient row stays locked until the transaction ends.
func (t *mysqlLedgerTx) credit(ctx context.Context, to domain.Address, amount uint64) error {
	var accepts bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT accepts_funds FROM accounts WHERE address = ? FOR UPDATE`, string(to),
	).Scan(&accepts)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO accounts (address, balance, accepts_funds) VALUES (?, ?, 1)
			ON DUPLICATE KEY UPDATE balance = balance + VALUES(balance), updated_at = NOW(6)`,
			string(to), amount,
		)
	case err != nil:
		return fmt.Errorf("lock account: %w", err)
	case !accepts:
		return port.ErrRecipientRefused
	default:
		_, err = t.tx.ExecContext(ctx, `
			UPDATE accounts
			SET balance = balance + ?, updated_at = NOW(6)
			WHERE address = ?`,
			amount, string(to),
		)
	}
	if isOutOfRange(err) {
		return port.ErrBalanceOverflow
	}
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return nil
}

// isOutOfRange reports MySQL error 1690, raised when balance would leave
// the BIGINT UNSIGNED range.
func isOutOfRange(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1690
}

func (t *mysqlLedgerTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return port.ErrTxDone
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *mysqlLedgerTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}
