// Package transaction runs catalog writes inside database transactions so
// that a staging rebuild or a promotion is either fully applied or not at
// all.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is returned when a retryable failure persists
	// across every attempt
	ErrRetriesExhausted = errors.New("transaction retries exhausted")
)

// IsolationLevel represents the transaction isolation level
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (PostgreSQL default)
	ReadCommitted IsolationLevel = iota
	// Serializable provides full isolation
	Serializable
)

// String returns the string representation of the isolation level
func (l IsolationLevel) String() string {
	if l == Serializable {
		return "SERIALIZABLE"
	}
	return "READ COMMITTED"
}

// ToSQLOptions converts IsolationLevel to sql.TxOptions. SQLite only
// understands the driver default, so ReadCommitted maps to nil options.
func (l IsolationLevel) ToSQLOptions() *sql.TxOptions {
	if l == Serializable {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// Manager manages database transactions
type Manager struct {
	db *sql.DB
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// DB returns the underlying database connection
func (m *Manager) DB() *sql.DB {
	return m.db
}

// WithTransaction executes fn within a transaction.
// Commits on success, rolls back on error or panic.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return m.WithTransactionIsolation(ctx, ReadCommitted, fn)
}

// WithTransactionIsolation executes fn within a transaction with the given isolation level
func (m *Manager) WithTransactionIsolation(ctx context.Context, level IsolationLevel, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, level.ToSQLOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
