package postgres

import (
	"context"
	"database/sql"

	"haulmatch/internal/repository"
)

// TxManager implements repository.TxManager on top of *sql.DB
// transactions with transaction-scoped repositories.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn inside a single database transaction. The transaction
// is rolled back if fn returns an error, so a partially applied write is
// never observable.
func (m *TxManager) WithinTx(ctx context.Context, fn func(repository.TxRepos) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	repos := repository.TxRepos{
		Trips:        NewTripRepositoryWithTx(tx),
		Reservations: NewReservationRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Ensure TxManager implements repository.TxManager.
var _ repository.TxManager = (*TxManager)(nil)
