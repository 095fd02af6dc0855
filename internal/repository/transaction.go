package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same repository code runs inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Repositories hands out repositories bound to one Querier.
type Repositories interface {
	Users() UserRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Orders() OrderRepository
}

type repositories struct {
	q Querier
}

// NewRepositories returns repositories bound to q
func NewRepositories(q Querier) Repositories {
	return &repositories{q: q}
}

func (r *repositories) Users() UserRepository           { return NewUserRepository(r.q) }
func (r *repositories) Categories() CategoryRepository { return NewCategoryRepository(r.q) }
func (r *repositories) Products() ProductRepository     { return NewProductRepository(r.q) }
func (r *repositories) Orders() OrderRepository         { return NewOrderRepository(r.q) }

// TxManager runs a unit of work. If fn returns an error or panics the
// transaction is rolled back; otherwise it is committed.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type sqlTxManager struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

// NewTxManager creates a TxManager whose transactions use READ COMMITTED
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db, isolation: sql.LevelReadCommitted}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: m.isolation})
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}
