package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Users          UserRepository
	Tenants        TenantRepository
	Memberships    MembershipRepository
	Subscriptions  SubscriptionRepository
	Invoices       InvoiceRepository
	Impersonations ImpersonationRepository
	PasswordResets PasswordResetRepository
	Customers      CustomerRepository
	Orders         OrderRepository
	Categories     CategoryRepository
	Variants       VariantRepository
	Dealers        DealerRepository
}

// TxFunc runs inside a transaction with repositories bound to it.
type TxFunc func(ctx context.Context, repos Repositories) error

// TxManager executes a function atomically. Returning an error rolls back.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// Provider exposes repositories bound to the shared connection and a
// transaction runner. Repositories returned by Repos must not be used inside
// a WithinTx callback; use the ones passed to the callback instead.
type Provider interface {
	TxManager
	Repos() Repositories
}

// Store is the Postgres-backed repository set.
type Store struct {
	Repositories
	pool *pgxpool.Pool
}

// NewStore binds repositories to the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Repositories: bind(pool), pool: pool}
}

// Repos returns the pool-bound repositories.
func (s *Store) Repos() Repositories {
	return s.Repositories
}

func bind(db DBTX) Repositories {
	return Repositories{
		Users:          NewUserRepository(db),
		Tenants:        NewTenantRepository(db),
		Memberships:    NewMembershipRepository(db),
		Subscriptions:  NewSubscriptionRepository(db),
		Invoices:       NewInvoiceRepository(db),
		Impersonations: NewImpersonationRepository(db),
		PasswordResets: NewPasswordResetRepository(db),
		Customers:      NewCustomerRepository(db),
		Orders:         NewOrderRepository(db),
		Categories:     NewCategoryRepository(db),
		Variants:       NewVariantRepository(db),
		Dealers:        NewDealerRepository(db),
	}
}

// WithinTx runs fn in a read-committed transaction.
func (s *Store) WithinTx(ctx context.Context, fn TxFunc) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
