// Package memory is an in-process implementation of the repository set. It is
// used when no Postgres DSN is configured and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
)

type state struct {
	seq            int64
	order          map[string]int64
	users          map[string]domain.User
	tenants        map[string]domain.Tenant
	branches       map[string]domain.Branch
	memberships    map[string]domain.Membership
	subscriptions  map[string]domain.Subscription
	invoices       map[string]domain.Invoice
	impersonations map[string]domain.ImpersonationLog
	resets         map[string]domain.PasswordResetToken
	customers      map[string]domain.Customer
	orders         map[string]domain.Order
	categories     map[string]domain.Category
	variants       map[string]domain.Variant
	dealers        map[string]domain.Dealer
}

func newState() *state {
	return &state{
		order:          map[string]int64{},
		users:          map[string]domain.User{},
		tenants:        map[string]domain.Tenant{},
		branches:       map[string]domain.Branch{},
		memberships:    map[string]domain.Membership{},
		subscriptions:  map[string]domain.Subscription{},
		invoices:       map[string]domain.Invoice{},
		impersonations: map[string]domain.ImpersonationLog{},
		resets:         map[string]domain.PasswordResetToken{},
		customers:      map[string]domain.Customer{},
		orders:         map[string]domain.Order{},
		categories:     map[string]domain.Category{},
		variants:       map[string]domain.Variant{},
		dealers:        map[string]domain.Dealer{},
	}
}

func (s *state) clone() *state {
	c := &state{seq: s.seq}
	c.order = cloneMap(s.order)
	c.users = cloneMap(s.users)
	c.tenants = cloneMap(s.tenants)
	c.branches = cloneMap(s.branches)
	c.memberships = cloneMap(s.memberships)
	c.subscriptions = cloneMap(s.subscriptions)
	c.invoices = cloneMap(s.invoices)
	c.impersonations = cloneMap(s.impersonations)
	c.resets = cloneMap(s.resets)
	c.customers = cloneMap(s.customers)
	c.categories = cloneMap(s.categories)
	c.variants = cloneMap(s.variants)
	c.dealers = cloneMap(s.dealers)
	c.orders = make(map[string]domain.Order, len(s.orders))
	for k, v := range s.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	return c
}

// track records insertion order so "oldest" lookups are stable when timestamps tie.
func (s *state) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *state) before(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return s.order[aID] < s.order[bID]
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedBy[T any](items []T, less func(a, b T) bool) []T {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	return items
}

type access func(fn func(s *state) error) error

// Option customizes the store.
type Option func(*Store)

// WithClock injects the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a mutex-guarded, transaction-capable in-memory repository set.
type Store struct {
	repository.Repositories
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repository.Provider = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Repositories = s.bind(s.locked)
	return s
}

// Repos returns repositories that lock the store per call.
func (s *Store) Repos() repository.Repositories {
	return s.Repositories
}

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// WithinTx runs fn against a private copy of the state and publishes it only on success.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	direct := func(f func(*state) error) error { return f(working) }
	if err := fn(ctx, s.bind(direct)); err != nil {
		return err
	}
	s.st = working
	return nil
}

func (s *Store) bind(acc access) repository.Repositories {
	base := repo{acc: acc, now: s.now}
	return repository.Repositories{
		Users:          &userRepo{base},
		Tenants:        &tenantRepo{base},
		Memberships:    &membershipRepo{base},
		Subscriptions:  &subscriptionRepo{base},
		Invoices:       &invoiceRepo{base},
		Impersonations: &impersonationRepo{base},
		PasswordResets: &passwordResetRepo{base},
		Customers:      &customerRepo{base},
		Orders:         &orderRepo{base},
		Categories:     &categoryRepo{base},
		Variants:       &variantRepo{base},
		Dealers:        &dealerRepo{base},
	}
}

type repo struct {
	acc access
	now func() time.Time
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "violates foreign key constraint"}
}

var errNoRows = pgx.ErrNoRows

func limitOffset[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
