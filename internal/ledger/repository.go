package ledger

import (
	"context"
	"database/sql"

	"github.com/scandine/scandine/internal/domain"
)

// Querier is the subset of database/sql used by the ledger statements,
// satisfied by both *sql.DB and *sql.Tx so the order state machine can
// credit revenue inside its own transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the restaurant's ledger, creating a zero row on
// first access. The insert is idempotent so concurrent first reads are
// safe.
func (r *Repository) GetOrCreate(ctx context.Context, restaurantID string) (*domain.RevenueLedger, error) {
	ledger := &domain.RevenueLedger{RestaurantID: restaurantID}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO restaurants (id, revenue, last_revenue_reset)
		VALUES ($1, 0, NOW())
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING revenue, last_revenue_reset
	`, restaurantID).Scan(&ledger.Revenue, &ledger.LastReset)
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// Credit atomically adds amount to the restaurant's running total,
// creating the ledger row if it does not exist yet. The increment runs
// database-side: two concurrent credits both land, never a lost update.
func Credit(ctx context.Context, q Querier, restaurantID string, amount domain.Money) (*domain.RevenueLedger, error) {
	ledger := &domain.RevenueLedger{RestaurantID: restaurantID}

	err := q.QueryRowContext(ctx, `
		INSERT INTO restaurants (id, revenue, last_revenue_reset)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET revenue = restaurants.revenue + EXCLUDED.revenue
		RETURNING revenue, last_revenue_reset
	`, restaurantID, amount).Scan(&ledger.Revenue, &ledger.LastReset)
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

func (r *Repository) Credit(ctx context.Context, restaurantID string, amount domain.Money) (*domain.RevenueLedger, error) {
	return Credit(ctx, r.db, restaurantID, amount)
}

// Reset zeroes the running total and stamps the reset time. Irreversible.
func (r *Repository) Reset(ctx context.Context, restaurantID string) (*domain.RevenueLedger, error) {
	ledger := &domain.RevenueLedger{RestaurantID: restaurantID}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO restaurants (id, revenue, last_revenue_reset)
		VALUES ($1, 0, NOW())
		ON CONFLICT (id) DO UPDATE SET revenue = 0, last_revenue_reset = NOW()
		RETURNING revenue, last_revenue_reset
	`, restaurantID).Scan(&ledger.Revenue, &ledger.LastReset)
	if err != nil {
		return nil, err
	}

	return ledger, nil
}
