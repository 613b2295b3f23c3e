package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/scandine/scandine/internal/domain"
	"github.com/scandine/scandine/internal/ledger"
)

// transition retry bounds for serialization and deadlock failures
const maxTransitionAttempts = 3

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, restaurant_id, table_number, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, order.RestaurantID, order.TableNumber, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		return err
	}

	for i, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, menu_item_id, name, price, quantity, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, itemID, order.ID, i, item.MenuItemID, item.Name, item.Price, item.Quantity, item.Image)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, table_number, status, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.RestaurantID, &order.TableNumber, &order.Status, &order.Total, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT menu_item_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Price, &item.Quantity, &item.Image); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// FindActive returns the restaurant's pending orders, newest first.
func (r *OrderRepository) FindActive(ctx context.Context, restaurantID string) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT id, restaurant_id, table_number, status, total, created_at
		FROM orders
		WHERE restaurant_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, restaurantID, domain.OrderStatusPending)
}

// FindCompletedThisMonth returns the restaurant's completed orders created
// since the first day of the current calendar month.
func (r *OrderRepository) FindCompletedThisMonth(ctx context.Context, restaurantID string, now time.Time) ([]domain.Order, error) {
	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	return r.query(ctx, `
		SELECT id, restaurant_id, table_number, status, total, created_at
		FROM orders
		WHERE restaurant_id = $1 AND status = $2 AND created_at >= $3
		ORDER BY created_at DESC
	`, restaurantID, domain.OrderStatusCompleted, firstOfMonth)
}

// FindByDateRange returns the restaurant's orders created within
// [start, end), oldest first, for report generation.
func (r *OrderRepository) FindByDateRange(ctx context.Context, restaurantID string, start, end time.Time) ([]domain.Order, error) {
	return r.query(ctx, `
		SELECT id, restaurant_id, table_number, status, total, created_at
		FROM orders
		WHERE restaurant_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC
	`, restaurantID, start, end)
}

// Delete removes a pending order. Completed and paid orders already
// credited the ledger and stay; deleting them would leave the revenue
// total pointing at nothing.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND status = $2
	`, id, domain.OrderStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var status domain.OrderStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot delete %s order", domain.ErrInvalidTransition, status)
}

// Transition moves an order to a terminal status and, in the same
// transaction, credits the restaurant ledger and (for paid) appends the
// order to the restaurant's history. The status update is a conditional
// write gated on the current status, so a repeated or concurrent call
// cannot credit the ledger twice. Serialization losers are retried a
// bounded number of times.
func (r *OrderRepository) Transition(ctx context.Context, id, restaurantID string, to domain.OrderStatus) (*domain.Order, *domain.RevenueLedger, error) {
	if !to.Valid() {
		return nil, nil, domain.NewValidationError("unknown status " + string(to))
	}
	if !domain.CanTransition(domain.OrderStatusPending, to) {
		return nil, nil, fmt.Errorf("%w: %s is not a transition target", domain.ErrInvalidTransition, to)
	}

	var led *domain.RevenueLedger
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		led, lastErr = r.transitionOnce(ctx, id, restaurantID, to)
		if lastErr == nil {
			break
		}
		if !retryable(lastErr) {
			return nil, nil, lastErr
		}
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrConflict, lastErr)
	}

	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return order, led, nil
}

func (r *OrderRepository) transitionOnce(ctx context.Context, id, restaurantID string, to domain.OrderStatus) (*domain.RevenueLedger, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var total domain.Money
	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND restaurant_id = $3 AND status = $4
		RETURNING total
	`, to, id, restaurantID, domain.OrderStatusPending).Scan(&total)
	if err == sql.ErrNoRows {
		return nil, r.classifyMiss(ctx, id, restaurantID)
	}
	if err != nil {
		return nil, err
	}

	var led *domain.RevenueLedger
	if domain.CreditsRevenue(to) {
		led, err = ledger.Credit(ctx, tx, restaurantID, total)
		if err != nil {
			return nil, err
		}
	}

	if to == domain.OrderStatusPaid {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO restaurant_order_history (restaurant_id, order_id, paid_at)
			VALUES ($1, $2, NOW())
		`, restaurantID, id)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return led, nil
}

// classifyMiss distinguishes a missing order from one in the wrong state
// after the conditional update matched nothing. An order owned by another
// restaurant reads as not found rather than leaking its existence.
func (r *OrderRepository) classifyMiss(ctx context.Context, id, restaurantID string) error {
	var status domain.OrderStatus
	var owner string
	err := r.db.QueryRowContext(ctx, `
		SELECT status, restaurant_id FROM orders WHERE id = $1
	`, id).Scan(&status, &owner)
	if err == sql.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if owner != restaurantID {
		return domain.ErrOrderNotFound
	}
	return fmt.Errorf("%w: order is already %s", domain.ErrInvalidTransition, status)
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

func (r *OrderRepository) query(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.RestaurantID, &order.TableNumber, &order.Status, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.LineItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, menu_item_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.LineItem
		if err := itemRows.Scan(&orderID, &item.MenuItemID, &item.Name, &item.Price, &item.Quantity, &item.Image); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
