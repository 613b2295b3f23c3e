package domain

import (
	"math"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPaid      OrderStatus = "paid"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusPaid:
		return true
	}
	return false
}

// LineItem is a menu selection snapshotted at order time. Name and price
// are copies, not references: later menu edits must not rewrite past orders.
type LineItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      Money  `json:"price"`
	Quantity   int    `json:"quantity"`
	Image      string `json:"image,omitempty"`
}

type Order struct {
	ID           string      `json:"id"`
	RestaurantID string      `json:"restaurant_id"`
	TableNumber  int         `json:"table_number"`
	Items        []LineItem  `json:"items"`
	Total        Money       `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

// transitions is the single table every status change goes through.
// Both terminal states credit the restaurant ledger; paid additionally
// appends the order to the restaurant's history.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusPaid},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreditsRevenue reports whether entering the status adds the order total
// to the restaurant ledger. The credit must happen exactly once, inside
// the same atomic unit as the status change.
func CreditsRevenue(to OrderStatus) bool {
	return to == OrderStatusCompleted || to == OrderStatusPaid
}

// NewOrder validates customer input and builds a pending order. The total
// is always recomputed from the line items; a client-supplied total is
// checked against the recomputed one and rejected on mismatch.
func NewOrder(restaurantID string, tableNumber int, items []LineItem, claimedTotal Money, now time.Time) (*Order, error) {
	if restaurantID == "" {
		return nil, NewValidationError("missing restaurant id")
	}
	if tableNumber <= 0 {
		return nil, NewValidationError("table number must be positive")
	}
	if len(items) == 0 {
		return nil, NewValidationError("order must contain at least one item")
	}

	var total Money
	for _, item := range items {
		if item.MenuItemID == "" {
			return nil, NewValidationError("item is missing a menu item reference")
		}
		if item.Name == "" {
			return nil, NewValidationError("item is missing a name")
		}
		if item.Price < 0 {
			return nil, NewValidationError("item price must not be negative")
		}
		if item.Quantity < 1 {
			return nil, NewValidationError("item quantity must be at least 1")
		}
		line, err := item.Price.MulQuantity(item.Quantity)
		if err != nil {
			return nil, NewValidationError(err.Error())
		}
		if line > Money(math.MaxInt64)-total {
			return nil, NewValidationError("order total overflows")
		}
		total += line
	}

	if total <= 0 {
		return nil, NewValidationError("order total must be positive")
	}
	if claimedTotal != 0 && claimedTotal != total {
		return nil, NewValidationError("total price does not match order items")
	}

	return &Order{
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		Items:        items,
		Total:        total,
		Status:       OrderStatusPending,
		CreatedAt:    now.UTC(),
	}, nil
}
