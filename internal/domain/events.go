package domain

import "time"

type OrderCreatedEvent struct {
	OrderID      string     `json:"order_id"`
	RestaurantID string     `json:"restaurant_id"`
	TableNumber  int        `json:"table_number"`
	Items        []LineItem `json:"items"`
	Total        Money      `json:"total"`
	Timestamp    time.Time  `json:"timestamp"`
}

// OrderPaidEvent is published after the paid transition commits, so a
// consumer never observes a credit that later rolled back.
type OrderPaidEvent struct {
	OrderID      string    `json:"order_id"`
	RestaurantID string    `json:"restaurant_id"`
	TableNumber  int       `json:"table_number"`
	Total        Money     `json:"total"`
	Timestamp    time.Time `json:"timestamp"`
}
