package domain

import "time"

// RevenueLedger is the per-restaurant accumulating revenue counter. It
// only moves by crediting a qualifying order total or by an explicit
// owner reset.
type RevenueLedger struct {
	RestaurantID string    `json:"restaurant_id"`
	Revenue      Money     `json:"revenue"`
	LastReset    time.Time `json:"last_reset"`
}
