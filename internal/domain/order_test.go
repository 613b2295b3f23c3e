package domain

import (
	"math"
	"testing"
	"time"
)

func TestNewOrder(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC)

	items := func() []LineItem {
		return []LineItem{
			{MenuItemID: "m-1", Name: "Soup", Price: 400, Quantity: 2},
			{MenuItemID: "m-2", Name: "Bread", Price: 200, Quantity: 1},
		}
	}

	t.Run("computes total from line items", func(t *testing.T) {
		order, err := NewOrder("r-1", 5, items(), 0, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Total != 1000 {
			t.Errorf("expected total 1000, got %d", order.Total)
		}
		if order.Status != OrderStatusPending {
			t.Errorf("expected status pending, got %s", order.Status)
		}
		if !order.CreatedAt.Equal(now) {
			t.Errorf("expected created_at %v, got %v", now, order.CreatedAt)
		}
	})

	t.Run("accepts matching client total", func(t *testing.T) {
		if _, err := NewOrder("r-1", 5, items(), 1000, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects mismatched client total", func(t *testing.T) {
		_, err := NewOrder("r-1", 5, items(), 999, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := NewOrder("r-1", 5, nil, 0, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects non-positive table number", func(t *testing.T) {
		_, err := NewOrder("r-1", 0, items(), 0, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		bad := items()
		bad[0].Quantity = 0
		_, err := NewOrder("r-1", 5, bad, 0, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects missing restaurant id", func(t *testing.T) {
		_, err := NewOrder("", 5, items(), 0, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects total overflowing across items", func(t *testing.T) {
		// every line passes its own overflow guard; only the sum wraps
		huge := []LineItem{
			{MenuItemID: "m-1", Name: "A", Price: math.MaxInt64 / 2, Quantity: 1},
			{MenuItemID: "m-2", Name: "B", Price: math.MaxInt64 / 2, Quantity: 1},
			{MenuItemID: "m-3", Name: "C", Price: math.MaxInt64 / 2, Quantity: 1},
		}
		_, err := NewOrder("r-1", 5, huge, 0, now)
		if !IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusCompleted, OrderStatusPaid, false},
		{OrderStatusCompleted, OrderStatusCompleted, false},
		{OrderStatusPaid, OrderStatusCompleted, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusPending, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreditsRevenue(t *testing.T) {
	if !CreditsRevenue(OrderStatusCompleted) {
		t.Error("completed should credit revenue")
	}
	if !CreditsRevenue(OrderStatusPaid) {
		t.Error("paid should credit revenue")
	}
	if CreditsRevenue(OrderStatusPending) {
		t.Error("pending should not credit revenue")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1000, "$10.00"},
		{123456, "$1234.56"},
		{-250, "-$2.50"},
	}

	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("Money(%d).String() = %q, want %q", int64(tc.in), got, tc.want)
		}
	}
}
