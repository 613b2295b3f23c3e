package report

import (
	"testing"
	"time"

	"github.com/scandine/scandine/internal/domain"
)

func TestMonthRange(t *testing.T) {
	t.Run("march 2024", func(t *testing.T) {
		start, end := MonthRange(2024, time.March)

		if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
			t.Errorf("start = %v, want %v", start, want)
		}
		if want := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
			t.Errorf("end = %v, want %v", end, want)
		}
	})

	t.Run("december rolls into next year", func(t *testing.T) {
		_, end := MonthRange(2024, time.December)
		if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
			t.Errorf("end = %v, want %v", end, want)
		}
	})
}

func TestRows(t *testing.T) {
	created := time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)
	orders := []domain.Order{
		{
			ID:          "o-1",
			TableNumber: 5,
			Total:       1000,
			Status:      domain.OrderStatusCompleted,
			CreatedAt:   created,
			Items: []domain.LineItem{
				{Name: "Soup", Price: 400, Quantity: 2},
				{Name: "Bread", Price: 200, Quantity: 1},
			},
		},
	}

	rows := Rows(orders)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.Date != "3/5/2024" {
		t.Errorf("Date = %q", row.Date)
	}
	if row.Time != "2:30:15 PM" {
		t.Errorf("Time = %q", row.Time)
	}
	if row.TableNumber != 5 {
		t.Errorf("TableNumber = %d", row.TableNumber)
	}
	if row.TotalAmount != "$10.00" {
		t.Errorf("TotalAmount = %q", row.TotalAmount)
	}
	if row.Items != "Soup (x2), Bread (x1)" {
		t.Errorf("Items = %q", row.Items)
	}
	if row.Status != "Completed" {
		t.Errorf("Status = %q", row.Status)
	}
}

func TestRowsEmpty(t *testing.T) {
	if rows := Rows(nil); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestXLSXEncoder(t *testing.T) {
	rows := Rows([]domain.Order{
		{
			TableNumber: 2,
			Total:       550,
			Status:      domain.OrderStatusPaid,
			CreatedAt:   time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
			Items:       []domain.LineItem{{Name: "Coffee", Price: 550, Quantity: 1}},
		},
	})

	data, err := NewXLSXEncoder().Encode(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook")
	}
	// xlsx files are zip archives
	if data[0] != 'P' || data[1] != 'K' {
		t.Errorf("expected zip magic, got %x%x", data[0], data[1])
	}
}
