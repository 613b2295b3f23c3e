// Package report derives the monthly order export for a restaurant.
// It produces formatted rows; binary spreadsheet encoding sits behind
// the Encoder interface.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/scandine/scandine/internal/domain"
)

// Row is one order in the monthly export, already formatted for display.
type Row struct {
	Date        string
	Time        string
	TableNumber int
	TotalAmount string
	Items       string
	Status      string
}

var Headers = []string{"Date", "Time", "Table Number", "Total Amount", "Items", "Status"}

// ColumnWidths annotates the export columns, in spreadsheet character
// units. Index-aligned with Headers.
var ColumnWidths = []float64{12, 10, 8, 12, 50, 10}

// Encoder turns report rows into a binary spreadsheet document.
type Encoder interface {
	Encode(rows []Row) ([]byte, error)
}

// MonthRange returns the half-open bounds of a 1-based calendar month,
// in UTC: midnight on the first day up to, excluding, midnight on the
// first day of the next month. Half-open so that an order created at
// exactly midnight on the 1st lands in exactly one month, regardless of
// the store's timestamp precision.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Rows formats one row per order, preserving the input order.
func Rows(orders []domain.Order) []Row {
	rows := make([]Row, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, Row{
			Date:        order.CreatedAt.Format("1/2/2006"),
			Time:        order.CreatedAt.Format("3:04:05 PM"),
			TableNumber: order.TableNumber,
			TotalAmount: order.Total.String(),
			Items:       formatItems(order.Items),
			Status:      capitalize(string(order.Status)),
		})
	}
	return rows
}

func formatItems(items []domain.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (x%d)", item.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
