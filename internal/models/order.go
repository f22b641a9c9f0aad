package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one joined row of the merged dataset: an order item together
// with its product, payment, customer and seller attributes. An order with
// several items or payments spans several rows.
type OrderLine struct {
	OrderID       string
	PurchasedAt   time.Time
	Price         decimal.Decimal
	PaymentType   string
	PaymentValue  decimal.Decimal
	Category      string
	CustomerState string
	SellerState   string
	OrderStatus   string
}

// RecordSet is the unit passed between the load, filter and aggregation
// stages. Stages never modify a RecordSet they receive.
type RecordSet []OrderLine

type AmountEntry struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
}

type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Matrix is a sparse two-dimensional table. Rows and Cols list every key
// present in sorted order; combinations without records are absent from Cells.
type Matrix struct {
	Rows  []string                              `json:"rows"`
	Cols  []string                              `json:"cols"`
	Cells map[string]map[string]decimal.Decimal `json:"cells"`
}

func (m Matrix) Value(row, col string) (decimal.Decimal, bool) {
	cols, ok := m.Cells[row]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := cols[col]
	return v, ok
}

// Max returns the largest cell value, or zero for an empty matrix.
func (m Matrix) Max() decimal.Decimal {
	top := decimal.Zero
	for _, cols := range m.Cells {
		for _, v := range cols {
			if v.GreaterThan(top) {
				top = v
			}
		}
	}
	return top
}

type RegionRevenue struct {
	Region  string          `json:"region"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
