package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

// Field names a categorical column that records can be filtered on.
type Field string

const (
	FieldCustomerState Field = "customer_state"
	FieldSellerState   Field = "seller_state"
	FieldPaymentType   Field = "payment_type"
	FieldOrderStatus   Field = "order_status"
	FieldCategory      Field = "product_category_name_english"
)

var filterFields = []Field{
	FieldCustomerState,
	FieldSellerState,
	FieldPaymentType,
	FieldOrderStatus,
	FieldCategory,
}

// Fields lists the filterable columns.
func Fields() []Field {
	out := make([]Field, len(filterFields))
	copy(out, filterFields)
	return out
}

func ParseField(name string) (Field, error) {
	for _, f := range filterFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", apperrors.Validation(fmt.Sprintf("unknown filter field %q", name))
}

func (f Field) Value(line models.OrderLine) string {
	switch f {
	case FieldCustomerState:
		return line.CustomerState
	case FieldSellerState:
		return line.SellerState
	case FieldPaymentType:
		return line.PaymentType
	case FieldOrderStatus:
		return line.OrderStatus
	case FieldCategory:
		return line.Category
	default:
		return ""
	}
}

// Column order used by the loaders, the importer and the SQLite schema.
const (
	colOrderID = iota
	colPurchasedAt
	colPrice
	colPaymentType
	colPaymentValue
	colCategory
	colCustomerState
	colSellerState
	colOrderStatus
	numColumns
)

var Columns = [numColumns]string{
	colOrderID:       "order_id",
	colPurchasedAt:   "order_purchase_timestamp",
	colPrice:         "price",
	colPaymentType:   "payment_type",
	colPaymentValue:  "payment_value",
	colCategory:      string(FieldCategory),
	colCustomerState: string(FieldCustomerState),
	colSellerState:   string(FieldSellerState),
	colOrderStatus:   string(FieldOrderStatus),
}

// TimestampLayout is the canonical text form of order_purchase_timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// parseAmount treats an empty cell as zero; anything else must be a decimal.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

// columnIndex maps each required column to its position in a header row.
type columnIndex [numColumns]int

func indexHeader(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	var idx columnIndex
	var missing []string
	for i, name := range Columns {
		pos, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = pos
	}
	if len(missing) > 0 {
		return idx, apperrors.Schema("dataset is missing required columns").
			WithDetails("missing: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func identityIndex() columnIndex {
	var idx columnIndex
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (idx columnIndex) width() int {
	w := 0
	for _, pos := range idx {
		if pos+1 > w {
			w = pos + 1
		}
	}
	return w
}

// parseRow converts one raw row into a typed record. row is the 1-based data
// row number used in error messages.
func parseRow(record []string, idx columnIndex, row int) (models.OrderLine, error) {
	if len(record) < idx.width() {
		return models.OrderLine{}, apperrors.Parse(
			fmt.Errorf("has %d fields, need %d", len(record), idx.width()),
			fmt.Sprintf("row %d", row))
	}

	purchasedAt, err := parseTimestamp(record[idx[colPurchasedAt]])
	if err != nil {
		return models.OrderLine{}, apperrors.Parse(err, fmt.Sprintf("row %d: column %s", row, Columns[colPurchasedAt]))
	}

	price, err := parseAmount(record[idx[colPrice]])
	if err != nil {
		return models.OrderLine{}, apperrors.Parse(err, fmt.Sprintf("row %d: column %s", row, Columns[colPrice]))
	}

	paymentValue, err := parseAmount(record[idx[colPaymentValue]])
	if err != nil {
		return models.OrderLine{}, apperrors.Parse(err, fmt.Sprintf("row %d: column %s", row, Columns[colPaymentValue]))
	}

	return models.OrderLine{
		OrderID:       strings.TrimSpace(record[idx[colOrderID]]),
		PurchasedAt:   purchasedAt,
		Price:         price,
		PaymentType:   strings.TrimSpace(record[idx[colPaymentType]]),
		PaymentValue:  paymentValue,
		Category:      strings.TrimSpace(record[idx[colCategory]]),
		CustomerState: strings.TrimSpace(record[idx[colCustomerState]]),
		SellerState:   strings.TrimSpace(record[idx[colSellerState]]),
		OrderStatus:   strings.TrimSpace(record[idx[colOrderStatus]]),
	}, nil
}

// formatRow is the inverse of parseRow over the canonical column order.
func formatRow(line models.OrderLine) []any {
	return []any{
		line.OrderID,
		line.PurchasedAt.UTC().Format(TimestampLayout),
		line.Price.String(),
		line.PaymentType,
		line.PaymentValue.String(),
		line.Category,
		line.CustomerState,
		line.SellerState,
		line.OrderStatus,
	}
}
