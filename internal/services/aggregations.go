package services

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

// Grouping rules shared by every aggregation below:
//   - groups are visited in lexicographic key order;
//   - records with an empty grouping key are left out of the grouping;
//   - argmax and mode pick the first maximal group in that order;
//   - rankings are stable sorts, so equal values keep key order.

const monthLayout = "2006-01"

func groupSum(rs models.RecordSet, key func(models.OrderLine) string, value func(models.OrderLine) decimal.Decimal) []models.AmountEntry {
	sums := make(map[string]decimal.Decimal)
	for _, line := range rs {
		k := key(line)
		if k == "" {
			continue
		}
		sums[k] = sums[k].Add(value(line))
	}

	entries := make([]models.AmountEntry, 0, len(sums))
	for k, v := range sums {
		entries = append(entries, models.AmountEntry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// groupCount counts records per key. When counted is non-nil only records
// for which it returns true contribute, mirroring a count over one column.
func groupCount(rs models.RecordSet, key func(models.OrderLine) string, counted func(models.OrderLine) bool) []models.CountEntry {
	counts := make(map[string]int)
	for _, line := range rs {
		k := key(line)
		if k == "" {
			continue
		}
		if counted != nil && !counted(line) {
			if _, ok := counts[k]; !ok {
				counts[k] = 0
			}
			continue
		}
		counts[k]++
	}

	entries := make([]models.CountEntry, 0, len(counts))
	for k, n := range counts {
		entries = append(entries, models.CountEntry{Key: k, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func rankAmounts(entries []models.AmountEntry) []models.AmountEntry {
	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b models.AmountEntry) int {
		return b.Value.Cmp(a.Value)
	})
	return ranked
}

func rankCounts(entries []models.CountEntry, descending bool) []models.CountEntry {
	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b models.CountEntry) int {
		if descending {
			return b.Count - a.Count
		}
		return a.Count - b.Count
	})
	return ranked
}

func firstN[T any](entries []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(entries) <= n {
		return entries
	}
	return entries[:n]
}

func hasOrderID(line models.OrderLine) bool { return line.OrderID != "" }

func byCustomerState(line models.OrderLine) string { return line.CustomerState }
func byCategory(line models.OrderLine) string      { return line.Category }
func byPaymentType(line models.OrderLine) string   { return line.PaymentType }
func byMonth(line models.OrderLine) string         { return line.PurchasedAt.UTC().Format(monthLayout) }
func byWeekday(line models.OrderLine) string       { return line.PurchasedAt.UTC().Weekday().String() }
func price(line models.OrderLine) decimal.Decimal  { return line.Price }
func payment(line models.OrderLine) decimal.Decimal {
	return line.PaymentValue
}

// TotalTransactions is the number of records in rs.
func TotalTransactions(rs models.RecordSet) int {
	return len(rs)
}

// AvgTransactionValue is the mean item price over rs.
func AvgTransactionValue(rs models.RecordSet) (decimal.Decimal, error) {
	if len(rs) == 0 {
		return decimal.Zero, apperrors.EmptyAggregation(string(AggAvgTransactionValue))
	}
	total := decimal.Zero
	for _, line := range rs {
		total = total.Add(line.Price)
	}
	return total.Div(decimal.NewFromInt(int64(len(rs)))), nil
}

// TotalRevenueByRegion sums item prices per customer state.
func TotalRevenueByRegion(rs models.RecordSet) []models.AmountEntry {
	return groupSum(rs, byCustomerState, price)
}

// RichestRegion is the customer state with the highest revenue.
func RichestRegion(rs models.RecordSet) (models.RegionRevenue, error) {
	entries := TotalRevenueByRegion(rs)
	if len(entries) == 0 {
		return models.RegionRevenue{}, apperrors.EmptyAggregation(string(AggRichestRegion))
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Value.GreaterThan(best.Value) {
			best = e
		}
	}
	return models.RegionRevenue{Region: best.Key, Revenue: best.Value}, nil
}

// MostSoldCategory is the category with the most order lines.
func MostSoldCategory(rs models.RecordSet) (models.CategoryCount, error) {
	entries := groupCount(rs, byCategory, hasOrderID)
	if len(entries) == 0 {
		return models.CategoryCount{}, apperrors.EmptyAggregation(string(AggMostSoldCategory))
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Count > best.Count {
			best = e
		}
	}
	return models.CategoryCount{Category: best.Key, Count: best.Count}, nil
}

// DominantPaymentType is the modal payment type.
func DominantPaymentType(rs models.RecordSet) (string, error) {
	entries := groupCount(rs, byPaymentType, nil)
	if len(entries) == 0 {
		return "", apperrors.EmptyAggregation(string(AggDominantPaymentType))
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Count > best.Count {
			best = e
		}
	}
	return best.Key, nil
}

// CategoryRevenue ranks every category by summed price, highest first.
func CategoryRevenue(rs models.RecordSet) []models.AmountEntry {
	return rankAmounts(groupSum(rs, byCategory, price))
}

func TopNByRevenue(rs models.RecordSet, n int) []models.AmountEntry {
	return firstN(CategoryRevenue(rs), n)
}

func TopNByQuantity(rs models.RecordSet, n int) []models.CountEntry {
	return firstN(rankCounts(groupCount(rs, byCategory, hasOrderID), true), n)
}

// CategoryRevenueForRegion ranks categories by revenue among items shipped
// by sellers in sellerState.
func CategoryRevenueForRegion(rs models.RecordSet, sellerState string) []models.AmountEntry {
	scoped := make(models.RecordSet, 0)
	for _, line := range rs {
		if line.SellerState == sellerState {
			scoped = append(scoped, line)
		}
	}
	return CategoryRevenue(scoped)
}

// MonthlyOrderCount counts records per calendar month, oldest first.
func MonthlyOrderCount(rs models.RecordSet) []models.CountEntry {
	return groupCount(rs, byMonth, nil)
}

// DailyOrderCountByWeekday counts order lines per weekday name, ordered by
// ascending count.
func DailyOrderCountByWeekday(rs models.RecordSet) []models.CountEntry {
	return rankCounts(groupCount(rs, byWeekday, hasOrderID), false)
}

// AvgPaymentByType is the mean payment value per payment type.
func AvgPaymentByType(rs models.RecordSet) ([]models.AmountEntry, error) {
	if len(rs) == 0 {
		return nil, apperrors.EmptyAggregation(string(AggAvgPaymentByType))
	}
	sums := groupSum(rs, byPaymentType, payment)
	counts := groupCount(rs, byPaymentType, nil)

	means := make([]models.AmountEntry, len(sums))
	for i, s := range sums {
		// both slices are keyed and ordered identically
		means[i] = models.AmountEntry{
			Key:   s.Key,
			Value: s.Value.Div(decimal.NewFromInt(int64(counts[i].Count))),
		}
	}
	return means, nil
}

// PaymentTypeHistogram counts occurrences of each payment type, most common first.
func PaymentTypeHistogram(rs models.RecordSet) []models.CountEntry {
	return rankCounts(groupCount(rs, byPaymentType, nil), true)
}

// PaymentByStatusMatrix sums payment values per payment type and order status.
func PaymentByStatusMatrix(rs models.RecordSet) models.Matrix {
	cells := make(map[string]map[string]decimal.Decimal)
	cols := make(map[string]struct{})
	for _, line := range rs {
		if line.PaymentType == "" || line.OrderStatus == "" {
			continue
		}
		row, ok := cells[line.PaymentType]
		if !ok {
			row = make(map[string]decimal.Decimal)
			cells[line.PaymentType] = row
		}
		row[line.OrderStatus] = row[line.OrderStatus].Add(line.PaymentValue)
		cols[line.OrderStatus] = struct{}{}
	}

	m := models.Matrix{
		Rows:  make([]string, 0, len(cells)),
		Cols:  make([]string, 0, len(cols)),
		Cells: cells,
	}
	for r := range cells {
		m.Rows = append(m.Rows, r)
	}
	for c := range cols {
		m.Cols = append(m.Cols, c)
	}
	sort.Strings(m.Rows)
	sort.Strings(m.Cols)
	return m
}
