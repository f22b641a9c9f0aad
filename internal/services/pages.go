package services

import (
	"fmt"
	"time"

	"olist-dashboard/internal/dataset"
	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
)

type Aggregation string

const (
	AggTotalTransactions        Aggregation = "total_transactions"
	AggAvgTransactionValue      Aggregation = "avg_transaction_value"
	AggTotalRevenueByRegion     Aggregation = "total_revenue_by_region"
	AggRichestRegion            Aggregation = "richest_region"
	AggMostSoldCategory         Aggregation = "most_sold_category"
	AggDominantPaymentType      Aggregation = "dominant_payment_type"
	AggTopNByRevenue            Aggregation = "top_n_by_revenue"
	AggTopNByQuantity           Aggregation = "top_n_by_quantity"
	AggSellerStates             Aggregation = "seller_states"
	AggCategoryRevenueForRegion Aggregation = "category_revenue_for_region"
	AggMonthlyOrderCount        Aggregation = "monthly_order_count"
	AggDailyOrderCountByWeekday Aggregation = "daily_order_count_by_weekday"
	AggAvgPaymentByType         Aggregation = "avg_payment_by_type"
	AggPaymentTypeHistogram     Aggregation = "payment_type_histogram"
	AggPaymentByStatusMatrix    Aggregation = "payment_by_status_matrix"
)

var aggregations = []Aggregation{
	AggTotalTransactions,
	AggAvgTransactionValue,
	AggTotalRevenueByRegion,
	AggRichestRegion,
	AggMostSoldCategory,
	AggDominantPaymentType,
	AggTopNByRevenue,
	AggTopNByQuantity,
	AggSellerStates,
	AggCategoryRevenueForRegion,
	AggMonthlyOrderCount,
	AggDailyOrderCountByWeekday,
	AggAvgPaymentByType,
	AggPaymentTypeHistogram,
	AggPaymentByStatusMatrix,
}

// Aggregations lists every aggregation name in catalogue order.
func Aggregations() []Aggregation {
	out := make([]Aggregation, len(aggregations))
	copy(out, aggregations)
	return out
}

func ParseAggregation(name string) (Aggregation, error) {
	for _, a := range aggregations {
		if string(a) == name {
			return a, nil
		}
	}
	return "", apperrors.NotFound(fmt.Sprintf("unknown aggregation %q", name))
}

// Params carries the inputs some aggregations need beyond the record set.
type Params struct {
	TopN        int
	SellerState string
}

// Compute runs one aggregation over rs. The result is one of: int, string,
// decimal.Decimal, []string, []models.AmountEntry, []models.CountEntry,
// models.Matrix, models.RegionRevenue or models.CategoryCount.
func Compute(agg Aggregation, rs models.RecordSet, p Params) (result any, err error) {
	start := time.Now()
	defer func() {
		observability.ObserveAggregation(string(agg), time.Since(start))
		if err != nil {
			observability.CountAggregationError(string(agg), string(apperrors.CodeOf(err)))
		}
	}()

	switch agg {
	case AggTotalTransactions:
		return TotalTransactions(rs), nil
	case AggAvgTransactionValue:
		return AvgTransactionValue(rs)
	case AggTotalRevenueByRegion:
		return TotalRevenueByRegion(rs), nil
	case AggRichestRegion:
		return RichestRegion(rs)
	case AggMostSoldCategory:
		return MostSoldCategory(rs)
	case AggDominantPaymentType:
		return DominantPaymentType(rs)
	case AggTopNByRevenue:
		return TopNByRevenue(rs, p.TopN), nil
	case AggTopNByQuantity:
		return TopNByQuantity(rs, p.TopN), nil
	case AggSellerStates:
		return SellerStates(rs), nil
	case AggCategoryRevenueForRegion:
		return CategoryRevenueForRegion(rs, p.SellerState), nil
	case AggMonthlyOrderCount:
		return MonthlyOrderCount(rs), nil
	case AggDailyOrderCountByWeekday:
		return DailyOrderCountByWeekday(rs), nil
	case AggAvgPaymentByType:
		return AvgPaymentByType(rs)
	case AggPaymentTypeHistogram:
		return PaymentTypeHistogram(rs), nil
	case AggPaymentByStatusMatrix:
		return PaymentByStatusMatrix(rs), nil
	}
	return nil, apperrors.NotFound(fmt.Sprintf("unknown aggregation %q", agg))
}

// SellerStates lists the seller states present in rs in first-seen order.
func SellerStates(rs models.RecordSet) []string {
	return dataset.Distinct(rs, dataset.FieldSellerState)
}

type Page string

const (
	PageHome                   Page = "home"
	PageProductAnalysis        Page = "product-analysis"
	PageProductDistribution    Page = "product-distribution"
	PageSalesTrends            Page = "sales-trends"
	PagePaymentInsights        Page = "payment-insights"
	PageAdvancedVisualizations Page = "advanced-visualizations"
)

type pageDef struct {
	title        string
	aggregations []Aggregation
}

var pageOrder = []Page{
	PageHome,
	PageProductAnalysis,
	PageProductDistribution,
	PageSalesTrends,
	PagePaymentInsights,
	PageAdvancedVisualizations,
}

var pageDefs = map[Page]pageDef{
	PageHome: {
		title: "Home",
		aggregations: []Aggregation{
			AggTotalTransactions,
			AggAvgTransactionValue,
			AggRichestRegion,
			AggMostSoldCategory,
			AggDominantPaymentType,
		},
	},
	PageProductAnalysis: {
		title:        "Product Analysis",
		aggregations: []Aggregation{AggTopNByRevenue, AggTopNByQuantity},
	},
	PageProductDistribution: {
		title:        "Product Distribution",
		aggregations: []Aggregation{AggSellerStates, AggCategoryRevenueForRegion},
	},
	PageSalesTrends: {
		title:        "Sales Trends",
		aggregations: []Aggregation{AggMonthlyOrderCount, AggDailyOrderCountByWeekday},
	},
	PagePaymentInsights: {
		title:        "Payment Insights",
		aggregations: []Aggregation{AggAvgPaymentByType, AggPaymentTypeHistogram},
	},
	PageAdvancedVisualizations: {
		title:        "Advanced Visualizations",
		aggregations: []Aggregation{AggPaymentByStatusMatrix, AggTotalRevenueByRegion},
	},
}

// Pages lists the dashboard pages in navigation order.
func Pages() []Page {
	out := make([]Page, len(pageOrder))
	copy(out, pageOrder)
	return out
}

func ParsePage(slug string) (Page, error) {
	if slug == "" {
		return PageHome, nil
	}
	p := Page(slug)
	if _, ok := pageDefs[p]; !ok {
		return "", apperrors.NotFound(fmt.Sprintf("unknown page %q", slug))
	}
	return p, nil
}

func (p Page) Title() string {
	return pageDefs[p].title
}

// Aggregations returns the aggregations rendered on p, in display order.
func (p Page) Aggregations() []Aggregation {
	aggs := pageDefs[p].aggregations
	out := make([]Aggregation, len(aggs))
	copy(out, aggs)
	return out
}
