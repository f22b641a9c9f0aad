package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

// PageContentID is the element the SSE endpoint patches on every update.
const PageContentID = "page-content"

var labels = map[services.Aggregation]string{
	services.AggTotalTransactions:        "Total transactions",
	services.AggAvgTransactionValue:      "Average transaction value",
	services.AggTotalRevenueByRegion:     "Revenue by customer state",
	services.AggRichestRegion:            "Richest region",
	services.AggMostSoldCategory:         "Most sold category",
	services.AggDominantPaymentType:      "Dominant payment type",
	services.AggTopNByRevenue:            "Top categories by revenue",
	services.AggTopNByQuantity:           "Top categories by items sold",
	services.AggSellerStates:             "Seller state",
	services.AggCategoryRevenueForRegion: "Category revenue for seller state",
	services.AggMonthlyOrderCount:        "Orders per month",
	services.AggDailyOrderCountByWeekday: "Orders per weekday",
	services.AggAvgPaymentByType:         "Average payment by type",
	services.AggPaymentTypeHistogram:     "Payment type frequency",
	services.AggPaymentByStatusMatrix:    "Payment value by type and order status",
}

func Label(agg services.Aggregation) string {
	if l, ok := labels[agg]; ok {
		return l
	}
	return string(agg)
}

// Page renders the computed results of one dashboard page.
func Page(data services.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div id="`, PageContentID, `" class="page page-`)
		hw.text(string(data.Page))
		hw.raw(`"><header class="page-header"><h2>`)
		hw.text(data.Title)
		hw.raw(`</h2><p class="page-range">`)
		hw.text(fmt.Sprintf("%s to %s, %d order lines",
			data.Filter.Start.Format(dateLayout), data.Filter.End.Format(dateLayout), data.Rows))
		hw.raw(`</p></header>`)

		hw.raw(`<div class="metrics">`)
		for _, r := range data.Results {
			if c, ok := metric(r); ok {
				hw.component(ctx, c)
			}
		}
		hw.raw(`</div><div class="charts">`)
		for _, r := range data.Results {
			if c, ok := chart(r, data); ok {
				hw.component(ctx, c)
			}
		}
		hw.raw(`</div></div>`)
		return hw.err
	})
}

func metric(r services.Result) (templ.Component, bool) {
	label := Label(r.Aggregation)
	switch v := r.Value.(type) {
	case int:
		return MetricCard(label, strconv.Itoa(v)), true
	case decimal.Decimal:
		return MetricCard(label, money(v)), true
	case string:
		return MetricCard(label, v), true
	case models.RegionRevenue:
		return MetricCard(label, fmt.Sprintf("%s (%s)", v.Region, money(v.Revenue))), true
	case models.CategoryCount:
		return MetricCard(label, fmt.Sprintf("%s (%d)", v.Category, v.Count)), true
	}
	return nil, false
}

func chart(r services.Result, data services.PageData) (templ.Component, bool) {
	label := Label(r.Aggregation)
	switch v := r.Value.(type) {
	case []string:
		return StateSelector(label, v, data.Filter.State, data.Page), true
	case []models.AmountEntry:
		if r.Aggregation == services.AggCategoryRevenueForRegion && data.Filter.State != "" {
			label = fmt.Sprintf("%s: %s", label, data.Filter.State)
		}
		return AmountBarChart(label, v), true
	case []models.CountEntry:
		if r.Aggregation == services.AggMonthlyOrderCount {
			return LineChart(label, v), true
		}
		return CountBarChart(label, v), true
	case models.Matrix:
		return Heatmap(label, v), true
	}
	return nil, false
}

// StateSelector binds the state signal and reloads the page on change.
func StateSelector(label string, states []string, selected string, page services.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="state-selector"><label for="state">`)
		hw.text(label)
		hw.raw(`</label><select id="state" data-bind-state data-on-change="@get('`)
		hw.text(PagePath(page))
		hw.raw(`')">`)
		for _, s := range states {
			hw.raw(`<option value="`)
			hw.text(s)
			hw.raw(`"`)
			if s == selected {
				hw.raw(` selected`)
			}
			hw.raw(`>`)
			hw.text(s)
			hw.raw(`</option>`)
		}
		hw.raw(`</select></section>`)
		return hw.err
	})
}

// PagePath is the SSE endpoint that streams page p.
func PagePath(p services.Page) string {
	return "/sse/pages/" + string(p)
}

// ErrorPanel replaces the page content when a page cannot be computed.
func ErrorPanel(title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div id="`, PageContentID, `" class="page page-error"><header class="page-header"><h2>`)
		hw.text(title)
		hw.raw(`</h2></header><p class="empty">`)
		hw.text(message)
		hw.raw(`</p></div>`)
		return hw.err
	})
}
