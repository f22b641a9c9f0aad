package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

const (
	lineChartWidth  = 640
	lineChartHeight = 240
	lineChartPad    = 32
)

func MetricCard(label, value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="metric-card"><span class="metric-label">`)
		hw.text(label)
		hw.raw(`</span><span class="metric-value">`)
		hw.text(value)
		hw.raw(`</span></div>`)
		return hw.err
	})
}

type bar struct {
	label string
	value decimal.Decimal
	text  string
}

func barChart(title string, bars []bar) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="chart bar-chart"><h3>`)
		hw.text(title)
		hw.raw(`</h3>`)
		if len(bars) == 0 {
			hw.raw(`<p class="empty">No data for the selected period.</p></section>`)
			return hw.err
		}

		top := decimal.Zero
		for _, b := range bars {
			if b.value.GreaterThan(top) {
				top = b.value
			}
		}

		hw.raw(`<ul>`)
		for _, b := range bars {
			hw.raw(`<li><span class="bar-label">`)
			hw.text(b.label)
			hw.raw(`</span><span class="bar-track"><span class="bar-fill" style="width:`, share(b.value, top), `"></span></span><span class="bar-value">`)
			hw.text(b.text)
			hw.raw(`</span></li>`)
		}
		hw.raw(`</ul></section>`)
		return hw.err
	})
}

// AmountBarChart draws one horizontal bar per entry, scaled to the largest.
func AmountBarChart(title string, entries []models.AmountEntry) templ.Component {
	bars := make([]bar, len(entries))
	for i, e := range entries {
		bars[i] = bar{label: e.Key, value: e.Value, text: money(e.Value)}
	}
	return barChart(title, bars)
}

func CountBarChart(title string, entries []models.CountEntry) templ.Component {
	bars := make([]bar, len(entries))
	for i, e := range entries {
		bars[i] = bar{label: e.Key, value: decimal.NewFromInt(int64(e.Count)), text: strconv.Itoa(e.Count)}
	}
	return barChart(title, bars)
}

// LineChart plots counts in entry order as an SVG polyline.
func LineChart(title string, entries []models.CountEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="chart line-chart"><h3>`)
		hw.text(title)
		hw.raw(`</h3>`)
		if len(entries) == 0 {
			hw.raw(`<p class="empty">No data for the selected period.</p></section>`)
			return hw.err
		}

		top := 0
		for _, e := range entries {
			top = max(top, e.Count)
		}
		if top == 0 {
			top = 1
		}

		plotW := float64(lineChartWidth - 2*lineChartPad)
		plotH := float64(lineChartHeight - 2*lineChartPad)
		step := 0.0
		if len(entries) > 1 {
			step = plotW / float64(len(entries)-1)
		}

		points := make([]string, len(entries))
		for i, e := range entries {
			x := float64(lineChartPad) + step*float64(i)
			y := float64(lineChartPad) + plotH*(1-float64(e.Count)/float64(top))
			points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
		}

		hw.raw(fmt.Sprintf(`<svg viewBox="0 0 %d %d" role="img">`, lineChartWidth, lineChartHeight))
		hw.raw(`<polyline fill="none" stroke="currentColor" stroke-width="2" points="`, strings.Join(points, " "), `"/>`)
		for i, e := range entries {
			xy := strings.SplitN(points[i], ",", 2)
			hw.raw(`<circle r="3" cx="`, xy[0], `" cy="`, xy[1], `"><title>`)
			hw.text(fmt.Sprintf("%s: %d", e.Key, e.Count))
			hw.raw(`</title></circle>`)
		}
		first, last := entries[0].Key, entries[len(entries)-1].Key
		hw.raw(fmt.Sprintf(`<text x="%d" y="%d">`, lineChartPad, lineChartHeight-8))
		hw.text(first)
		hw.raw(fmt.Sprintf(`</text><text x="%d" y="%d" text-anchor="end">`, lineChartWidth-lineChartPad, lineChartHeight-8))
		hw.text(last)
		hw.raw(`</text></svg></section>`)
		return hw.err
	})
}

// Heatmap renders m as a table whose cell shading follows the cell value.
func Heatmap(title string, m models.Matrix) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="chart heatmap"><h3>`)
		hw.text(title)
		hw.raw(`</h3>`)
		if len(m.Rows) == 0 {
			hw.raw(`<p class="empty">No data for the selected period.</p></section>`)
			return hw.err
		}

		top := m.Max()
		hw.raw(`<table class="modern-table"><thead><tr><th></th>`)
		for _, col := range m.Cols {
			hw.raw(`<th>`)
			hw.text(col)
			hw.raw(`</th>`)
		}
		hw.raw(`</tr></thead><tbody>`)
		for _, row := range m.Rows {
			hw.raw(`<tr><th>`)
			hw.text(row)
			hw.raw(`</th>`)
			for _, col := range m.Cols {
				v, ok := m.Value(row, col)
				if !ok {
					hw.raw(`<td class="absent"></td>`)
					continue
				}
				hw.raw(`<td style="--heat:`, share(v, top), `">`)
				hw.text(v.StringFixed(2))
				hw.raw(`</td>`)
			}
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table></section>`)
		return hw.err
	})
}
