package templates

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/a-h/templ"

	"olist-dashboard/internal/services"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"

// Shell is everything the full dashboard document needs besides the page.
type Shell struct {
	Pages   []services.Page
	Current services.PageData
	MinDate time.Time
	MaxDate time.Time
	// Error, when set, is shown instead of the page results.
	Error string
}

// Signals is the client state Datastar keeps in sync with the server.
type Signals struct {
	Page  string `json:"page"`
	Start string `json:"start"`
	End   string `json:"end"`
	State string `json:"state"`
}

// SignalsFor derives the client signals from an effective page filter.
func SignalsFor(data services.PageData) Signals {
	return Signals{
		Page:  string(data.Page),
		Start: data.Filter.Start.Format(dateLayout),
		End:   data.Filter.End.Format(dateLayout),
		State: data.Filter.State,
	}
}

func Dashboard(shell Shell) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := json.Marshal(SignalsFor(shell.Current))
		if err != nil {
			return err
		}

		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>E-commerce Dashboard</title>`,
			`<script type="module" src="`, datastarScript, `"></script>`,
			`<style>`, styles, `</style></head>`)
		hw.raw(`<body data-signals="`)
		hw.text(string(signals))
		hw.raw(`"><h1>E-commerce Data Analysis Dashboard</h1><div class="layout">`)
		hw.component(ctx, Sidebar(shell))
		hw.raw(`<main>`)
		if shell.Error != "" {
			hw.component(ctx, ErrorPanel(shell.Current.Title, shell.Error))
		} else {
			hw.component(ctx, Page(shell.Current))
		}
		hw.raw(`</main></div></body></html>`)
		return hw.err
	})
}

// Sidebar holds the date range inputs and page navigation. Changing a date
// reloads the current page; choosing a page loads it with the same range.
func Sidebar(shell Shell) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		minDate := shell.MinDate.Format(dateLayout)
		maxDate := shell.MaxDate.Format(dateLayout)

		hw.raw(`<aside class="sidebar"><h2>Navigation</h2><h3>Filter Data</h3>`)
		for _, input := range []struct{ name, label string }{{"start", "Start Date"}, {"end", "End Date"}} {
			hw.raw(`<label>`)
			hw.text(input.label)
			hw.raw(`<input type="date" min="`, minDate, `" max="`, maxDate, `" data-bind-`, input.name,
				` data-on-change="@get('/sse/pages/' + $page)"></label>`)
		}

		hw.raw(`<nav><ul>`)
		for _, p := range shell.Pages {
			hw.raw(`<li><button type="button" data-class-active="$page == '`)
			hw.text(string(p))
			hw.raw(`'" data-on-click="$page = '`)
			hw.text(string(p))
			hw.raw(`'; $state = ''; @get('`)
			hw.text(PagePath(p))
			hw.raw(`')">`)
			hw.text(p.Title())
			hw.raw(`</button></li>`)
		}
		hw.raw(`</ul></nav></aside>`)
		return hw.err
	})
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7fb;color:#1f2430}
h1{margin:0;padding:1rem 1.5rem;background:#1f2430;color:#fff;font-size:1.4rem}
.layout{display:flex;min-height:calc(100vh - 3.5rem)}
.sidebar{width:16rem;padding:1rem;background:#fff;border-right:1px solid #e3e5ec}
.sidebar label{display:block;margin-bottom:.75rem;font-size:.85rem}
.sidebar input{display:block;width:100%;margin-top:.25rem}
.sidebar nav ul{list-style:none;padding:0}
.sidebar button{width:100%;text-align:left;padding:.5rem;border:0;background:none;cursor:pointer}
.sidebar button.active{background:#e8ecff;font-weight:600}
main{flex:1;padding:1.5rem}
.metrics{display:flex;flex-wrap:wrap;gap:1rem;margin-bottom:1.5rem}
.metric-card{background:#fff;padding:1rem;border-radius:.5rem;min-width:12rem;display:flex;flex-direction:column}
.metric-label{font-size:.8rem;color:#667}
.metric-value{font-size:1.3rem;font-weight:600}
.chart{background:#fff;padding:1rem;border-radius:.5rem;margin-bottom:1.5rem}
.bar-chart ul{list-style:none;padding:0;margin:0}
.bar-chart li{display:grid;grid-template-columns:14rem 1fr 8rem;gap:.5rem;align-items:center;margin:.25rem 0}
.bar-track{background:#eef0f5;height:.9rem;border-radius:.2rem}
.bar-fill{display:block;height:100%;background:#4f6bed;border-radius:.2rem}
.bar-value{text-align:right;font-variant-numeric:tabular-nums}
.line-chart svg{width:100%;height:auto;color:#4f6bed}
.heatmap td{text-align:right;background:rgb(79 107 237 / var(--heat,0%))}
.modern-table{border-collapse:collapse;width:100%}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e3e5ec}
.empty{color:#889}
`
