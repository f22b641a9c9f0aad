package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
)

const (
	defaultTopN = 10
	maxWorkers  = 4
)

// Filter is the user-facing selection applied before a page is computed.
// Zero Start or End fall back to the dataset bounds; an empty State falls
// back to the first seller state of the filtered records.
type Filter struct {
	Start  time.Time                `json:"start"`
	End    time.Time                `json:"end"`
	State  string                   `json:"state,omitempty"`
	Equals map[dataset.Field]string `json:"equals,omitempty"`
}

func (f Filter) query() dataset.Query {
	return dataset.Query{Start: f.Start, End: f.End, Equals: f.Equals}
}

type Result struct {
	Aggregation Aggregation `json:"aggregation"`
	Value       any         `json:"value"`
}

type PageData struct {
	Page    Page     `json:"page"`
	Title   string   `json:"title"`
	Filter  Filter   `json:"filter"`
	Rows    int      `json:"rows"`
	States  []string `json:"states,omitempty"`
	Results []Result `json:"results"`
}

// Value returns the result of agg, if the page computed it.
func (p PageData) Value(agg Aggregation) (any, bool) {
	for _, r := range p.Results {
		if r.Aggregation == agg {
			return r.Value, true
		}
	}
	return nil, false
}

type Options struct {
	TopN   int
	Source string
	Logger *slog.Logger
}

// Dashboard serves page and aggregation requests over a dataset that never
// changes after construction, so it needs no locking.
type Dashboard struct {
	records  models.RecordSet
	first    time.Time
	last     time.Time
	states   []string
	topN     int
	source   string
	loadedAt time.Time
	logger   *slog.Logger
}

func NewDashboard(records models.RecordSet, opts Options) *Dashboard {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	first, last, _ := dataset.Bounds(records)
	return &Dashboard{
		records:  records,
		first:    first,
		last:     last,
		states:   SellerStates(records),
		topN:     opts.TopN,
		source:   opts.Source,
		loadedAt: time.Now(),
		logger:   opts.Logger,
	}
}

// Load reads the dataset at path and wraps it in a Dashboard.
func Load(ctx context.Context, path string, loadOpts dataset.Options, opts Options) (*Dashboard, error) {
	start := time.Now()
	records, err := dataset.Load(ctx, path, loadOpts)
	if err != nil {
		return nil, err
	}
	observability.ObserveDatasetLoad(len(records), time.Since(start))

	if opts.Source == "" {
		opts.Source = path
	}
	return NewDashboard(records, opts), nil
}

func (d *Dashboard) Records() models.RecordSet {
	return d.records
}

// Bounds returns the earliest and latest purchase instants of the dataset.
func (d *Dashboard) Bounds() (time.Time, time.Time) {
	return d.first, d.last
}

// SellerStates lists every seller state in the dataset, first-seen order.
func (d *Dashboard) SellerStates() []string {
	return slices.Clone(d.states)
}

// Resolve fills the date bounds of f from the dataset.
func (d *Dashboard) Resolve(f Filter) Filter {
	if f.Start.IsZero() {
		f.Start = d.first
	}
	if f.End.IsZero() {
		f.End = d.last
	}
	return f
}

func (d *Dashboard) filter(ctx context.Context, f Filter) (models.RecordSet, error) {
	_, span := observability.StartSpan(ctx, "dashboard.filter")
	defer span.Finish()

	rs, err := f.query().Apply(d.records)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("rows", fmt.Sprint(len(rs)))
	return rs, nil
}

// BuildPage filters the dataset once and computes every aggregation of page
// over the result. The first failing aggregation aborts the page.
func (d *Dashboard) BuildPage(ctx context.Context, page Page, f Filter) (PageData, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.build_page")
	logger := observability.LoggerFrom(ctx, d.logger)
	defer func() {
		span.Finish()
		logger.Debug("span finished", "span", span)
	}()
	span.SetTag("page", string(page))

	if _, err := ParsePage(string(page)); err != nil {
		span.SetError(err)
		return PageData{}, err
	}

	f = d.Resolve(f)
	rs, err := d.filter(ctx, f)
	if err != nil {
		span.SetError(err)
		return PageData{}, err
	}

	aggs := page.Aggregations()
	data := PageData{
		Page:    page,
		Title:   page.Title(),
		Rows:    len(rs),
		Results: make([]Result, len(aggs)),
	}
	if slices.Contains(aggs, AggCategoryRevenueForRegion) {
		data.States = SellerStates(rs)
		if f.State == "" && len(data.States) > 0 {
			f.State = data.States[0]
		}
	}
	data.Filter = f

	params := Params{TopN: d.topN, SellerState: f.State}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, agg := range aggs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, err := Compute(agg, rs, params)
			if err != nil {
				return err
			}
			data.Results[i] = Result{Aggregation: agg, Value: value}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		logger.WarnContext(ctx, "page build failed",
			"page", page,
			"rows", len(rs),
			"error", err)
		return PageData{}, err
	}

	return data, nil
}

// Aggregate computes a single aggregation over the filtered dataset.
func (d *Dashboard) Aggregate(ctx context.Context, agg Aggregation, f Filter) (Result, Filter, error) {
	if _, err := ParseAggregation(string(agg)); err != nil {
		return Result{}, f, err
	}

	f = d.Resolve(f)
	rs, err := d.filter(ctx, f)
	if err != nil {
		return Result{}, f, err
	}
	if agg == AggCategoryRevenueForRegion && f.State == "" {
		if states := SellerStates(rs); len(states) > 0 {
			f.State = states[0]
		}
	}

	value, err := Compute(agg, rs, Params{TopN: d.topN, SellerState: f.State})
	if err != nil {
		return Result{}, f, err
	}
	return Result{Aggregation: agg, Value: value}, f, nil
}

// Stats reports dataset metadata for monitoring.
func (d *Dashboard) Stats() map[string]any {
	return map[string]any{
		"record_count":  len(d.records),
		"source":        d.source,
		"loaded_at":     d.loadedAt,
		"first_order":   d.first,
		"last_order":    d.last,
		"seller_states": len(d.states),
		"pages":         len(pageOrder),
		"aggregations":  len(aggregations),
		"top_n":         d.topN,
	}
}
