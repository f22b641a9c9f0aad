package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/ui/templates"
)

const (
	dateLayout = "2006-01-02"
	// Datastar sends its signals as JSON in this query parameter on GET.
	datastarParam = "datastar"
)

// parseDate accepts a calendar date or an RFC 3339 instant. A calendar date
// is read as midnight UTC, or as the last instant of that day when endOfDay
// is set, so a date range covers its final day. An empty value yields the
// zero time.
func parseDate(name, value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err,
			fmt.Sprintf("%s must be YYYY-MM-DD or RFC 3339, got %q", name, value))
	}
	return t.UTC(), nil
}

// ParseFilter reads start, end, state and any filterable column from the
// query string. When the request comes from Datastar, its signals take
// precedence over plain query parameters.
func ParseFilter(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	start, end, state := q.Get("start"), q.Get("end"), q.Get("state")

	if q.Has(datastarParam) {
		var signals templates.Signals
		if err := datastar.ReadSignals(r, &signals); err != nil {
			return services.Filter{}, errors.BadRequestWrap(err, "invalid datastar signals")
		}
		if signals.Start != "" {
			start = signals.Start
		}
		if signals.End != "" {
			end = signals.End
		}
		state = signals.State
	}

	var f services.Filter
	var err error
	if f.Start, err = parseDate("start", start, false); err != nil {
		return services.Filter{}, err
	}
	if f.End, err = parseDate("end", end, true); err != nil {
		return services.Filter{}, err
	}
	f.State = state

	for _, field := range dataset.Fields() {
		if v := q.Get(string(field)); v != "" {
			if f.Equals == nil {
				f.Equals = make(map[dataset.Field]string)
			}
			f.Equals[field] = v
		}
	}
	return f, nil
}
