package dataset

import (
	"sort"
	"time"

	"olist-dashboard/internal/models"
)

// FilterByDateRange returns the records purchased within [start, end], both
// ends inclusive. A start after end is not an error; it matches nothing.
func FilterByDateRange(rs models.RecordSet, start, end time.Time) models.RecordSet {
	out := make(models.RecordSet, 0)
	if start.After(end) {
		return out
	}
	for _, line := range rs {
		if line.PurchasedAt.Before(start) || line.PurchasedAt.After(end) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func FilterByEquality(rs models.RecordSet, field Field, value string) (models.RecordSet, error) {
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}
	out := make(models.RecordSet, 0)
	for _, line := range rs {
		if field.Value(line) == value {
			out = append(out, line)
		}
	}
	return out, nil
}

// Query combines a date range with equality filters. A zero Start or End
// leaves that side of the range open.
type Query struct {
	Start  time.Time
	End    time.Time
	Equals map[Field]string
}

func (q Query) Apply(rs models.RecordSet) (models.RecordSet, error) {
	start, end := q.Start, q.End
	if start.IsZero() || end.IsZero() {
		first, last, ok := Bounds(rs)
		if !ok {
			return models.RecordSet{}, nil
		}
		if start.IsZero() {
			start = first
		}
		if end.IsZero() {
			end = last
		}
	}

	out := FilterByDateRange(rs, start, end)

	fields := make([]Field, 0, len(q.Equals))
	for f := range q.Equals {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	for _, f := range fields {
		var err error
		out, err = FilterByEquality(out, f, q.Equals[f])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
