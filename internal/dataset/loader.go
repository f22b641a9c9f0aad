package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

type Options struct {
	// Table is the SQLite table holding the records.
	Table string
	// SkipMalformed quarantines rows that fail to parse instead of failing the load.
	SkipMalformed bool
	// CacheDir enables the gob snapshot cache when non-empty.
	CacheDir string
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Load reads the dataset at path into memory. Paths ending in .db, .sqlite or
// .sqlite3 are read from SQLite; anything else is read as CSV with a header row.
func Load(ctx context.Context, path string, opts Options) (models.RecordSet, error) {
	logger := opts.logger()

	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Load(err, fmt.Sprintf("cannot access dataset %s", path))
	}

	key := keyFor(path, opts)
	if opts.CacheDir != "" {
		if records, err := loadSnapshot(opts.CacheDir, key, info.ModTime()); err == nil {
			logger.Info("loaded dataset from cache", "path", path, "records", len(records))
			return records, nil
		}
	}

	start := time.Now()
	var records models.RecordSet
	if isSQLite(path) {
		records, err = loadSQLite(ctx, path, opts)
	} else {
		records, err = loadCSV(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	logger.Info("dataset loaded",
		"path", path,
		"records", len(records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(records))/duration.Seconds()))

	if opts.CacheDir != "" {
		if err := saveSnapshot(opts.CacheDir, key, records); err != nil {
			logger.Warn("failed to save dataset cache", "error", err)
		}
	}

	return records, nil
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

func loadCSV(ctx context.Context, path string, opts Options) (models.RecordSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Load(err, fmt.Sprintf("open %s", path))
	}
	defer file.Close()

	return readCSV(ctx, file, opts)
}

func readCSV(ctx context.Context, r io.Reader, opts Options) (models.RecordSet, error) {
	reader := csv.NewReader(bufio.NewReaderSize(r, 1024*1024))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.Load(nil, "empty file")
	}
	if err != nil {
		return nil, apperrors.Load(err, "read header")
	}

	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		if len(raw)%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Load(err, "read csv")
		}
		raw = append(raw, record)
	}

	return parseRows(ctx, raw, idx, opts)
}

type parsedRow struct {
	line models.OrderLine
	err  error
}

// parseRows parses raw rows in parallel batches. Output order matches input
// order; with SkipMalformed unset the error of the earliest bad row is returned.
func parseRows(ctx context.Context, raw [][]string, idx columnIndex, opts Options) (models.RecordSet, error) {
	parsed := make([]parsedRow, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(raw); start += batchSize {
		end := min(start+batchSize, len(raw))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1000 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				line, err := parseRow(raw[i], idx, i+1)
				parsed[i] = parsedRow{line: line, err: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make(models.RecordSet, 0, len(parsed))
	skipped := 0
	for _, p := range parsed {
		if p.err != nil {
			if !opts.SkipMalformed {
				return nil, p.err
			}
			if skipped < 10 {
				opts.logger().Warn("skipping malformed row", "error", p.err)
			}
			skipped++
			continue
		}
		records = append(records, p.line)
	}

	if skipped > 0 {
		opts.logger().Warn("quarantined malformed rows", "skipped", skipped, "kept", len(records))
	}

	if len(records) == 0 {
		return nil, apperrors.Load(nil, "no valid records found")
	}

	return records, nil
}

// Bounds returns the earliest and latest purchase time in rs. ok is false for
// an empty set.
func Bounds(rs models.RecordSet) (first, last time.Time, ok bool) {
	if len(rs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = rs[0].PurchasedAt, rs[0].PurchasedAt
	for _, line := range rs[1:] {
		if line.PurchasedAt.Before(first) {
			first = line.PurchasedAt
		}
		if line.PurchasedAt.After(last) {
			last = line.PurchasedAt
		}
	}
	return first, last, true
}

// Distinct returns the non-empty values of field in rs in first-seen order.
func Distinct(rs models.RecordSet, field Field) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, line := range rs {
		v := field.Value(line)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
