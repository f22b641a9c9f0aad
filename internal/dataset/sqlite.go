package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
)

const defaultTable = "order_lines"

func tableName(opts Options) string {
	if opts.Table == "" {
		return defaultTable
	}
	return opts.Table
}

func loadSQLite(ctx context.Context, path string, opts Options) (models.RecordSet, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Load(err, fmt.Sprintf("open sqlite %s", path))
	}
	defer db.Close()

	table := tableName(opts)
	cols, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, apperrors.Load(err, fmt.Sprintf("inspect table %s", table))
	}
	if len(cols) == 0 {
		return nil, apperrors.Schema(fmt.Sprintf("table %q not found", table))
	}

	var missing []string
	for _, name := range Columns {
		if !contains(cols, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Schema(fmt.Sprintf("table %q is missing required columns", table)).
			WithDetails("missing: %s", strings.Join(missing, ", "))
	}

	query := `SELECT ` + joinIdents(Columns[:]) + ` FROM ` + quoteIdent(table) + ` ORDER BY rowid`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Load(err, fmt.Sprintf("query table %s", table))
	}
	defer rows.Close()

	var raw [][]string
	values := make([]sql.NullString, numColumns)
	dest := make([]any, numColumns)
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.Load(err, "scan row")
		}
		record := make([]string, numColumns)
		for i, v := range values {
			record[i] = v.String
		}
		raw = append(raw, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Load(err, "iterate rows")
	}

	return parseRows(ctx, raw, identityIndex(), opts)
}

// ImportCSV loads csvPath and writes its records to table in the SQLite
// database at dbPath, replacing any existing table of that name. It returns
// the number of rows written.
func ImportCSV(ctx context.Context, csvPath, dbPath string, opts Options) (int, error) {
	if _, err := os.Stat(csvPath); err != nil {
		return 0, apperrors.Load(err, fmt.Sprintf("cannot access %s", csvPath))
	}

	records, err := loadCSV(ctx, csvPath, opts)
	if err != nil {
		return 0, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer db.Close()

	table := tableName(opts)
	if err := writeTable(ctx, db, table, records); err != nil {
		return 0, err
	}

	opts.logger().Info("dataset imported", "csv", csvPath, "db", dbPath, "table", table, "rows", len(records))
	return len(records), nil
}

func writeTable(ctx context.Context, db *sql.DB, table string, records models.RecordSet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	defs := make([]string, 0, numColumns)
	for _, name := range Columns {
		defs = append(defs, quoteIdent(name)+" TEXT")
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(table)+` (`+strings.Join(defs, ",")+`)`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	ph := strings.TrimSuffix(strings.Repeat("?,", numColumns), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(table)+` (`+joinIdents(Columns[:])+`) VALUES (`+ph+`)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, line := range records {
		if _, err := stmt.ExecContext(ctx, formatRow(line)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	for _, col := range []string{Columns[colPurchasedAt], Columns[colSellerState]} {
		idx := quoteIdent("idx_" + table + "_" + col)
		if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS `+idx+` ON `+quoteIdent(table)+`(`+quoteIdent(col)+`)`); err != nil {
			return fmt.Errorf("create index on %s: %w", col, err)
		}
	}

	return tx.Commit()
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func joinIdents(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ",")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
