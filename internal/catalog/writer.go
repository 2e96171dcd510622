package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/db"
)

var sqliteTypes = map[string]string{kindText: "TEXT", kindInteger: "INTEGER", kindReal: "REAL"}

var postgresTypes = map[string]string{kindText: "TEXT", kindInteger: "BIGINT", kindReal: "DOUBLE PRECISION"}

func columnTypes(t *ImportTable, types map[string]string) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		out[c] = types[t.Kinds[c]]
	}
	out[colCode] = "TEXT PRIMARY KEY NOT NULL"
	out[colDisplayName] = "TEXT NOT NULL"
	return out
}

func indexStatements(table string) []string {
	base := strings.ReplaceAll(table, ".", "_")
	stmts := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			db.QuoteColumns([]string{"idx_" + base + "_feeder_level"}), db.QuoteTable(table),
			db.QuoteColumns([]string{colFeeder, colLevel})),
	}
	for _, c := range indexedColumns {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			db.QuoteColumns([]string{"idx_" + base + "_" + c}), db.QuoteTable(table), db.QuoteColumns([]string{c})))
	}
	return stmts
}

// WriteSQLite replaces table in the SQLite database at dbPath with t.
func WriteSQLite(ctx context.Context, dbPath, table string, t *ImportTable) error {
	if !tableName.MatchString(table) {
		return eris.Errorf("catalog: invalid table name %q", table)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return eris.Wrap(err, "sqlite: open")
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin import")
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		"DROP TABLE IF EXISTS " + db.QuoteTable(table),
		fmt.Sprintf("CREATE TABLE %s (%s)", db.QuoteTable(table), db.ColumnDefs(t.Columns, columnTypes(t, sqliteTypes))),
	}
	stmts = append(stmts, indexStatements(table)...)
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return eris.Wrapf(err, "sqlite: exec %s", s)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.QuoteTable(table), db.QuoteColumns(t.Columns), placeholders))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer func() { _ = insert.Close() }()

	for _, row := range t.Rows {
		if _, err := insert.ExecContext(ctx, row...); err != nil {
			return eris.Wrap(err, "sqlite: insert school")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit import")
	}
	zap.L().Info("catalog imported into sqlite", zap.String("path", dbPath), zap.Int("rows", len(t.Rows)))
	return nil
}

// WritePostgres replaces the contents of table with t inside one
// transaction, creating the table when absent.
func WritePostgres(ctx context.Context, pool db.Pool, table string, t *ImportTable) error {
	if !tableName.MatchString(table) {
		return eris.Errorf("catalog: invalid table name %q", table)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin import")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", db.QuoteTable(table), db.ColumnDefs(t.Columns, columnTypes(t, postgresTypes))),
		"TRUNCATE " + db.QuoteTable(table),
	}
	for _, s := range stmts {
		if _, err := tx.Exec(ctx, s); err != nil {
			return eris.Wrapf(err, "postgres: exec %s", s)
		}
	}

	n, err := db.CopyFrom(ctx, tx, table, t.Columns, t.Rows)
	if err != nil {
		return err
	}

	for _, s := range indexStatements(table) {
		if _, err := tx.Exec(ctx, s); err != nil {
			return eris.Wrapf(err, "postgres: exec %s", s)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit import")
	}
	zap.L().Info("catalog imported into postgres", zap.String("table", table), zap.Int64("rows", n))
	return nil
}
