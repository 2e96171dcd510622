package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Copier is implemented by both Pool and pgx.Tx.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyFrom bulk-inserts rows into a table using the COPY protocol. The table
// may be schema-qualified ("public.schools").
func CopyFrom(ctx context.Context, c Copier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := c.CopyFrom(ctx, Identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// Identifier splits an optionally schema-qualified table name.
func Identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

// QuoteTable returns the sanitized SQL form of a table name.
func QuoteTable(table string) string {
	return Identifier(table).Sanitize()
}

// QuoteColumns quotes each column name and joins with commas.
func QuoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// ColumnDefs renders "name TYPE" pairs for CREATE TABLE.
func ColumnDefs(cols []string, types map[string]string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		t := types[c]
		if t == "" {
			t = "TEXT"
		}
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c}.Sanitize(), t)
	}
	return strings.Join(defs, ", ")
}
