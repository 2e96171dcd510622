package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/school-zone-cli/internal/db"
)

// PostgresSource reads the schools table through a pgx pool.
type PostgresSource struct {
	pool  db.Pool
	table string
}

// NewPostgresSource connects to dsn.
func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, eris.New("postgres: empty dsn")
	}
	pool, err := db.Connect(ctx, dsn, nil)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect catalog")
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

// NewPostgresSourceFromPool wraps an existing pool. Close closes the pool.
func NewPostgresSourceFromPool(pool db.Pool, table string) *PostgresSource {
	return &PostgresSource{pool: pool, table: table}
}

func (s *PostgresSource) LoadRows(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+db.QuoteTable(s.table))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", s.table)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: collect schools")
	}
	return out, nil
}

func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}
