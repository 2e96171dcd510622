package catalog

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/model"
)

// DefaultTable is the schools table name used by the importer.
const DefaultTable = "schools"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SourceConfig selects and addresses the relational catalog.
type SourceConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Table  string `yaml:"table" mapstructure:"table"`
}

// Source reads raw school rows.
type Source interface {
	LoadRows(ctx context.Context) ([]map[string]any, error)
	Close() error
}

// Open connects to the configured source, reads every school and returns
// an indexed snapshot. The connection is closed before returning.
func Open(ctx context.Context, cfg SourceConfig) (*Snapshot, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, eris.Errorf("catalog: invalid table name %q", table)
	}

	var src Source
	var err error
	switch cfg.Driver {
	case "", "sqlite":
		src, err = NewSQLiteSource(cfg.DSN, table)
	case "postgres":
		src, err = NewPostgresSource(ctx, cfg.DSN, table)
	default:
		return nil, eris.Errorf("catalog: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return Load(ctx, src)
}

// Load reads rows from src and builds a snapshot. Rows that cannot be
// decoded are skipped with a warning.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	log := zap.L().With(zap.String("component", "catalog.load"))

	rows, err := src.LoadRows(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: load rows")
	}

	schools := make([]model.School, 0, len(rows))
	for _, row := range rows {
		sc, err := schoolFromRow(row)
		if err != nil {
			log.Warn("skipping catalog row", zap.Error(err))
			continue
		}
		schools = append(schools, sc)
	}

	snap, err := NewSnapshot(schools)
	if err != nil {
		return nil, err
	}
	metrics.CatalogSchools.Set(float64(snap.Len()))
	log.Info("catalog loaded",
		zap.Int("rows", len(rows)),
		zap.Int("schools", snap.Len()),
		zap.String("version", snap.Version),
	)
	return snap, nil
}
