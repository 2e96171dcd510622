package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/catalog"
	"github.com/sells-group/school-zone-cli/internal/config"
	"github.com/sells-group/school-zone-cli/internal/db"
)

var importCSVPath string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "School catalog maintenance",
}

var importCmd = &cobra.Command{
	Use:         "import",
	Short:       "Import the merged school CSV into the catalog database",
	Long:        "Cleans the merged school CSV and replaces the configured catalog table (SQLite file or Postgres).",
	Annotations: withMode("catalog"),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrapf(err, "open csv %s", importCSVPath)
		}
		defer func() { _ = f.Close() }()

		table, report, err := catalog.ParseCSV(ctx, f)
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		if err := writeCatalog(ctx, cfg.Catalog, table); err != nil {
			return eris.Wrap(err, "import csv")
		}

		zap.L().Info("import complete",
			zap.String("csv", importCSVPath),
			zap.String("driver", cfg.Catalog.Driver),
			zap.Int("processed", report.Processed),
			zap.Int("inserted", report.Inserted),
			zap.Int("skipped", report.Skipped),
		)
		for _, d := range report.Details {
			zap.L().Debug("import skipped row", zap.String("detail", d))
		}
		return nil
	},
}

func writeCatalog(ctx context.Context, c config.CatalogConfig, t *catalog.ImportTable) error {
	table := c.Table
	if table == "" {
		table = catalog.DefaultTable
	}
	switch c.Driver {
	case "postgres":
		pool, err := db.Connect(ctx, c.DSN, nil)
		if err != nil {
			return err
		}
		defer pool.Close()
		return catalog.WritePostgres(ctx, pool, table, t)
	default:
		return catalog.WriteSQLite(ctx, c.DSN, table, t)
	}
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to the merged school CSV (required)")
	_ = importCmd.MarkFlagRequired("csv")
	catalogCmd.AddCommand(importCmd)
	rootCmd.AddCommand(catalogCmd)
}
