package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/api"
	"github.com/sells-group/school-zone-cli/internal/catalog"
	"github.com/sells-group/school-zone-cli/internal/config"
	"github.com/sells-group/school-zone-cli/internal/resolve"
	"github.com/sells-group/school-zone-cli/internal/zones"
	"github.com/sells-group/school-zone-cli/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Start the school lookup HTTP server",
	Long:        "Serves address and coordinate lookups. SIGHUP reloads the school catalog and override tables without dropping requests.",
	Annotations: withMode("serve"),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, store, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}

		geo, closeGeo, err := buildGeocoder(cfg)
		if err != nil {
			return err
		}
		defer closeGeo()

		handler := api.NewRouter(buildDeps(cfg, eng, store, geo))

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go watchReload(ctx, hup, cfg, eng)

		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

func buildDeps(c *config.Config, eng *resolve.Engine, store *zones.Store, geo geocode.Client) api.Deps {
	d := api.Deps{
		Resolver: eng,
		Geocoder: geo,
		Area: api.ServiceArea{
			Enabled: c.Bounds.Enabled,
			MinLat:  c.Bounds.MinLat,
			MaxLat:  c.Bounds.MaxLat,
			MinLon:  c.Bounds.MinLon,
			MaxLon:  c.Bounds.MaxLon,
		},
		CORSOrigins: c.Server.CORSOrigins,
		Health: func() map[string]any {
			out := map[string]any{"zones": store.Len()}
			if data := eng.Dataset(); data != nil {
				if snap, ok := data.Catalog.(*catalog.Snapshot); ok {
					out["schools"] = snap.Len()
					out["catalog_version"] = snap.Version
				}
			}
			return out
		},
	}
	if c.Metrics.Enabled {
		d.MetricsPath = c.Metrics.Path
	}
	return d
}

// watchReload swaps in a fresh dataset on every signal until ctx ends.
func watchReload(ctx context.Context, sig <-chan os.Signal, c *config.Config, eng *resolve.Engine) {
	log := zap.L().With(zap.String("component", "reload"))
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			start := time.Now()
			if err := reloadDataset(ctx, c, eng); err != nil {
				log.Error("dataset reload failed, keeping previous", zap.Error(err))
				continue
			}
			log.Info("dataset reloaded", zap.Duration("elapsed", time.Since(start)))
		}
	}
}

func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer serves handler until ctx is cancelled, then drains in-flight
// requests.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
