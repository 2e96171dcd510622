package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/resolve"
	"github.com/sells-group/school-zone-cli/pkg/geocode"
)

var (
	resolveLat      float64
	resolveLon      float64
	resolveAddress  string
	resolveSortKey  string
	resolveSortDesc bool
)

var resolveCmd = &cobra.Command{
	Use:         "resolve",
	Short:       "Resolve one coordinate or address to its schools",
	Annotations: withMode("resolve"),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		hasPoint := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
		if hasPoint == (resolveAddress != "") {
			return eris.New("provide either --lat/--lon or --address")
		}

		eng, _, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}

		lat, lon := resolveLat, resolveLon
		if resolveAddress != "" {
			geo, closeGeo, err := buildGeocoder(cfg)
			if err != nil {
				return err
			}
			defer closeGeo()

			lat, lon, err = geocodeOne(ctx, geo, resolveAddress)
			if err != nil {
				return err
			}
		}

		res := eng.ResolveSchools(resolve.Query{
			Lat:  lat,
			Lon:  lon,
			Sort: resolve.SortOptions{Key: resolveSortKey, Desc: resolveSortDesc},
		})
		zap.L().Info("resolve complete",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Int("schools", len(res.Codes())),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// geocodeOne returns the coordinate for address or an error when no
// provider matched it.
func geocodeOne(ctx context.Context, geo geocode.Client, address string) (float64, float64, error) {
	loc, err := geo.Geocode(ctx, address)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode address")
	}
	if loc == nil || !loc.Matched {
		return 0, 0, eris.Errorf("could not geocode address %q", address)
	}
	return loc.Latitude, loc.Longitude, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := resolveCmd.Flags()
	f.Float64Var(&resolveLat, "lat", 0, "latitude")
	f.Float64Var(&resolveLon, "lon", 0, "longitude")
	f.StringVar(&resolveAddress, "address", "", "street address to geocode")
	f.StringVar(&resolveSortKey, "sort-key", "", "sort key within each group (default distance)")
	f.BoolVar(&resolveSortDesc, "sort-desc", false, "sort descending by --sort-key")
	rootCmd.AddCommand(resolveCmd)
}
