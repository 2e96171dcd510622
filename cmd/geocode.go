package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var geocodeCmd = &cobra.Command{
	Use:         "geocode <address>",
	Short:       "Geocode an address through the configured provider chain",
	Args:        cobra.ExactArgs(1),
	Annotations: withMode("geocode"),
	RunE: func(cmd *cobra.Command, args []string) error {
		geo, closeGeo, err := buildGeocoder(cfg)
		if err != nil {
			return err
		}
		defer closeGeo()

		res, err := geo.Geocode(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		zap.L().Info("geocode complete",
			zap.String("source", res.Source),
			zap.Bool("matched", res.Matched),
		)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
