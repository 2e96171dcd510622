package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/zones"
)

var zonesSample int

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Zone layer diagnostics",
}

type layerInspection struct {
	Category string `json:"category"`
	*zones.Inspection
	Error string `json:"error,omitempty"`
}

var zonesInspectCmd = &cobra.Command{
	Use:         "inspect [shapefile...]",
	Short:       "Print fields, feature counts and sample attributes of zone layers",
	Long:        "Inspects the given shapefiles, or every configured layer when none are given.",
	Annotations: withMode("zones"),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out []layerInspection

		if len(args) > 0 {
			for _, path := range args {
				out = append(out, inspectLayer("", path))
			}
		} else {
			for _, l := range cfg.Zones.ResolvedLayers() {
				out = append(out, inspectLayer(string(l.Category), l.Path))
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func inspectLayer(category, path string) layerInspection {
	in, err := zones.Inspect(path, zonesSample)
	if err != nil {
		zap.L().Warn("inspect layer failed", zap.String("path", path), zap.Error(err))
		return layerInspection{Category: category, Inspection: &zones.Inspection{Path: path}, Error: err.Error()}
	}
	return layerInspection{Category: category, Inspection: in}
}

func init() {
	zonesInspectCmd.Flags().IntVar(&zonesSample, "sample", 3, "attribute rows to print per layer")
	zonesCmd.AddCommand(zonesInspectCmd)
	rootCmd.AddCommand(zonesCmd)
}
