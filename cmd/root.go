package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/config"
)

var cfg *config.Config

// modeAnnotation names the config.Validate mode a subcommand needs.
const modeAnnotation = "config-mode"

var rootCmd = &cobra.Command{
	Use:   "school-zone-cli",
	Short: "School zone resolution for district addresses",
	Long:  "Resolves an address or coordinate to its reside, magnet, choice and academy schools using district boundary shapefiles and the school catalog.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env.local", ".env")

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if mode := cmd.Annotations[modeAnnotation]; mode != "" {
			if err := cfg.Validate(mode); err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func withMode(mode string) map[string]string {
	return map[string]string{modeAnnotation: mode}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
