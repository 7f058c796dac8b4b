package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the gate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadGateConfig()
		if err != nil {
			return logError(err, "", "configuration is invalid")
		}
		logSuccess("configuration is valid")
		log.Info().Msgf("%d principals, %d factors, %d routes, %d audit sinks",
			len(cfg.Principals), len(cfg.Factors), len(cfg.Routes), len(cfg.Audit.Sinks))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)

	f.bindConfigFlag(configValidateCmd.Flags())
}
