package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/riegel/internal/audit"
)

var (
	auditVerifyFile string
	auditVerifyKey  string
)

// auditVerifyCmd re-checks the tamper-evidence chain, either on the
// server or over a local audit log file.
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the tamper-evidence chain of the audit trail",
	Long: `Recomputes the keyed hash chain over the audit trail and reports the first
broken link, if any. Without --file the check runs on the server; with
--file a local JSON-format audit log is checked against --key.`,
	Example: `  # ask the server to verify its own trail
  riegel audit verify --server http://gate:8080

  # verify an exported audit log offline
  riegel audit verify --file audit.log --key "0th3r-s3cret"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditVerifyFile != "" {
			return verifyLocalFile()
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Verifying audit trail on server...")
		result, correlation, err := cli.VerifyAudits(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to verify audit trail")
		}

		if !result.Intact {
			log.Error().Msgf("%s chain broken after %d entries: %s", redCross, result.Entries, result.Error)
			return BeQuietError{}
		}
		logSuccess("chain intact over %d entries", result.Entries)
		return nil
	},
}

func verifyLocalFile() error {
	if auditVerifyKey == "" {
		return fmt.Errorf("local verification needs the chain key (use --key)")
	}

	entries, err := audit.ReadEntriesFile(auditVerifyFile)
	if err != nil {
		return err
	}

	if err := audit.VerifyChain([]byte(auditVerifyKey), entries); err != nil {
		log.Error().Msgf("%s %v", redCross, err)
		return BeQuietError{}
	}
	logSuccess("chain intact over %d entries", len(entries))
	return nil
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)

	auditVerifyCmd.Flags().StringVar(&auditVerifyFile, "file", "", "Verify this local audit log file instead of asking the server")
	auditVerifyCmd.Flags().StringVar(&auditVerifyKey, "key", "", "Chain key for local verification")
}
