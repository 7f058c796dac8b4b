package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evidenceTagNote string

// evidenceTagCmd appends a chain-of-custody marker to the audit trail.
var evidenceTagCmd = &cobra.Command{
	Use:   "tag EVIDENCE-ID",
	Short: "Tag a piece of evidence in the audit trail",
	Long: `Appends a forensic evidence marker to the server's audit trail. The marker
is attributed to the authenticated principal and chained like any other
entry, so it cannot be silently removed later.

Requires an Analyst or Admin session token (see 'riegel login').`,
	Example: `  riegel evidence tag EVD-1432 --note "recovered drive, bay 3"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evidenceID := args[0]
		if evidenceID == "" {
			return fmt.Errorf("evidence ID cannot be empty")
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		seq, correlation, err := cli.TagEvidence(cmd.Context(), evidenceID, evidenceTagNote)
		if err != nil {
			return logError(err, correlation, "failed to tag evidence")
		}

		logSuccess("tagged %s (audit seq %d)", bold(evidenceID), seq)
		return nil
	},
}

func init() {
	evidenceCmd.AddCommand(evidenceTagCmd)

	evidenceTagCmd.Flags().StringVar(&evidenceTagNote, "note", "", "Free-form chain-of-custody note")
}
