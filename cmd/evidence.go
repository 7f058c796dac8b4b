package cmd

import (
	"github.com/spf13/cobra"
)

// evidenceCmd represents the evidence command
var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Work with forensic evidence markers",
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
}
