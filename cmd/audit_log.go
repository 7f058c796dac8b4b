package cmd

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/pkg/client"
)

var (
	auditLogPrincipal string
	auditLogOutcome   string
	auditLogAction    string
)

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit trail entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching audit trail...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:     uint(limit),
			Principal: auditLogPrincipal,
			Outcome:   auditLogOutcome,
			Action:    auditLogAction,
		})
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit trail")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Seq", "Time", "Action", "Principal", "Role", "Outcome", "Factor", "Detail",
		})

		for _, e := range audits {
			outcome := green(string(e.Outcome))
			if e.Outcome != core.OutcomeSuccess {
				outcome = red(string(e.Outcome))
			}

			t.AppendRow(table.Row{
				e.Seq,
				e.Time.Format(time.RFC3339),
				e.Action,
				truncate(e.Principal, 25),
				e.Role,
				outcome,
				e.Factor,
				truncate(e.Detail, 40),
			})
		}

		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntP("limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditLogPrincipal, "principal", "", "Only entries for this principal")
	auditLogCmd.Flags().StringVar(&auditLogOutcome, "outcome", "", "Only entries with this outcome (SUCCESS, FAILURE)")
	auditLogCmd.Flags().StringVar(&auditLogAction, "action", "", "Only entries with this action")
}
