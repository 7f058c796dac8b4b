package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/darmiel/riegel/internal/core"
)

var (
	whyPrincipal string
	whyRole      string
)

var whyCmd = &cobra.Command{
	Use:   "why",
	Short: "Explain where a role lands (and why other routes were skipped)",
	Long: `Simulates route dispatch for a principal and role and returns a detailed
trace of the table evaluation. Useful for debugging why a principal lands
on an unexpected route, or on none at all.

Note: This command requires a riegel server to be running and reachable.
Also note that you need to be authenticated as admin to use this command.`,
	Example: `  # where does a freshly authenticated analyst land?
  riegel why --principal carol --role Analyst

  # why is the trainee not reaching the evidence dashboard?
  riegel why --principal trainee --role Analyst`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := core.ParseRole(whyRole)
		if err != nil {
			return err
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		trace, correlation, err := cli.ExplainRoutes(cmd.Context(), whyPrincipal, role)
		if err != nil {
			return logError(err, correlation, "failed to explain routes")
		}

		printTrace(trace)
		return nil
	},
}

func printTrace(trace *core.RouteTrace) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s for Principal: %s (Role: %s)\n",
		bold("Dispatch Trace"),
		bold(trace.Principal),
		trace.Role)

	fmt.Println(faint("---------------------------------------------------"))

	for _, res := range trace.Results {
		icon := red("✖")
		if res.Matched {
			icon = green("✔")
		}

		fmt.Printf("%s Route: %s\n", icon, bold(res.Path))
		if res.Description != "" {
			fmt.Printf("  %s\n", faint(res.Description))
		}
		if res.Reason != "" {
			reason := res.Reason
			if res.Matched {
				reason = faint(reason)
			} else {
				reason = yellow(reason)
			}
			fmt.Printf("    ↳ %s\n", reason)
		}

		fmt.Println()
	}

	fmt.Println("---------------------------------------------------")
	if trace.Matched {
		fmt.Printf("Decision: %s via route '%s'\n", bold(green("routed")), bold(trace.Path))
	} else {
		fmt.Printf("Decision: %s\n", bold(red("no route")))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(whyCmd)

	whyCmd.Flags().StringVarP(&whyPrincipal, "principal", "p", "", "Principal to simulate")
	whyCmd.Flags().StringVarP(&whyRole, "role", "r", "", "Role to simulate (Admin, Analyst, Guest)")

	_ = whyCmd.MarkFlagRequired("principal")
	_ = whyCmd.MarkFlagRequired("role")
}
