package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/pkg/client"
)

var auditInspectCmd = &cobra.Command{
	Use:     "inspect SESSION-ID",
	Short:   "Show full details of a specific audit trail entry",
	Example: `  riegel audit inspect d0g4brh5nv1popjlq3og`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID := args[0]
		if entryID == "" {
			return fmt.Errorf("session ID cannot be empty")
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msgf("Retrieving entry '%s'...", entryID)
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit: 1,
			ID:    entryID,
		})
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit trail entry")
		}
		if len(audits) == 0 {
			log.Warn().Str("id", entryID).Msg("no audit trail entries found")
			return nil
		}

		entry := audits[0]

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		printKV := func(key string, val any) {
			fmt.Printf("  %-26s %v\n", faint(key)+":", val)
		}

		printMap := func(m map[string]any) {
			if len(m) == 0 {
				fmt.Printf("       %s\n", faint("(none)"))
				return
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Printf("       %-16s %v\n", faint(k)+":", m[k])
			}
		}

		outcome := green(string(entry.Outcome))
		if entry.Outcome != core.OutcomeSuccess {
			outcome = red(string(entry.Outcome))
		}

		fmt.Println(bold("\n── Audit Entry ──"))
		printKV("Sequence", entry.Seq)
		printKV("Session ID", entry.ID)
		printKV("Time", entry.Time.Local().Format(time.RFC1123))
		printKV("Action", entry.Action)
		printKV("Outcome", outcome)

		fmt.Println(bold("\n── Identity ──"))
		printKV("Principal", entry.Principal)
		if entry.Role != "" {
			printKV("Role", entry.Role)
		} else {
			printKV("Role", faint("(unresolved)"))
		}

		fmt.Println(bold("\n── Decision ──"))
		if entry.Factor != "" {
			printKV("Deciding Factor", entry.Factor)
		} else {
			printKV("Deciding Factor", faint("(none)"))
		}
		if entry.Detail != "" {
			printKV("Detail", entry.Detail)
		}
		if entry.Token != "" {
			printKV("Token", truncate(entry.Token, 48))
		} else {
			printKV("Token", faint("(none)"))
		}
		printKV("Metadata", "")
		printMap(entry.Metadata)

		fmt.Println(bold("\n── Chain ──"))
		if entry.Prev != "" {
			printKV("Previous Link", truncate(entry.Prev, 48))
		} else {
			printKV("Previous Link", faint("(genesis)"))
		}
		printKV("Link", truncate(entry.Chain, 48))
		fmt.Println()

		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditInspectCmd)
}
