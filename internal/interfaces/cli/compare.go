package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <document-id-1> <document-id-2>",
		Short: "Compare two analysed documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			result, err := cliCtx.Client.Documents().Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, result)
			}

			var sb strings.Builder
			if len(result.Differences) > 0 {
				sb.WriteString("Differences:\n")
				for _, d := range result.Differences {
					fmt.Fprintf(&sb, "  %s (%s impact)\n", d.Aspect, d.Impact)
					fmt.Fprintf(&sb, "    document 1: %s\n", d.Document1)
					fmt.Fprintf(&sb, "    document 2: %s\n", d.Document2)
				}
				sb.WriteString("\n")
			}
			if len(result.RiskComparison) > 0 {
				rows := make([][]string, 0, len(result.RiskComparison))
				for _, rc := range result.RiskComparison {
					rows = append(rows, []string{rc.Area, rc.Document1Risk, rc.Document2Risk, rc.SaferDocument})
				}
				sb.WriteString(FormatTable([]string{"AREA", "DOCUMENT 1", "DOCUMENT 2", "SAFER"}, rows))
				sb.WriteString("\n")
			}
			if len(result.Similarities) > 0 {
				sb.WriteString("Similarities:\n")
				for _, s := range result.Similarities {
					fmt.Fprintf(&sb, "  - %s\n", s)
				}
				sb.WriteString("\n")
			}
			if len(result.Recommendations) > 0 {
				sb.WriteString("Recommendations:\n")
				for i, rec := range result.Recommendations {
					fmt.Fprintf(&sb, "  %d. %s\n", i+1, rec)
				}
			}
			if sb.Len() == 0 {
				return printText(cmd, "No comparison details returned.")
			}
			fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return nil
		},
	}
	return cmd
}
