package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newInsightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight",
		Short: "Derived insights for an analysed document",
	}

	cmd.AddCommand(
		newInsightHealthCmd(),
		newInsightTimelineCmd(),
		newInsightStrategiesCmd(),
		newInsightBenchmarkCmd(),
	)
	return cmd
}

func newInsightHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health <document-id>",
		Short: "Show the contract health score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			score, err := cliCtx.Client.Documents().Health(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, score)
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Overall health: %d/100\n\n", score.Overall)
			rows := [][]string{
				{"legal", fmt.Sprintf("%d", score.Categories.Legal)},
				{"financial", fmt.Sprintf("%d", score.Categories.Financial)},
				{"compliance", fmt.Sprintf("%d", score.Categories.Compliance)},
				{"operational", fmt.Sprintf("%d", score.Categories.Operational)},
			}
			sb.WriteString(FormatTable([]string{"CATEGORY", "SCORE"}, rows))
			fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return nil
		},
	}
	return cmd
}

func newInsightTimelineCmd() *cobra.Command {
	var calendarFile string

	cmd := &cobra.Command{
		Use:   "timeline <document-id>",
		Short: "Show the deadline timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if calendarFile != "" {
				calendar, err := cliCtx.Client.Documents().TimelineCalendar(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(calendarFile, []byte(calendar), 0o644); err != nil {
					return fmt.Errorf("failed to write calendar file: %w", err)
				}
				PrintSuccess(cmd, "calendar exported to "+calendarFile)
				return nil
			}

			timeline, err := cliCtx.Client.Documents().Timeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, timeline)
			}

			if timeline.Count == 0 {
				return printText(cmd, "No dated events found.")
			}
			rows := make([][]string, 0, len(timeline.Events))
			for _, ev := range timeline.Events {
				rows = append(rows, []string{ev.Date, ev.Title, ev.Urgency, ev.Priority})
			}
			out := FormatTable([]string{"DATE", "EVENT", "URGENCY", "PRIORITY"}, rows)
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&calendarFile, "export-calendar", "", "write the calendar export to this file instead of listing events")
	return cmd
}

func newInsightStrategiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies <document-id>",
		Short: "Show negotiation strategies for the document's risks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			resp, err := cliCtx.Client.Documents().Strategies(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, resp)
			}

			if resp.Count == 0 {
				return printText(cmd, "No negotiation strategies; the document has no high or medium risks.")
			}
			var sb strings.Builder
			for i, s := range resp.Strategies {
				fmt.Fprintf(&sb, "%d. %s [%s, leverage %d/10]\n", i+1, s.RiskTitle, s.RiskLevel, s.LeverageScore)
				fmt.Fprintf(&sb, "   Issue:    %s\n", s.CurrentIssue)
				fmt.Fprintf(&sb, "   Proposal: %s\n", s.CounterProposal)
				if s.FallbackPosition != "" {
					fmt.Fprintf(&sb, "   Fallback: %s\n", s.FallbackPosition)
				}
				sb.WriteString("\n")
			}
			fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return nil
		},
	}
	return cmd
}

func newInsightBenchmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark <document-id>",
		Short: "Rate the document's clauses against market standards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			result, err := cliCtx.Client.Documents().Benchmark(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, result)
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Benchmark: %d better, %d standard, %d worse than market\n",
				result.Better, result.Standard, result.Worse)
			if len(result.Clauses) > 0 {
				sb.WriteString("\n")
				rows := make([][]string, 0, len(result.Clauses))
				for _, cl := range result.Clauses {
					rows = append(rows, []string{cl.Title, cl.Rating, cl.Suggestion})
				}
				sb.WriteString(FormatTable([]string{"CLAUSE", "RATING", "SUGGESTION"}, rows))
			}
			fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return nil
		},
	}
	return cmd
}
