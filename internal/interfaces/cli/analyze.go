package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/pkg/client"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Upload a document for analysis",
		Long:  "Upload a local document to the API server and print the resulting analysis.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer file.Close()

			doc, err := cliCtx.Client.Documents().Upload(cmd.Context(), filepath.Base(path), file)
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, doc)
			}
			return printText(cmd, formatDocument(doc))
		},
	}
	return cmd
}

// formatDocument renders an analysis record as readable text.
func formatDocument(doc *client.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document: %s (ID: %s)\n", doc.FileName, doc.ID)

	a := doc.Analysis
	if a == nil {
		sb.WriteString("No analysis available.\n")
		return sb.String()
	}

	if a.DocumentType != "" {
		fmt.Fprintf(&sb, "Type:     %s\n", a.DocumentType)
	}
	if doc.DegradedReason != "" {
		fmt.Fprintf(&sb, "Warning:  analysis degraded (%s)\n", doc.DegradedReason)
	}
	if doc.LowConfidence {
		sb.WriteString("Warning:  text extraction had low confidence; verify findings manually\n")
	}
	if a.Summary != "" {
		fmt.Fprintf(&sb, "\nSummary:\n  %s\n", a.Summary)
	}

	if len(a.Risks) > 0 {
		sb.WriteString("\nRisks:\n")
		for _, risk := range a.Risks {
			fmt.Fprintf(&sb, "  [%s] %s\n", strings.ToUpper(risk.Level), risk.Description)
			if risk.Recommendation != "" {
				fmt.Fprintf(&sb, "         recommendation: %s\n", risk.Recommendation)
			}
		}
	}

	if len(a.Obligations) > 0 {
		sb.WriteString("\nObligations:\n")
		for _, ob := range a.Obligations {
			line := ob.Description
			if ob.Party != "" {
				line = ob.Party + ": " + line
			}
			if ob.Deadline != "" {
				line += " (by " + ob.Deadline + ")"
			}
			fmt.Fprintf(&sb, "  - %s\n", line)
		}
	}

	if len(a.Deadlines) > 0 {
		sb.WriteString("\nDeadlines:\n")
		for _, d := range a.Deadlines {
			date := d.Date
			if date == "" {
				date = "TBD"
			}
			fmt.Fprintf(&sb, "  %s  %s\n", date, d.Description)
		}
	}

	return sb.String()
}
