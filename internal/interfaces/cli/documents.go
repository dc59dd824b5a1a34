package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/pkg/client"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage analysed documents",
	}

	cmd.AddCommand(
		newDocumentsListCmd(),
		newDocumentsGetCmd(),
		newDocumentsDeleteCmd(),
		newDocumentsStatusCmd(),
	)
	return cmd
}

func newDocumentsListCmd() *cobra.Command {
	var (
		fileName string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analysed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			list, err := cliCtx.Client.Documents().List(cmd.Context(), client.ListOptions{
				FileName: fileName,
				Limit:    limit,
				Offset:   offset,
			})
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, list)
			}

			if list.Count == 0 {
				return printText(cmd, "No documents found.")
			}
			rows := make([][]string, 0, len(list.Documents))
			for _, doc := range list.Documents {
				docType := ""
				risks := "0"
				if doc.Analysis != nil {
					docType = doc.Analysis.DocumentType
					risks = fmt.Sprintf("%d", len(doc.Analysis.Risks))
				}
				rows = append(rows, []string{
					doc.ID,
					doc.FileName,
					docType,
					risks,
					doc.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			out := FormatTable([]string{"ID", "FILE", "TYPE", "RISKS", "CREATED"}, rows)
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&fileName, "file-name", "", "filter by file name substring")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of results to skip")
	return cmd
}

func newDocumentsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show one analysed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			doc, err := cliCtx.Client.Documents().Get(cmd.Context(), args[0])
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

func newDocumentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete an analysed document and its archived source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if err := cliCtx.Client.Documents().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			PrintSuccess(cmd, "document "+args[0]+" deleted")
			return nil
		},
	}
	return cmd
}

func newDocumentsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <upload-id>",
		Short: "Show the progress of an in-flight upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			status, err := cliCtx.Client.Documents().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return printJSON(cmd, status)
			}
			line := fmt.Sprintf("%s: %s (%d%%)", status.FileName, status.Status, status.Progress)
			if status.Error != "" {
				line += " error: " + status.Error
			}
			return printText(cmd, line)
		},
	}
	return cmd
}
