package main

import (
	"fmt"
	"time"

	"edubot/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func (c *cli) uploadCmd() *cobra.Command {
	var form domain.UploadForm
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a PDF or a web page as study material (admin)",
		Example: `  edubot upload --class 9 --subject Physics --topic Motion --file motion.pdf
  edubot upload --class 7 --subject Biology --topic Cells --url https://example.org/cells`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			if _, err := c.app.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			if form.URL != "" && form.FilePath == "" {
				form.SourceType = domain.SourceWeb
			} else {
				form.SourceType = domain.SourcePDF
			}
			msg, err := c.app.content.Upload(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Class, "class", "", "Class (1-10)")
	cmd.Flags().StringVar(&form.Subject, "subject", "", "Subject")
	cmd.Flags().StringVar(&form.Topic, "topic", "", "Topic")
	cmd.Flags().StringVar(&form.FilePath, "file", "", "PDF to upload")
	cmd.Flags().StringVar(&form.URL, "url", "", "Web page to ingest instead of a PDF")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List uploaded content (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			if _, err := c.app.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			rows, err := c.app.content.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No upload history available")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("CLASS", "SUBJECT", "TOPIC", "TYPE", "SOURCE", "UPLOADED")
			for _, r := range rows {
				t.Row(r.Field("class"), r.Field("subject"), r.Field("topic"),
					r.Field("source_type"), r.Field("url_or_filename"), formatStamp(r.Field("upload_date")))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// formatStamp shows RFC 3339 stamps in local time and anything else as is.
func formatStamp(v string) string {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts.Local().Format("2006-01-02 15:04")
	}
	return v
}
