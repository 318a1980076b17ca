package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sanhsing/beidou-edu-server/internal/report"
)

func newReportCommand() *cobra.Command {
	var learnerID, scopeID string
	var templatePath, outputDir string
	var generatePDF bool
	var pdfOptions report.PDFOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a Markdown progress report of a learner, optionally as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Outputs.ReportDirectory
			}

			svc, closeFn, err := localService(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeFn()
			}()

			data, err := report.Build(ctx, svc, learnerID, scopeID)
			if err != nil {
				return fmt.Errorf("report.Build() > %w", err)
			}
			tmpl, err := report.ParseTemplate(templatePath, slog.Default())
			if err != nil {
				return fmt.Errorf("report.ParseTemplate() > %w", err)
			}
			path, err := report.WriteMarkdown(outputDir, tmpl, data)
			if err != nil {
				return fmt.Errorf("report.WriteMarkdown() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)

			if generatePDF {
				pdfPath, err := report.ConvertToPDF(path, pdfOptions)
				if err != nil {
					return fmt.Errorf("report.ConvertToPDF() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "PDF written to %s\n", pdfPath)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&learnerID, "learner", "", "Learner ID")
	_ = cmd.MarkFlagRequired("learner")
	flags.StringVar(&scopeID, "scope", "", "Limit the report to one scope")
	flags.StringVar(&templatePath, "template", "", "Template file. The built-in template is used when empty")
	flags.StringVar(&outputDir, "output-dir", "", "Output directory. outputs.report_directory is used when empty")
	flags.BoolVar(&generatePDF, "pdf", false, "Also convert the report to PDF")
	flags.BoolVar(&pdfOptions.Landscape, "landscape", false, "Use landscape pages for the PDF")
	flags.BoolVar(&pdfOptions.Dark, "dark", false, "Use the dark PDF theme")
	return cmd
}
