package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanhsing/beidou-edu-server/internal/datasync"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

func newImportCommand() *cobra.Command {
	var learnerID string
	var mode ModeFlag
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <deck file or directory>",
		Short: "Enroll a learner in the nodes of YAML deck files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			decks, err := datasync.ReadDecks(args[0])
			if err != nil {
				return fmt.Errorf("datasync.ReadDecks() > %w", err)
			}

			var enroller datasync.Enroller = backendEnroller{}
			if !dryRun {
				backend, err := openBackend(ctx)
				if err != nil {
					return err
				}
				defer func() {
					_ = backend.Close()
				}()
				enroller = backendEnroller{backend: backend}
			}

			w := cmd.OutOrStdout()
			importer := datasync.NewImporter(enroller, w)
			result, err := importer.ImportDecks(ctx, learnerID, decks, datasync.ImportOptions{
				DryRun: dryRun,
				Mode:   review.Mode(mode),
			})
			if err != nil {
				return fmt.Errorf("importer.ImportDecks() > %w", err)
			}

			fmt.Fprintln(w, "\nImport Summary:")
			if dryRun {
				fmt.Fprintln(w, "  (dry-run mode, no changes made)")
			}
			fmt.Fprintf(w, "  Decks: %d, nodes: %d new, %d skipped\n", result.Decks, result.Created, result.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "Learner ID")
	_ = cmd.MarkFlagRequired("learner")
	cmd.Flags().Var(&mode, "mode", "Scheduling mode of decks without one. Options: sm2, ladder")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the decks without enrolling")
	return cmd
}

func newExportCommand() *cobra.Command {
	var learnerID string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the items and answer history of a learner as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Outputs.ExportDirectory
			}

			svc, closeFn, err := localService(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeFn()
			}()

			exporter := datasync.NewExporter(svc, datasync.NewYAMLSink(outputDir))
			result, err := exporter.Export(ctx, learnerID)
			if err != nil {
				return fmt.Errorf("exporter.Export() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items and %d answers to %s\n", result.Items, result.History, result.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&learnerID, "learner", "", "Learner ID")
	_ = cmd.MarkFlagRequired("learner")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory. outputs.export_directory is used when empty")
	return cmd
}
