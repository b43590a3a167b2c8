package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/club-scraper/internal/app"
	"github.com/riskibarqy/club-scraper/internal/domain/sheet"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

var (
	syncCSVDir         *string
	syncDryRun         *bool
	syncSkipClubLookup *bool
)

func init() {
	syncCSVDir = syncCmd.Flags().String("csv-dir", "", "Also write each reconciled dataset as <dir>/<dataset>.csv.")
	syncDryRun = syncCmd.Flags().Bool("dry-run", false, "Scrape and reconcile without writing to the sheet store.")
	syncSkipClubLookup = syncCmd.Flags().Bool("skip-club-lookup", false, "Use the configured club metadata instead of reading club pages.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [--csv-dir <dir>] [--dry-run] [--skip-club-lookup]",
	Short: "Scrapes members, activities and leaderboards and reconciles them into the sheet store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := app.New(ctx, env.cfg, env.logger, app.Options{
			DryRun:         *syncDryRun,
			SkipClubLookup: *syncSkipClubLookup,
		})
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		defer a.Close()

		result, syncErr := a.Sync.SyncAll(ctx)
		datasets := []usecase.DatasetResult{result.Members, result.Activities, result.Leaderboard}

		printSummary(cmd, datasets)
		if *syncCSVDir != "" {
			if err := writeCSVs(*syncCSVDir, datasets); err != nil {
				return err
			}
		}
		if syncErr != nil {
			return fmt.Errorf("sync: %w", syncErr)
		}
		return nil
	},
}

func printSummary(cmd *cobra.Command, datasets []usecase.DatasetResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Dataset", "Scraped", "Skipped", "Field errors", "Stored", "Written"})
	for _, d := range datasets {
		if d.Dataset == "" {
			continue
		}
		t.AppendRow(table.Row{d.Dataset, d.Scraped, d.Skipped, d.FieldErrors, d.Stored, d.Written})
	}
	t.Render()
}

func writeCSVs(dir string, datasets []usecase.DatasetResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}
	for _, d := range datasets {
		if d.Dataset == "" || len(d.Table) == 0 {
			continue
		}
		path := filepath.Join(dir, d.Dataset+".csv")
		if err := writeCSV(path, d.Table); err != nil {
			return err
		}
		env.logger.Info("dataset exported", "dataset", d.Dataset, "path", path, "rows", len(d.Table)-1)
	}
	return nil
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := sheet.WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
