package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/club-scraper/internal/app"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

var (
	reportFormat     *string
	reportSkipUpdate *bool
)

func init() {
	reportFormat = reportCmd.Flags().String("format", "text", "Output format: text or markdown.")
	reportSkipUpdate = reportCmd.Flags().Bool("skip-update", false, "Render from stored results without reading the leaderboard sheet.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--format text|markdown] [--skip-update]",
	Short: "Updates weekly results from the leaderboard sheet and prints the weekly report.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := usecase.ParseReportFormat(*reportFormat)
		if err != nil {
			return err
		}

		a, err := app.New(ctx, env.cfg, env.logger, app.Options{SkipClubLookup: true})
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		defer a.Close()

		if !*reportSkipUpdate {
			if _, err := a.Report.UpdateResults(ctx); err != nil {
				return fmt.Errorf("update results: %w", err)
			}
		}

		report, err := a.Report.Build(ctx)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		out, err := usecase.Render(report, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
