package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/orb-loader/internal/csvsource"
	"github.com/dvloznov/orb-loader/internal/logger"
	"github.com/dvloznov/orb-loader/internal/orb"
	"github.com/dvloznov/orb-loader/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a transaction table as usage events",
	Long: `Read the input table row by row; for each transaction resolve (or
create) the customer by account_id, then submit one usage event. A
failure to resolve a customer aborts the run; a failure to ingest an
event is logged and the run continues with the next row.`,
	Example: `  orb-loader ingest --input data/transactions.csv
  orb-loader ingest --input gs://my-bucket/transactions.csv --event-name wire_transfer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if v, _ := cmd.Flags().GetString("event-name"); v != "" {
			cfg.EventName = v
		}
		if cmd.Flags().Changed("throttle") {
			cfg.ThrottleInterval, _ = cmd.Flags().GetDuration("throttle")
		}

		log := newLogger(cmd)
		ctx := logger.WithContext(cmd.Context(), log)

		reader, closeInput, err := openInput(ctx, input)
		if err != nil {
			return err
		}
		defer closeInput()

		rows, err := csvsource.NewReader(reader)
		if err != nil {
			return err
		}

		client := orb.NewClient(cfg.APIKey,
			orb.WithBaseURL(cfg.BaseURL),
			orb.WithTimeout(cfg.RequestTimeout))
		defer client.Close()

		loader := pipeline.NewLoader(client.Customers, client.Events,
			pipeline.WithEventName(cfg.EventName),
			pipeline.WithThrottleInterval(cfg.ThrottleInterval))

		log.Info().
			Str("input", input).
			Str("event_name", cfg.EventName).
			Msg("Starting ingestion")

		report, runErr := loader.Run(ctx, rows)

		log.Info().
			Int("rows", report.Rows).
			Int("ingested", report.Ingested).
			Int("failed", report.Failed).
			Msg("Ingestion run finished")

		if len(report.FailedTransactions) > 0 {
			log.Error().
				Strs("failed_transactions", report.FailedTransactions).
				Msg("Some events were not ingested; rerun for these transactions")
		}

		if runErr != nil {
			log.Error().Err(runErr).Msg("Ingestion aborted")
			return runErr
		}

		fmt.Printf("Ingested %d of %d rows.\n", report.Ingested, report.Rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("input", "i", "", "path or gs:// URI of the transaction CSV")
	ingestCmd.Flags().String("event-name", "", "event name tag (default from config)")
	ingestCmd.Flags().Duration("throttle", 0, "pause after each row (default from config)")
}
