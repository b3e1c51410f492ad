package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dvloznov/orb-loader/internal/csvsource"
	"github.com/dvloznov/orb-loader/internal/logger"
	"github.com/dvloznov/orb-loader/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Dry-run parse of a transaction table",
	Long: `Parse the input table without calling the billing API. Reports row
count, the customer name and email each account_id would derive, and
any amount values that would fail to parse.`,
	Example: `  orb-loader validate --input data/transactions.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
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

		verbose, _ := cmd.Flags().GetBool("verbose")

		var count, bad int
		for {
			row, err := rows.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			count++

			rowOK := true
			if _, err := csvsource.ParseAmount(row.Standard); err != nil {
				log.Error().Str("transaction_id", row.TransactionID).Err(err).Msg("Bad standard amount")
				rowOK = false
			}
			if _, err := csvsource.ParseAmount(row.Sameday); err != nil {
				log.Error().Str("transaction_id", row.TransactionID).Err(err).Msg("Bad sameday amount")
				rowOK = false
			}
			if !rowOK {
				bad++
			}

			if verbose {
				fmt.Printf("%-4d %-24s -> %q <%s>\n",
					count, row.AccountID,
					pipeline.DisplayName(row.AccountID),
					pipeline.PlaceholderEmail(row.AccountID))
			}
		}

		fmt.Printf("Parsed %d rows, %d with bad amounts.\n", count, bad)
		if bad > 0 {
			return fmt.Errorf("%d rows would fail ingestion", bad)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("input", "i", "", "path or gs:// URI of the transaction CSV")
	validateCmd.Flags().BoolP("verbose", "v", false, "print derived customer fields per row")
}
