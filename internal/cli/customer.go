package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dvloznov/orb-loader/internal/logger"
	"github.com/dvloznov/orb-loader/internal/orb"
	"github.com/dvloznov/orb-loader/internal/pipeline"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Customer operations against the billing platform",
}

var customerFetchCmd = &cobra.Command{
	Use:     "fetch",
	Short:   "Fetch a customer by account id",
	Example: `  orb-loader customer fetch --account-id acme_corp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, _ := cmd.Flags().GetString("account-id")
		if accountID == "" {
			return fmt.Errorf("--account-id is required")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := newLogger(cmd)
		ctx := logger.WithContext(cmd.Context(), log)

		client := orb.NewClient(cfg.APIKey,
			orb.WithBaseURL(cfg.BaseURL),
			orb.WithTimeout(cfg.RequestTimeout))
		defer client.Close()

		cust, err := client.Customers.FetchByExternalID(ctx, accountID)
		if orb.IsNotFound(err) {
			fmt.Printf("No customer exists for account_id %q.\n", accountID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch customer: %w", err)
		}

		printCustomer(cust)
		return nil
	},
}

var customerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a customer for an account id",
	Long: `Create the customer the ingest run would create for this account id:
display name derived from the account id, placeholder contact email,
and a fresh idempotency key.`,
	Example: `  orb-loader customer create --account-id acme_corp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID, _ := cmd.Flags().GetString("account-id")
		if accountID == "" {
			return fmt.Errorf("--account-id is required")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := newLogger(cmd)
		ctx := logger.WithContext(cmd.Context(), log)

		client := orb.NewClient(cfg.APIKey,
			orb.WithBaseURL(cfg.BaseURL),
			orb.WithTimeout(cfg.RequestTimeout))
		defer client.Close()

		cust, err := client.Customers.Create(ctx, orb.CustomerCreateParams{
			ExternalCustomerID: accountID,
			Name:               pipeline.DisplayName(accountID),
			Email:              pipeline.PlaceholderEmail(accountID),
			IdempotencyKey:     uuid.NewString(),
		})
		if err != nil {
			return fmt.Errorf("create customer: %w", err)
		}

		printCustomer(cust)
		return nil
	},
}

func printCustomer(cust *orb.Customer) {
	fmt.Println("\n=== Customer ===")
	fmt.Printf("ID:          %s\n", cust.ID)
	fmt.Printf("External ID: %s\n", cust.ExternalCustomerID)
	fmt.Printf("Name:        %s\n", cust.Name)
	fmt.Printf("Email:       %s\n", cust.Email)
}

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(customerFetchCmd)
	customerCmd.AddCommand(customerCreateCmd)

	customerFetchCmd.Flags().String("account-id", "", "external customer id (the table's account_id)")
	customerCreateCmd.Flags().String("account-id", "", "external customer id (the table's account_id)")
}
