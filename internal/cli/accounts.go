package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/account"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// addAccountCommands adds connected-account management commands.
func addAccountCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage connected broker accounts",
		Long: `List connected broker accounts with their effective status.

The effective status is computed from the stored record and the current
time: an account stored as ACTIVE may still resolve to REFRESH_REQUIRED
or INACTIVE once its tokens have aged out.`,
	}

	cmd.AddCommand(newAccountsListCmd(app))
	cmd.AddCommand(newAccountsDeactivateCmd(app))

	rootCmd.AddCommand(cmd)
}

func newAccountsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List connected accounts",
		Example: `  copytrade accounts list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Account store unavailable")
				return fmt.Errorf("account store unavailable")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			records, err := app.Store.ListAccounts(ctx)
			if err != nil {
				output.Error("Failed to list accounts: %v", err)
				return err
			}

			now := time.Now()

			if output.IsJSON() {
				type accountView struct {
					Broker          string               `json:"broker"`
					AccountID       string               `json:"account_id"`
					UserID          string               `json:"user_id"`
					StoredStatus    models.AccountStatus `json:"stored_status"`
					EffectiveStatus models.AccountStatus `json:"effective_status"`
					IsActive        bool                 `json:"is_active"`
					IsTokenExpired  bool                 `json:"is_token_expired"`
				}
				views := make([]accountView, 0, len(records))
				for _, r := range records {
					eff := account.Resolve(r, now)
					views = append(views, accountView{
						Broker:          r.BrokerName,
						AccountID:       r.AccountID,
						UserID:          r.UserID,
						StoredStatus:    r.AccountStatus,
						EffectiveStatus: eff.AccountStatus,
						IsActive:        eff.IsActive,
						IsTokenExpired:  eff.IsTokenExpired,
					})
				}
				return output.JSON(views)
			}

			if len(records) == 0 {
				output.Info("No connected accounts. Run 'copytrade login' to connect one.")
				return nil
			}

			color.Cyan("🔗 Connected Accounts")
			output.Println()

			table := NewTable(output, "BROKER", "ACCOUNT", "USER", "STATUS", "TOKEN EXPIRES", "ACTION")
			for _, r := range records {
				eff := account.Resolve(r, now)

				expiry := "-"
				if r.TokenExpiryTime != nil {
					expiry = r.TokenExpiryTime.Format("02 Jan 15:04")
				}

				action := ""
				if eff.ShouldShowActivateButton {
					action = "activate"
				} else if eff.ShouldShowDeactivateButton {
					action = "deactivate"
				}

				table.AddRow(
					r.BrokerName,
					r.AccountID,
					r.UserID,
					formatAccountStatus(output, eff.AccountStatus),
					expiry,
					action,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAccountsDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "deactivate <broker> <account-id>",
		Short:   "Mark a connected account inactive",
		Args:    cobra.ExactArgs(2),
		Example: `  copytrade accounts deactivate shoonya FA12345`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Account store unavailable")
				return fmt.Errorf("account store unavailable")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.UpdateAccountStatus(ctx, args[0], args[1], models.AccountStatusInactive); err != nil {
				output.Error("Failed to deactivate account: %v", err)
				return err
			}

			color.Green("✓ Account %s/%s marked inactive", args[0], args[1])
			return nil
		},
	}
}

func formatAccountStatus(output *Output, status models.AccountStatus) string {
	switch status {
	case models.AccountStatusActive:
		return output.Green(string(status))
	case models.AccountStatusInactive:
		return output.Red(string(status))
	case models.AccountStatusRefreshRequired, models.AccountStatusProceedToOAuth:
		return output.Yellow(string(status))
	default:
		return string(status)
	}
}
