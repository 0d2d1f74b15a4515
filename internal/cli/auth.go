package cli

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/broker"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newAuthStatusCmd(app))
}

// credentialsFor builds the credential variant for a broker key from the
// loaded configuration.
func (a *App) credentialsFor(key, authCode string) (models.BrokerCredentials, error) {
	switch key {
	case broker.BrokerShoonya:
		c := a.Config.Credentials.Shoonya
		if c.UserID == "" {
			return models.BrokerCredentials{}, fmt.Errorf("shoonya credentials not configured, check credentials.toml")
		}
		return models.NewDirectAuthCredentials(key, models.DirectAuthCredentials{
			UserID:     c.UserID,
			Password:   c.Password,
			VendorCode: c.VendorCode,
			APISecret:  c.APISecret,
			IMEI:       c.IMEI,
			TOTPKey:    c.TOTPSecret,
		}), nil
	case broker.BrokerFyers:
		c := a.Config.Credentials.Fyers
		if c.ClientID == "" {
			return models.BrokerCredentials{}, fmt.Errorf("fyers credentials not configured, check credentials.toml")
		}
		return models.NewOAuthCredentials(key, models.OAuthCredentials{
			ClientID:    c.ClientID,
			SecretKey:   c.SecretKey,
			RedirectURI: c.RedirectURI,
			AuthCode:    authCode,
		}), nil
	default:
		return models.BrokerCredentials{}, fmt.Errorf("no credentials configured for broker %q", key)
	}
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the selected broker",
		Long: `Login to the selected broker.

Shoonya logs in directly using the configured password and TOTP secret.
Fyers uses an OAuth2 authorization-code flow: the first call prints an
authorization URL; after completing it in the browser, run login again
with --auth-code.`,
		Example: `  copytrade login
  copytrade login --broker fyers
  copytrade login --broker fyers --auth-code=<code>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			authCode, _ := cmd.Flags().GetString("auth-code")
			creds, err := app.credentialsFor(b.Name(), authCode)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			result, err := b.Login(ctx, creds)
			if err != nil {
				output.Error("Login failed: %v", err)
				return err
			}

			// OAuth brokers answer the first call with an authorization URL
			// instead of a session.
			if result.AuthURL != "" {
				output.Info("Authorization required. Complete login in your browser:")
				output.Println()
				output.Bold("Authorization URL:")
				output.Println(result.AuthURL)
				output.Println()
				if err := openURL(result.AuthURL); err != nil {
					output.Warning("Could not open browser automatically")
				}
				output.Info("After authorizing, run:")
				output.Dim("  copytrade login --broker %s --auth-code=<code>", b.Name())
				return nil
			}

			if !result.Success {
				output.Error("Login failed: %s", result.Message)
				return fmt.Errorf("login failed: %s", result.Message)
			}

			output.Success("✓ Login successful!")

			info, err := b.ExtractAccountInfo(result, creds)
			if err != nil {
				output.Warning("Could not extract account info: %v", err)
				return nil
			}

			output.Println()
			output.Bold("Account Info")
			output.Printf("  Broker:     %s\n", info.Broker)
			output.Printf("  Account ID: %s\n", info.AccountID)
			output.Printf("  User ID:    %s\n", info.UserID)
			if result.TokenExpiryTime != nil {
				output.Printf("  Token expires: %s\n", result.TokenExpiryTime.Format("02 Jan 2006, 03:04 PM"))
			}

			if app.Store != nil {
				record := &models.DbAccountRecord{
					BrokerName:             info.Broker,
					AccountID:              info.AccountID,
					UserID:                 info.UserID,
					AccountStatus:          models.AccountStatusActive,
					TokenExpiryTime:        result.TokenExpiryTime,
					RefreshTokenExpiryTime: result.RefreshTokenExpiryTime,
				}
				if err := app.Store.SaveAccount(ctx, record); err != nil {
					output.Warning("Could not persist account: %v", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().String("auth-code", "", "OAuth authorization code (Fyers second step)")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the selected broker",
		Long: `Invalidate the current session and clear held tokens.

The stored account record is marked INACTIVE, never deleted.`,
		Example: `  copytrade logout
  copytrade logout --broker fyers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			if !b.IsLoggedIn() {
				output.Warning("Not currently logged in.")
				return nil
			}

			result, err := b.Logout(ctx)
			if err != nil {
				output.Error("Logout failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"success":   result.Success,
					"message":   result.Message,
					"timestamp": time.Now().Format(time.RFC3339),
				})
			}

			output.Success("✓ Logged out successfully!")
			output.Dim("Session tokens have been cleared.")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "auth-status",
		Short: "Check authentication status",
		Long:  "Display current authentication status for the selected broker.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			if !b.IsLoggedIn() {
				output.Warning("Not authenticated (%s)", b.Name())
				output.Println()
				output.Info("Run 'copytrade login --broker %s' to authenticate", b.Name())
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if !b.ValidateSession(ctx, "") {
				output.Warning("Session expired (%s)", b.Name())
				output.Info("Run 'copytrade login --broker %s' to re-authenticate", b.Name())
				return nil
			}

			output.Success("✓ Authenticated (%s)", b.Name())
			return nil
		},
	}
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}
