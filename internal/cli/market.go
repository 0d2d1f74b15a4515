package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
	"github.com/ravitejakamalapuram/copytradepro-sub014/pkg/utils"
)

// addMarketDataCommands adds quote and search commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Get a market quote",
		Args:  cobra.ExactArgs(1),
		Example: `  copytrade quote RELIANCE
  copytrade quote SBIN --exchange BSE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			exchange, _ := cmd.Flags().GetString("exchange")
			symbol := strings.ToUpper(args[0])

			quote, err := utils.RetryWithResult(ctx, app.retryConfig(), func() (*models.Quote, error) {
				return b.GetQuotes(ctx, models.Exchange(strings.ToUpper(exchange)), symbol)
			})
			if err != nil {
				output.Error("Failed to fetch quote: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			output.Bold("%s (%s)", quote.Symbol, quote.Exchange)
			output.Printf("  LTP:    %.2f  %s\n", quote.LTP, output.FormatPercent(quote.ChangePercent))
			output.Printf("  Open:   %.2f\n", quote.Open)
			output.Printf("  High:   %.2f\n", quote.High)
			output.Printf("  Low:    %.2f\n", quote.Low)
			output.Printf("  Close:  %.2f\n", quote.Close)
			output.Printf("  Volume: %s\n", FormatVolume(quote.Volume))
			return nil
		},
	}

	cmd.Flags().String("exchange", "NSE", "exchange: NSE, BSE, NFO, CDS, MCX")

	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search tradeable symbols",
		Args:  cobra.MinimumNArgs(1),
		Example: `  copytrade search reliance
  copytrade search "tata motors" --exchange NSE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			exchange, _ := cmd.Flags().GetString("exchange")
			text := strings.Join(args, " ")

			results, err := utils.RetryWithResult(ctx, app.retryConfig(), func() ([]models.SearchResult, error) {
				return b.SearchScrip(ctx, models.Exchange(strings.ToUpper(exchange)), text)
			})
			if err != nil {
				output.Error("Search failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			if len(results) == 0 {
				output.Info("No symbols matched %q.", text)
				return nil
			}

			table := NewTable(output, "SYMBOL", "NAME", "EXCHANGE", "TOKEN", "LOT")
			for _, r := range results {
				table.AddRow(r.Symbol, r.Name, string(r.Exchange), r.Token, strconv.Itoa(r.LotSize))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("exchange", "NSE", "exchange: NSE, BSE, NFO, CDS, MCX")

	return cmd
}
