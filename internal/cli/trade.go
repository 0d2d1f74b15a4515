package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/broker"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/logging"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
	"github.com/ravitejakamalapuram/copytradepro-sub014/pkg/utils"
)

// addTradingCommands adds order and position commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newModifyCmd(app))
	rootCmd.AddCommand(newCancelCmd(app))
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newOrderStatusCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
}

func (a *App) retryConfig() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	if a.Config.Limits.MaxRetryAttempts > 0 {
		cfg.MaxAttempts = a.Config.Limits.MaxRetryAttempts
	}
	if a.Config.Limits.RetryBaseDelay > 0 {
		cfg.BaseDelay = a.Config.Limits.RetryBaseDelay
	}
	return cfg
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := newOrderCmd(app, "buy", models.ActionBuy)
	cmd.Short = "Place a buy order"
	cmd.Example = `  copytrade buy RELIANCE 10
  copytrade buy SBIN 50 --type LIMIT --price 820.50
  copytrade buy NIFTY24DECFUT 25 --exchange NFO --product NRML`
	return cmd
}

func newSellCmd(app *App) *cobra.Command {
	cmd := newOrderCmd(app, "sell", models.ActionSell)
	cmd.Short = "Place a sell order"
	cmd.Example = `  copytrade sell RELIANCE 10
  copytrade sell SBIN 50 --type SL-LIMIT --price 790 --trigger 795`
	return cmd
}

func newOrderCmd(app *App, use string, action models.OrderAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:  use + " <symbol> <quantity>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			qty, err := strconv.Atoi(args[1])
			if err != nil {
				output.Error("Invalid quantity: %s", args[1])
				return fmt.Errorf("invalid quantity %q", args[1])
			}

			orderType, _ := cmd.Flags().GetString("type")
			price, _ := cmd.Flags().GetFloat64("price")
			trigger, _ := cmd.Flags().GetFloat64("trigger")
			exchange, _ := cmd.Flags().GetString("exchange")
			product, _ := cmd.Flags().GetString("product")
			validity, _ := cmd.Flags().GetString("validity")
			account, _ := cmd.Flags().GetString("account")
			if account == "" {
				account = "default"
			}

			req := &models.OrderRequest{
				Symbol:       strings.ToUpper(args[0]),
				Action:       action,
				Quantity:     qty,
				OrderType:    models.OrderType(strings.ToUpper(orderType)),
				Price:        price,
				TriggerPrice: trigger,
				Exchange:     models.Exchange(strings.ToUpper(exchange)),
				Product:      models.ProductType(strings.ToUpper(product)),
				Validity:     models.Validity(strings.ToUpper(validity)),
				AccountID:    account,
			}

			resp, err := utils.RetryWithResult(ctx, app.retryConfig(), func() (*models.OrderResponse, error) {
				return b.PlaceOrder(ctx, req)
			})
			if err != nil {
				output.Error("Order failed: %v", err)
				return err
			}
			if !resp.Success {
				output.Error("Order rejected: %s", resp.Message)
				return fmt.Errorf("order rejected: %s", resp.Message)
			}

			info := b.ExtractOrderInfo(resp, req)
			logging.LogOrder(app.Logger, info.BrokerOrderID, req.Symbol, string(action), string(resp.Data.Status))

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"success":         true,
					"order_id":        resp.Data.OrderID,
					"broker_order_id": info.BrokerOrderID,
					"status":          resp.Data.Status,
				})
			}

			output.Success("✓ Order placed")
			output.Printf("  Order ID: %s\n", resp.Data.OrderID)
			output.Printf("  Status:   %s\n", resp.Data.Status)
			return nil
		},
	}

	cmd.Flags().String("type", "MARKET", "order type: MARKET, LIMIT, SL-LIMIT, SL-MARKET")
	cmd.Flags().Float64("price", 0, "limit price (required for LIMIT and SL-LIMIT)")
	cmd.Flags().Float64("trigger", 0, "trigger price (required for SL orders)")
	cmd.Flags().String("exchange", "NSE", "exchange: NSE, BSE, NFO, CDS, MCX")
	cmd.Flags().String("product", "MIS", "product: CNC, MIS, NRML")
	cmd.Flags().String("validity", "DAY", "validity: DAY, IOC, GTD")
	cmd.Flags().String("account", "", "account identifier")

	return cmd
}

func newModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modify <order-id> <symbol> <quantity>",
		Short:   "Modify an open order",
		Args:    cobra.ExactArgs(3),
		Example: `  copytrade modify 24082600001234 RELIANCE 20 --type LIMIT --price 815`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}
			amender, ok := b.(broker.OrderAmender)
			if !ok {
				output.Error("%s does not support modifying orders", b.Name())
				return fmt.Errorf("%s does not support modifying orders", b.Name())
			}

			qty, err := strconv.Atoi(args[2])
			if err != nil {
				output.Error("Invalid quantity: %s", args[2])
				return fmt.Errorf("invalid quantity %q", args[2])
			}

			orderType, _ := cmd.Flags().GetString("type")
			price, _ := cmd.Flags().GetFloat64("price")
			trigger, _ := cmd.Flags().GetFloat64("trigger")
			exchange, _ := cmd.Flags().GetString("exchange")
			product, _ := cmd.Flags().GetString("product")
			account, _ := cmd.Flags().GetString("account")
			if account == "" {
				account = "default"
			}

			req := &models.OrderRequest{
				Symbol:       strings.ToUpper(args[1]),
				Action:       models.ActionBuy,
				Quantity:     qty,
				OrderType:    models.OrderType(strings.ToUpper(orderType)),
				Price:        price,
				TriggerPrice: trigger,
				Exchange:     models.Exchange(strings.ToUpper(exchange)),
				Product:      models.ProductType(strings.ToUpper(product)),
				Validity:     models.ValidityDay,
				AccountID:    account,
			}

			resp, err := utils.RetryWithResult(ctx, app.retryConfig(), func() (*models.OrderResponse, error) {
				return amender.ModifyOrder(ctx, args[0], req)
			})
			if err != nil {
				output.Error("Modify failed: %v", err)
				return err
			}
			if !resp.Success {
				output.Error("Modify rejected: %s", resp.Message)
				return fmt.Errorf("modify rejected: %s", resp.Message)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"success": true, "order_id": args[0]})
			}
			output.Success("✓ Order %s modified", args[0])
			return nil
		},
	}

	cmd.Flags().String("type", "LIMIT", "order type: MARKET, LIMIT, SL-LIMIT, SL-MARKET")
	cmd.Flags().Float64("price", 0, "new limit price")
	cmd.Flags().Float64("trigger", 0, "new trigger price")
	cmd.Flags().String("exchange", "NSE", "exchange: NSE, BSE, NFO, CDS, MCX")
	cmd.Flags().String("product", "MIS", "product: CNC, MIS, NRML")
	cmd.Flags().String("account", "", "account identifier")
	return cmd
}

func newCancelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cancel <order-id>",
		Short:   "Cancel an open order",
		Args:    cobra.ExactArgs(1),
		Example: `  copytrade cancel 24082600001234`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}
			amender, ok := b.(broker.OrderAmender)
			if !ok {
				output.Error("%s does not support cancelling orders", b.Name())
				return fmt.Errorf("%s does not support cancelling orders", b.Name())
			}

			result, err := utils.RetryWithResult(ctx, app.retryConfig(), func() (*broker.Result, error) {
				return amender.CancelOrder(ctx, args[0])
			})
			if err != nil {
				output.Error("Cancel failed: %v", err)
				return err
			}
			if !result.Success {
				output.Error("Cancel rejected: %s", result.Message)
				return fmt.Errorf("cancel rejected: %s", result.Message)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"success": true, "order_id": args[0]})
			}
			output.Success("✓ Order %s cancelled", args[0])
			return nil
		},
	}
	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trades",
		Short:   "Show the day's executed fills",
		Example: `  copytrade trades`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}
			provider, ok := b.(broker.TradeBookProvider)
			if !ok {
				output.Error("%s does not expose a trade book", b.Name())
				return fmt.Errorf("%s does not expose a trade book", b.Name())
			}

			account, _ := cmd.Flags().GetString("account")
			trades, err := utils.RetryWithResult(ctx, app.retryConfig(), func() ([]models.Trade, error) {
				return provider.GetTradeBook(ctx, account)
			})
			if err != nil {
				output.Error("Failed to fetch trade book: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Info("No fills today.")
				return nil
			}

			table := NewTable(output, "ORDER ID", "SYMBOL", "SIDE", "QTY", "PRICE", "TIME")
			for _, t := range trades {
				table.AddRow(
					t.OrderID,
					t.Symbol,
					string(t.Action),
					strconv.Itoa(t.Quantity),
					fmt.Sprintf("%.2f", t.Price),
					t.TradeTime.Format("15:04:05"),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("account", "", "account identifier")
	return cmd
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Short:   "Show the order book",
		Example: `  copytrade orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			account, _ := cmd.Flags().GetString("account")
			orders, err := utils.RetryWithResult(ctx, app.retryConfig(), func() ([]models.OrderStatusDetail, error) {
				return b.GetOrderBook(ctx, account)
			})
			if err != nil {
				output.Error("Failed to fetch order book: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(orders)
			}

			if len(orders) == 0 {
				output.Info("No orders today.")
				return nil
			}

			table := NewTable(output, "ORDER ID", "SYMBOL", "SIDE", "TYPE", "QTY", "FILLED", "PRICE", "STATUS")
			for _, o := range orders {
				table.AddRow(
					o.OrderID,
					o.Symbol,
					string(o.Action),
					string(o.OrderType),
					strconv.Itoa(o.Quantity),
					strconv.Itoa(o.FilledQuantity),
					fmt.Sprintf("%.2f", o.Price),
					formatStatus(output, o.Status),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("account", "", "account identifier")
	return cmd
}

func newOrderStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "order-status <order-id>",
		Short:   "Show the status of one order",
		Args:    cobra.ExactArgs(1),
		Example: `  copytrade order-status 24082600001234`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			account, _ := cmd.Flags().GetString("account")
			detail, err := utils.RetryWithResult(ctx, app.retryConfig(), func() (*models.OrderStatusDetail, error) {
				return b.GetOrderStatus(ctx, account, args[0])
			})
			if err != nil {
				output.Error("Failed to fetch order status: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(detail)
			}

			output.Bold("Order %s", detail.OrderID)
			output.Printf("  Symbol:   %s (%s)\n", detail.Symbol, detail.Exchange)
			output.Printf("  Side:     %s %s\n", detail.Action, detail.OrderType)
			output.Printf("  Quantity: %d (filled %d)\n", detail.Quantity, detail.FilledQuantity)
			if detail.Price > 0 {
				output.Printf("  Price:    %.2f\n", detail.Price)
			}
			if detail.AveragePrice > 0 {
				output.Printf("  Avg Fill: %.2f\n", detail.AveragePrice)
			}
			output.Printf("  Status:   %s", formatStatus(output, detail.Status))
			output.Println()
			if detail.Status == models.OrderStatusRejected && detail.RejectionReason != "" {
				output.Printf("  Reason:   %s\n", detail.RejectionReason)
			}
			return nil
		},
	}
	cmd.Flags().String("account", "", "account identifier")
	return cmd
}

func newPositionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "positions",
		Short:   "Show open positions with P&L",
		Example: `  copytrade positions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			b, err := app.brokerFor(cmd)
			if err != nil {
				output.Error("Unknown broker: %v", err)
				return err
			}

			account, _ := cmd.Flags().GetString("account")
			positions, err := utils.RetryWithResult(ctx, app.retryConfig(), func() ([]models.Position, error) {
				return b.GetPositions(ctx, account)
			})
			if err != nil {
				output.Error("Failed to fetch positions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Info("No open positions.")
				return nil
			}

			var total float64
			table := NewTable(output, "SYMBOL", "PRODUCT", "QTY", "AVG", "LTP", "P&L")
			for _, p := range positions {
				total += p.PnL
				table.AddRow(
					p.Symbol,
					string(p.Product),
					strconv.Itoa(p.Quantity),
					fmt.Sprintf("%.2f", p.AveragePrice),
					fmt.Sprintf("%.2f", p.CurrentPrice),
					output.FormatPnL(p.PnL),
				)
			}
			table.Render()
			output.Println()
			output.Printf("Total P&L: %s\n", output.FormatPnL(total))
			return nil
		},
	}
	cmd.Flags().String("account", "", "account identifier")
	return cmd
}

func formatStatus(output *Output, status models.OrderStatus) string {
	switch status {
	case models.OrderStatusExecuted:
		return output.Green(string(status))
	case models.OrderStatusRejected, models.OrderStatusCancelled:
		return output.Red(string(status))
	case models.OrderStatusPartial:
		return output.Yellow(string(status))
	default:
		return string(status)
	}
}
