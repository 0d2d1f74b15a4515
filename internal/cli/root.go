package cli

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/broker"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/config"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/logging"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-01-15"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *broker.Registry
	Factory  *broker.Factory
	Store    store.AccountStore

	brokers map[string]broker.Broker
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	registry := broker.NewRegistry()
	broker.RegisterDefaults(registry,
		broker.ShoonyaConfig{
			BaseURL: cfg.Brokers.ShoonyaBaseURL,
			Timeout: cfg.Limits.RequestTimeout,
			Logger:  logging.WithBroker(logger, "shoonya"),
		},
		broker.FyersConfig{
			BaseURL: cfg.Brokers.FyersBaseURL,
			Timeout: cfg.Limits.RequestTimeout,
			Logger:  logging.WithBroker(logger, "fyers"),
		},
	)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Factory:  broker.NewFactory(registry),
		brokers:  make(map[string]broker.Broker),
	}

	dbPath := cfg.Store.DBPath
	if dbPath == "" {
		dbPath = config.DefaultConfigDir() + "/accounts.db"
	}
	accountStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize account store, some features may be unavailable")
	} else {
		app.Store = accountStore
		logger.Debug().Msg("SQLite account store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "copytrade",
		Short: "CopyTrade - unified multi-broker trading CLI",
		Long: `CopyTrade is a unified integration layer over Indian stock brokers.

It speaks a single canonical vocabulary for orders, positions and quotes
regardless of which broker executes them. Shoonya (direct TOTP auth) and
Fyers (OAuth2) are supported out of the box.

Use 'copytrade help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/copytrade)")
	rootCmd.PersistentFlags().String("broker", "", "broker to use (default: from config)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)

	return rootCmd
}

// brokerKey resolves the broker key for a command, falling back to the
// configured default.
func (a *App) brokerKey(cmd *cobra.Command) string {
	key, _ := cmd.Flags().GetString("broker")
	if key == "" {
		key = a.Config.Brokers.Default
	}
	return strings.ToLower(key)
}

// brokerFor returns the adapter for a command's broker flag, reusing one
// instance per key within the process so session state carries across
// sub-operations.
func (a *App) brokerFor(cmd *cobra.Command) (broker.Broker, error) {
	key := a.brokerKey(cmd)
	if b, ok := a.brokers[key]; ok {
		return b, nil
	}
	b, err := a.Factory.CreateBroker(key)
	if err != nil {
		return nil, err
	}
	a.brokers[key] = b
	return b, nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newBrokersCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("CopyTrade v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newBrokersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "brokers",
		Short: "List supported brokers",
		Long:  "List the broker adapters registered in this build.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			plugins := app.Registry.Plugins()

			if output.IsJSON() {
				type pluginInfo struct {
					Name         string   `json:"name"`
					Version      string   `json:"version"`
					Description  string   `json:"description"`
					Capabilities []string `json:"capabilities"`
				}
				infos := make([]pluginInfo, 0, len(plugins))
				for _, p := range plugins {
					infos = append(infos, pluginInfo{
						Name:         p.Name,
						Version:      p.Version,
						Description:  p.Description,
						Capabilities: p.Capabilities,
					})
				}
				return output.JSON(infos)
			}

			table := NewTable(output, "BROKER", "VERSION", "DESCRIPTION")
			for _, p := range plugins {
				table.AddRow(p.Name, p.Version, p.Description)
			}
			table.Render()
			return nil
		},
	}
}
