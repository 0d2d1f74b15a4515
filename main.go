package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/cli"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/config"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/logging"
)

func main() {
	// Optional .env for credential overrides; missing file is fine.
	_ = godotenv.Load()

	configDir := os.Getenv("COPYTRADE_CONFIG_DIR")
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "copytrade: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "copytrade: %v\n", err)
		os.Exit(1)
	}
}
