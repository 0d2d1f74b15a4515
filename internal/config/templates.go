package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# CopyTrade Broker Integration Configuration

[brokers]
# Default broker: "shoonya" or "fyers"
default = "shoonya"
# Override base URLs for test environments (leave empty for production)
shoonya_base_url = ""
fyers_base_url = ""

[limits]
# Maximum attempts per operation (first try + retries)
max_retry_attempts = 3
# Base delay between retries; the delay grows linearly per attempt
retry_base_delay = "500ms"
# Sliding-window rate limit applied to outgoing broker calls
rate_limit_calls = 10
rate_limit_window = "1s"
# HTTP request timeout
request_timeout = "10s"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true

[store]
# SQLite database for connected accounts (empty = config dir default)
db_path = ""

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"
`

const credentialsTemplate = `# CopyTrade Broker Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[shoonya]
user_id = ""
password = ""
vendor_code = ""
api_secret = ""
imei = ""
totp_secret = ""

[fyers]
client_id = ""
secret_key = ""
redirect_uri = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Restricted permissions, this file holds secrets
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return fmt.Errorf("credentials file not found, created template at %s", path)
}
