package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	sf "github.com/snowflakedb/gosnowflake"
)

type SlackConfig struct {
	SigningSecret     string
	AuthorizedUserIDs []string
	VerifySignatures  bool
}

// IsConfigured returns true if all required Slack configuration is present
func (c SlackConfig) IsConfigured() bool {
	// The signing secret is only mandatory while verification is enabled
	return !c.VerifySignatures || c.SigningSecret != ""
}

type SnowflakeConfig struct {
	Account   string
	User      string
	Password  string
	Warehouse string
	Database  string
	Schema    string
	Role      string
	Mock      bool
}

// IsConfigured returns true if all required Snowflake configuration is present
func (c SnowflakeConfig) IsConfigured() bool {
	if c.Mock {
		return true
	}
	return c.Account != "" &&
		c.User != "" &&
		c.Password != ""
}

// DSN builds a gosnowflake connection string from the configured values
func (c SnowflakeConfig) DSN() (string, error) {
	return sf.DSN(&sf.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Database:  c.Database,
		Schema:    c.Schema,
		Role:      c.Role,
	})
}

type AppConfig struct {
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	AlertWebhookURL    string

	SlackConfig     SlackConfig
	SnowflakeConfig SnowflakeConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	config := &AppConfig{
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		AlertWebhookURL:    getEnvWithDefault("ALERT_WEBHOOK_URL", ""),

		SlackConfig: SlackConfig{
			SigningSecret:     os.Getenv("SLACK_SIGNING_SECRET"),
			AuthorizedUserIDs: splitCommaList(os.Getenv("AUTHORIZED_SLACK_USER_IDS")),
			VerifySignatures:  getEnvWithDefault("VERIFY_SLACK_SIGNATURE", "true") == "true",
		},

		SnowflakeConfig: SnowflakeConfig{
			Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
			User:      os.Getenv("SNOWFLAKE_USER"),
			Password:  os.Getenv("SNOWFLAKE_PASSWORD"),
			Warehouse: getEnvWithDefault("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH"),
			Database:  os.Getenv("SNOWFLAKE_DATABASE"),
			Schema:    getEnvWithDefault("SNOWFLAKE_SCHEMA", "PUBLIC"),
			Role:      getEnvWithDefault("SNOWFLAKE_ROLE", "SYSADMIN"),
			Mock:      getEnvWithDefault("MOCK_SNOWFLAKE", "true") == "true",
		},
	}

	if !config.SlackConfig.IsConfigured() {
		return nil, fmt.Errorf("SLACK_SIGNING_SECRET is not set (required while VERIFY_SLACK_SIGNATURE=true)")
	}
	if !config.SlackConfig.VerifySignatures {
		log.Printf("⚠️ Slack signature verification is DISABLED - do not run this way in production")
	}
	if len(config.SlackConfig.AuthorizedUserIDs) == 0 {
		log.Printf("⚠️ AUTHORIZED_SLACK_USER_IDS is empty - every requester will be authorized")
	}

	if config.SnowflakeConfig.Mock {
		log.Printf("⚠️ Snowflake mock mode enabled - no warehouse statements will be executed")
	} else if !config.SnowflakeConfig.IsConfigured() {
		return nil, fmt.Errorf("snowflake credentials are not fully configured (MOCK_SNOWFLAKE=false)")
	} else {
		log.Printf("✅ Snowflake integration configured")
	}

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCommaList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
