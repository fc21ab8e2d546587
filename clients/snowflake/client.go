package snowflake

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/snowflakedb/gosnowflake" // registers the "snowflake" driver

	"snowgate/clients"
	"snowgate/config"
)

// SnowflakeClient implements clients.SnowflakeClient against a real Snowflake
// account. Every operation opens its own connection and closes it when done.
type SnowflakeClient struct {
	dsn string
}

// NewSnowflakeClient creates a client from the configured Snowflake account
func NewSnowflakeClient(cfg config.SnowflakeConfig) (clients.SnowflakeClient, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}
	return &SnowflakeClient{dsn: dsn}, nil
}

func (c *SnowflakeClient) Exec(ctx context.Context, stmt string, args ...any) error {
	db, err := sqlx.ConnectContext(ctx, "snowflake", c.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to snowflake: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

func (c *SnowflakeClient) Select(ctx context.Context, dest any, query string, args ...any) error {
	db, err := sqlx.ConnectContext(ctx, "snowflake", c.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to snowflake: %w", err)
	}
	defer db.Close()

	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}
	return nil
}
