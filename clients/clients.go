package clients

import "context"

// SnowflakeClient defines the interface for running statements against the
// warehouse control plane. Each call acquires and releases its own
// connection - the warehouse connection is deliberately not pooled or shared
// across deferred tasks.
type SnowflakeClient interface {
	// Exec runs a single statement that returns no rows
	Exec(ctx context.Context, stmt string, args ...any) error
	// Select runs a query and scans all rows into dest
	Select(ctx context.Context, dest any, query string, args ...any) error
}
