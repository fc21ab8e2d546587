package snowflake

import (
	"context"
	"log"
	"sync"
)

// MockModeClient implements clients.SnowflakeClient without touching a real
// warehouse. It logs every statement and records it for inspection, which is
// also what the service runs against when MOCK_SNOWFLAKE=true.
type MockModeClient struct {
	mu         sync.Mutex
	statements []string

	// FailWith, when set, is returned from every call. Used by tests to
	// simulate an unreachable or rejecting backend.
	FailWith error
}

func NewMockModeClient() *MockModeClient {
	return &MockModeClient{}
}

func (c *MockModeClient) Exec(ctx context.Context, stmt string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWith != nil {
		return c.FailWith
	}
	log.Printf("🧪 [MOCK] %s", stmt)
	c.statements = append(c.statements, stmt)
	return nil
}

func (c *MockModeClient) Select(ctx context.Context, dest any, query string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWith != nil {
		return c.FailWith
	}
	log.Printf("🧪 [MOCK] %s", query)
	c.statements = append(c.statements, query)
	return nil
}

// Statements returns a copy of every statement executed so far
func (c *MockModeClient) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.statements))
	copy(out, c.statements)
	return out
}
