package models

// SlashCommand is the structured form of an inbound slash command webhook.
// It is handed off to the deferred task at schedule time and must not be
// mutated afterwards.
type SlashCommand struct {
	InvocationID string   `json:"invocation_id"` // ULID tying the ack to its deferred task
	UserID       string   `json:"user_id"`       // Requester identity as assigned by the platform
	Command      string   `json:"command"`       // The slash command itself, e.g. /snowflake
	Subcommand   string   `json:"subcommand"`    // First token of the free text, lower-cased
	Args         []string `json:"args"`          // Remaining tokens, in order
	ResponseURL  string   `json:"response_url"`  // Callback address for the delayed response
}

// CommandResult represents the outcome of processing a command.
// Produced exactly once per command and consumed exactly once by the responder.
type CommandResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}
