package commands

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/samber/mo"

	"snowgate/models"
	"snowgate/services"
)

// commandSpec describes one registered subcommand
type commandSpec struct {
	usage   string
	minArgs int
	run     func(ctx context.Context, cmd models.SlashCommand) (*models.CommandResult, error)
}

// CommandsService maps subcommand names to warehouse operations. It runs
// only inside a deferred task, after the ack has already gone out, and it
// never propagates an error - every failure becomes a Failure result for the
// responder to deliver.
type CommandsService struct {
	warehouseService services.WarehouseOperationsService
	registry         map[string]commandSpec
}

func NewCommandsService(warehouseService services.WarehouseOperationsService) *CommandsService {
	s := &CommandsService{warehouseService: warehouseService}
	s.registry = map[string]commandSpec{
		"onboard": {
			usage:   "`/snowflake onboard <username> <role>`",
			minArgs: 2,
			run:     s.runOnboard,
		},
		"reset-credential": {
			usage:   "`/snowflake reset-credential <username>`",
			minArgs: 1,
			run:     s.runResetCredential,
		},
	}
	return s
}

func (s *CommandsService) lookup(subcommand string) mo.Option[commandSpec] {
	spec, ok := s.registry[subcommand]
	if !ok {
		return mo.None[commandSpec]()
	}
	return mo.Some(spec)
}

// Dispatch resolves the subcommand, checks argument arity and invokes the
// warehouse operation. Concurrent invocations for the same target are
// deliberately not serialized or deduplicated here - that race belongs to
// the warehouse, not the dispatcher.
func (s *CommandsService) Dispatch(ctx context.Context, cmd models.SlashCommand) *models.CommandResult {
	log.Printf("📋 Dispatching command | id=%s subcommand=%s args=%d", cmd.InvocationID, cmd.Subcommand, len(cmd.Args))

	maybeSpec := s.lookup(cmd.Subcommand)
	if !maybeSpec.IsPresent() {
		return &models.CommandResult{
			Success: false,
			Message: fmt.Sprintf("❓ Unknown subcommand: `%s`\n\n%s", cmd.Subcommand, s.HelpText()),
		}
	}
	spec := maybeSpec.MustGet()

	if len(cmd.Args) < spec.minArgs {
		return &models.CommandResult{
			Success: false,
			Message: fmt.Sprintf("❌ Usage: %s", spec.usage),
		}
	}

	result, err := spec.run(ctx, cmd)
	if err != nil {
		log.Printf("❌ Command failed | id=%s subcommand=%s error=%v", cmd.InvocationID, cmd.Subcommand, err)
		return &models.CommandResult{
			Success: false,
			Message: fmt.Sprintf("❌ *%s failed:* %v", cmd.Subcommand, err),
		}
	}

	log.Printf("✅ Command completed | id=%s subcommand=%s performed_by=%s", cmd.InvocationID, cmd.Subcommand, cmd.UserID)
	return result
}

// HelpText lists every registered subcommand with its usage string
func (s *CommandsService) HelpText() string {
	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("*Available commands:*\n")
	for _, name := range names {
		b.WriteString("• " + s.registry[name].usage + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *CommandsService) runOnboard(ctx context.Context, cmd models.SlashCommand) (*models.CommandResult, error) {
	account, role := cmd.Args[0], cmd.Args[1]

	result, err := s.warehouseService.Onboard(ctx, account, role)
	if err != nil {
		return nil, err
	}

	return &models.CommandResult{
		Success: true,
		Message: fmt.Sprintf(
			"✅ *User onboarded successfully*\n• Username: `%s`\n• Role: `%s`\n• Temp password: `%s`\n_User must change password on first login._",
			result.Account, result.Role, result.TempCredential,
		),
		Data: map[string]string{
			"account":         result.Account,
			"role":            result.Role,
			"temp_credential": result.TempCredential,
		},
	}, nil
}

func (s *CommandsService) runResetCredential(ctx context.Context, cmd models.SlashCommand) (*models.CommandResult, error) {
	account := cmd.Args[0]

	result, err := s.warehouseService.ResetCredential(ctx, account)
	if err != nil {
		return nil, err
	}

	return &models.CommandResult{
		Success: true,
		Message: fmt.Sprintf(
			"✅ *Password reset successfully*\n• Username: `%s`\n• New temp password: `%s`\n_User must change password on next login._",
			result.Account, result.TempCredential,
		),
		Data: map[string]string{
			"account":         result.Account,
			"temp_credential": result.TempCredential,
		},
	}, nil
}
