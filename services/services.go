package services

import (
	"context"

	"github.com/shopspring/decimal"

	"snowgate/models"
)

// WarehouseOperationsService defines the interface for privileged warehouse
// user operations. All methods validate identifiers before any backend call.
type WarehouseOperationsService interface {
	Onboard(ctx context.Context, account, role string) (*models.OnboardResult, error)
	ResetCredential(ctx context.Context, account string) (*models.ResetCredentialResult, error)
	ListUsers(ctx context.Context) ([]*models.WarehouseUser, error)
}

// CommandsService defines the interface for dispatching parsed slash commands.
// Dispatch never returns an error - every failure is folded into the result.
type CommandsService interface {
	Dispatch(ctx context.Context, cmd models.SlashCommand) *models.CommandResult
	HelpText() string
}

// ResponderService defines the interface for delivering a command result to
// the caller-supplied callback address. Best effort, never raises.
type ResponderService interface {
	Deliver(ctx context.Context, responseURL string, result *models.CommandResult)
}

// EmployeesService defines the interface for the EMPLOYEES demo table CRUD
type EmployeesService interface {
	Setup(ctx context.Context) error
	Create(ctx context.Context, name, department string, salary decimal.Decimal) error
	List(ctx context.Context, department string) ([]*models.Employee, error)
	Update(ctx context.Context, id int, name, department *string, salary *decimal.Decimal) error
	Delete(ctx context.Context, id int) error
}
