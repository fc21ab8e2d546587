package commands

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snowgate/models"
)

// MockCommandsService is a mock implementation of services.CommandsService
type MockCommandsService struct {
	mock.Mock
}

func (m *MockCommandsService) Dispatch(ctx context.Context, cmd models.SlashCommand) *models.CommandResult {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.CommandResult)
}

func (m *MockCommandsService) HelpText() string {
	args := m.Called()
	return args.String(0)
}
