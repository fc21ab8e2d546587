package responder

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snowgate/models"
)

// MockResponderService is a mock implementation of services.ResponderService
type MockResponderService struct {
	mock.Mock
}

func (m *MockResponderService) Deliver(ctx context.Context, responseURL string, result *models.CommandResult) {
	m.Called(ctx, responseURL, result)
}
