package warehouse

import (
	"context"

	"github.com/stretchr/testify/mock"

	"snowgate/models"
)

// MockWarehouseOperationsService is a mock implementation of
// services.WarehouseOperationsService
type MockWarehouseOperationsService struct {
	mock.Mock
}

func (m *MockWarehouseOperationsService) Onboard(ctx context.Context, account, role string) (*models.OnboardResult, error) {
	args := m.Called(ctx, account, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OnboardResult), args.Error(1)
}

func (m *MockWarehouseOperationsService) ResetCredential(ctx context.Context, account string) (*models.ResetCredentialResult, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResetCredentialResult), args.Error(1)
}

func (m *MockWarehouseOperationsService) ListUsers(ctx context.Context) ([]*models.WarehouseUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WarehouseUser), args.Error(1)
}
