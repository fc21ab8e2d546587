package warehouse

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"snowgate/clients"
	"snowgate/core"
	"snowgate/models"
)

// safeIdentifier is the only shape of account and role name allowed to reach
// the warehouse. Identifiers are interpolated into DDL, so anything outside
// this set is rejected before a connection is even opened.
var safeIdentifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type WarehouseService struct {
	client clients.SnowflakeClient
}

func NewWarehouseService(client clients.SnowflakeClient) *WarehouseService {
	return &WarehouseService{client: client}
}

func validateIdentifier(value, label string) error {
	if !safeIdentifier.MatchString(value) {
		return core.NewValidationError("Invalid %s: '%s'. Only letters, digits and _ allowed.", label, value)
	}
	return nil
}

// Onboard creates a new warehouse user with a generated temporary credential
// and grants them the given role. The credential must be changed on first
// login.
func (s *WarehouseService) Onboard(ctx context.Context, account, role string) (*models.OnboardResult, error) {
	if err := validateIdentifier(account, "username"); err != nil {
		return nil, err
	}
	if err := validateIdentifier(role, "role"); err != nil {
		return nil, err
	}

	tempCredential, err := generateTempCredential(credentialLength)
	if err != nil {
		return nil, core.NewOperationError("generate credential", err)
	}

	createStmt := fmt.Sprintf(
		`CREATE USER "%s" PASSWORD = '%s' MUST_CHANGE_PASSWORD = TRUE DEFAULT_ROLE = "%s" COMMENT = 'Created via Slack integration'`,
		account, tempCredential, role,
	)
	if err := s.client.Exec(ctx, createStmt); err != nil {
		return nil, core.NewOperationError("create user", err)
	}

	grantStmt := fmt.Sprintf(`GRANT ROLE "%s" TO USER "%s"`, role, account)
	if err := s.client.Exec(ctx, grantStmt); err != nil {
		return nil, core.NewOperationError("grant role", err)
	}

	log.Printf("✅ Warehouse user onboarded | account=%s role=%s", account, role)
	return &models.OnboardResult{
		Account:        account,
		Role:           role,
		TempCredential: tempCredential,
	}, nil
}

// ResetCredential rotates an existing warehouse user's credential to a new
// temporary one. No deduplication - every call produces a fresh credential.
func (s *WarehouseService) ResetCredential(ctx context.Context, account string) (*models.ResetCredentialResult, error) {
	if err := validateIdentifier(account, "username"); err != nil {
		return nil, err
	}

	tempCredential, err := generateTempCredential(credentialLength)
	if err != nil {
		return nil, core.NewOperationError("generate credential", err)
	}

	alterStmt := fmt.Sprintf(
		`ALTER USER "%s" SET PASSWORD = '%s' MUST_CHANGE_PASSWORD = TRUE`,
		account, tempCredential,
	)
	if err := s.client.Exec(ctx, alterStmt); err != nil {
		return nil, core.NewOperationError("reset credential", err)
	}

	log.Printf("✅ Warehouse credential reset | account=%s", account)
	return &models.ResetCredentialResult{
		Account:        account,
		TempCredential: tempCredential,
	}, nil
}

// ListUsers returns every non-deleted user visible to the configured role
func (s *WarehouseService) ListUsers(ctx context.Context) ([]*models.WarehouseUser, error) {
	var users []*models.WarehouseUser
	query := `SELECT name, display_name, disabled FROM snowflake.account_usage.users WHERE deleted_on IS NULL ORDER BY name`
	if err := s.client.Select(ctx, &users, query); err != nil {
		return nil, core.NewOperationError("list users", err)
	}
	return users, nil
}
