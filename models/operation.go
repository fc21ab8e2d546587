package models

// OnboardResult is returned after a new warehouse user has been created and
// granted their role
type OnboardResult struct {
	Account        string `json:"account"`
	Role           string `json:"role"`
	TempCredential string `json:"temp_credential"`
}

// ResetCredentialResult is returned after an existing warehouse user's
// credential has been rotated
type ResetCredentialResult struct {
	Account        string `json:"account"`
	TempCredential string `json:"temp_credential"`
}

// WarehouseUser is a single row from the warehouse's user listing
type WarehouseUser struct {
	Name        string `json:"name" db:"NAME"`
	DisplayName string `json:"display_name" db:"DISPLAY_NAME"`
	Disabled    bool   `json:"disabled" db:"DISABLED"`
}
