package employees

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"snowgate/clients"
	"snowgate/core"
	"snowgate/models"
)

// EmployeesService backs the REST CRUD surface over the EMPLOYEES demo
// table. Everything here uses parameterized statements - no identifier
// interpolation happens in this service.
type EmployeesService struct {
	client clients.SnowflakeClient
}

func NewEmployeesService(client clients.SnowflakeClient) *EmployeesService {
	return &EmployeesService{client: client}
}

// Setup creates the EMPLOYEES demo table. Run once before using the CRUD
// endpoints.
func (s *EmployeesService) Setup(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS EMPLOYEES (
		ID INT AUTOINCREMENT PRIMARY KEY,
		NAME STRING NOT NULL,
		DEPARTMENT STRING NOT NULL,
		SALARY NUMBER(12,2) NOT NULL
	)`
	if err := s.client.Exec(ctx, stmt); err != nil {
		return core.NewOperationError("setup employees table", err)
	}
	log.Printf("✅ EMPLOYEES demo table ready")
	return nil
}

func (s *EmployeesService) Create(ctx context.Context, name, department string, salary decimal.Decimal) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(department) == "" {
		return core.NewValidationError("name and department cannot be empty")
	}
	stmt := `INSERT INTO EMPLOYEES (NAME, DEPARTMENT, SALARY) VALUES (?, ?, ?)`
	if err := s.client.Exec(ctx, stmt, name, department, salary); err != nil {
		return core.NewOperationError("create employee", err)
	}
	return nil
}

// List returns all employees, optionally filtered by department
func (s *EmployeesService) List(ctx context.Context, department string) ([]*models.Employee, error) {
	var rows []*models.Employee
	if department != "" {
		query := `SELECT ID, NAME, DEPARTMENT, SALARY FROM EMPLOYEES WHERE DEPARTMENT = ? ORDER BY ID`
		if err := s.client.Select(ctx, &rows, query, department); err != nil {
			return nil, core.NewOperationError("list employees", err)
		}
		return rows, nil
	}

	query := `SELECT ID, NAME, DEPARTMENT, SALARY FROM EMPLOYEES ORDER BY ID`
	if err := s.client.Select(ctx, &rows, query); err != nil {
		return nil, core.NewOperationError("list employees", err)
	}
	return rows, nil
}

// Update changes only the fields that are non-nil
func (s *EmployeesService) Update(ctx context.Context, id int, name, department *string, salary *decimal.Decimal) error {
	var sets []string
	var args []any
	if name != nil {
		sets = append(sets, "NAME = ?")
		args = append(args, *name)
	}
	if department != nil {
		sets = append(sets, "DEPARTMENT = ?")
		args = append(args, *department)
	}
	if salary != nil {
		sets = append(sets, "SALARY = ?")
		args = append(args, *salary)
	}
	if len(sets) == 0 {
		return core.NewValidationError("no fields to update")
	}

	stmt := "UPDATE EMPLOYEES SET " + strings.Join(sets, ", ") + " WHERE ID = ?"
	args = append(args, id)
	if err := s.client.Exec(ctx, stmt, args...); err != nil {
		return core.NewOperationError("update employee", err)
	}
	return nil
}

func (s *EmployeesService) Delete(ctx context.Context, id int) error {
	if err := s.client.Exec(ctx, `DELETE FROM EMPLOYEES WHERE ID = ?`, id); err != nil {
		return core.NewOperationError("delete employee", err)
	}
	return nil
}
