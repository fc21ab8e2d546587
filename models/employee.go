package models

import "github.com/shopspring/decimal"

// Employee is a row in the EMPLOYEES demo table used by the REST CRUD surface
type Employee struct {
	ID         int             `json:"id" db:"ID"`
	Name       string          `json:"name" db:"NAME"`
	Department string          `json:"department" db:"DEPARTMENT"`
	Salary     decimal.Decimal `json:"salary" db:"SALARY"`
}
