package employee

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/employee"
)

// Employee is the locally mirrored profile. The HR directory is the source
// of truth; rows here are refreshed on demand.
type Employee struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Team      string    `json:"team"`
	Position  string    `json:"position"`
	ManagerID *string   `json:"manager_id,omitempty"`
	StartDate time.Time `json:"start_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:        e.ID,
		Email:     e.Email,
		Name:      e.Name,
		Team:      e.Team,
		Position:  e.Position,
		ManagerID: e.ManagerID,
		StartDate: e.StartDate,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:        e.ID,
		Email:     e.Email,
		Name:      e.Name,
		Team:      e.Team,
		Position:  e.Position,
		ManagerID: e.ManagerID,
		StartDate: e.StartDate,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
