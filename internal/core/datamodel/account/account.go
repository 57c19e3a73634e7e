package account

import "time"

// Account is a login identity. Roles is a comma separated list matching the
// approval gate roles (employee, manager, hr, special_approver, accounting).
type Account struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	EmployeeID   string    `gorm:"column:employee_id;uniqueIndex;not null"`
	Roles        string    `gorm:"column:roles;not null;default:employee"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (Account) TableName() string {
	return "accounts"
}
