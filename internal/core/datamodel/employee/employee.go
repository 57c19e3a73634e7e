package employee

import "time"

type Employee struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	Team      string    `gorm:"column:team"`
	Position  string    `gorm:"column:position"`
	ManagerID *string   `gorm:"column:manager_id"`
	StartDate time.Time `gorm:"column:start_date;type:date"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}
