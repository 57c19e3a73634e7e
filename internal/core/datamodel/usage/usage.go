package usage

import "time"

// CountReservation records a lifetime-count consumption (childbirth) tied to
// one request. The current count is the sum over an employee's rows; release
// deletes by request id, which makes it naturally idempotent.
type CountReservation struct {
	ID          int64     `gorm:"primaryKey"`
	EmployeeID  string    `gorm:"column:employee_id;not null;index:idx_usage_count"`
	BenefitType string    `gorm:"column:benefit_type;not null;index:idx_usage_count"`
	RequestID   string    `gorm:"column:request_id;not null;index"`
	Count       int       `gorm:"column:count;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (CountReservation) TableName() string {
	return "usage_count_reservations"
}

// CategoryClaim records a lifetime-category-set consumption (funeral). The
// unique index enforces one claim per category per employee at the store
// level as well.
type CategoryClaim struct {
	ID          int64     `gorm:"primaryKey"`
	EmployeeID  string    `gorm:"column:employee_id;not null;index:idx_usage_claim,unique"`
	BenefitType string    `gorm:"column:benefit_type;not null;index:idx_usage_claim,unique"`
	Category    string    `gorm:"column:category;not null;index:idx_usage_claim,unique"`
	RequestID   string    `gorm:"column:request_id;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (CategoryClaim) TableName() string {
	return "usage_category_claims"
}
