package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetBalance is the authoritative remaining-budget row for one
// (employee, pool, period) key. Version backs the optimistic CAS update.
type BudgetBalance struct {
	ID         int64           `gorm:"primaryKey"`
	EmployeeID string          `gorm:"column:employee_id;not null;index:idx_budget_key,unique"`
	Pool       string          `gorm:"column:pool;not null;index:idx_budget_key,unique"`
	PeriodKey  string          `gorm:"column:period_key;not null;index:idx_budget_key,unique"`
	Remaining  decimal.Decimal `gorm:"column:remaining;type:decimal(14,2);not null"`
	Version    int64           `gorm:"column:version;not null;default:1"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (BudgetBalance) TableName() string {
	return "budget_balances"
}
