package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	errors "github.com/frahmantamala/benefit-management/internal"
	ledgerDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/ledger"
	"github.com/frahmantamala/benefit-management/internal/ledger"
)

// BalanceRepository implements ledger.RepositoryAPI using GORM.
type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) ledger.RepositoryAPI {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Get(ctx context.Context, employeeID, pool, periodKey string) (*ledgerDatamodel.BudgetBalance, error) {
	var balance ledgerDatamodel.BudgetBalance
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND pool = ? AND period_key = ?", employeeID, pool, periodKey).
		First(&balance).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (r *BalanceRepository) Create(ctx context.Context, balance *ledgerDatamodel.BudgetBalance) error {
	now := time.Now()
	balance.CreatedAt = now
	balance.UpdatedAt = now
	return r.db.WithContext(ctx).Create(balance).Error
}

// UpdateRemaining is the optimistic CAS write: the row is touched only when
// the stored version still matches, and the version advances with it. Zero
// rows affected means a concurrent writer won.
func (r *BalanceRepository) UpdateRemaining(ctx context.Context, id int64, remaining decimal.Decimal, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&ledgerDatamodel.BudgetBalance{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"remaining":  remaining,
			"version":    expectedVersion + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrReservationConflict
	}
	return nil
}
