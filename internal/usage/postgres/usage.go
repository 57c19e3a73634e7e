package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	usageDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/usage"
	"github.com/frahmantamala/benefit-management/internal/usage"
)

// UsageRepository implements usage.RepositoryAPI using GORM.
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) usage.RepositoryAPI {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) SumCounts(ctx context.Context, employeeID, benefitType string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&usageDatamodel.CountReservation{}).
		Where("employee_id = ? AND benefit_type = ?", employeeID, benefitType).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *UsageRepository) CreateCountReservation(ctx context.Context, reservation *usageDatamodel.CountReservation) error {
	reservation.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *UsageRepository) HasClaim(ctx context.Context, employeeID, benefitType, category string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&usageDatamodel.CategoryClaim{}).
		Where("employee_id = ? AND benefit_type = ? AND category = ?", employeeID, benefitType, category).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UsageRepository) CreateCategoryClaim(ctx context.Context, claim *usageDatamodel.CategoryClaim) error {
	claim.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *UsageRepository) DeleteByRequestID(ctx context.Context, requestID string) error {
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&usageDatamodel.CountReservation{}).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&usageDatamodel.CategoryClaim{}).Error
}

func (r *UsageRepository) CategoriesByRequestID(ctx context.Context, requestID string) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&usageDatamodel.CategoryClaim{}).
		Where("request_id = ?", requestID).
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *UsageRepository) ClaimedCategories(ctx context.Context, employeeID, benefitType string) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&usageDatamodel.CategoryClaim{}).
		Where("employee_id = ? AND benefit_type = ?", employeeID, benefitType).
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *UsageRepository) CountsByRequestID(ctx context.Context, requestID string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&usageDatamodel.CountReservation{}).
		Where("request_id = ?", requestID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
