package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/benefit"
	benefitDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/benefit"
)

// BenefitRepository implements benefit.Repository using GORM.
type BenefitRepository struct {
	db *gorm.DB
}

func NewBenefitRepository(db *gorm.DB) benefit.Repository {
	return &BenefitRepository{db: db}
}

func (r *BenefitRepository) Create(ctx context.Context, request *benefitDatamodel.BenefitRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *BenefitRepository) GetByID(ctx context.Context, id string) (*benefitDatamodel.BenefitRequest, error) {
	var request benefitDatamodel.BenefitRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// Update writes the full row guarded by the version column. Zero rows
// affected means a concurrent edit got there first.
func (r *BenefitRepository) Update(ctx context.Context, request *benefitDatamodel.BenefitRequest, expectedVersion int64) error {
	request.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&benefitDatamodel.BenefitRequest{}).
		Where("id = ? AND version = ?", request.ID, expectedVersion).
		Updates(map[string]interface{}{
			"subcategory":      request.Subcategory,
			"description":      request.Description,
			"base_amount":      request.BaseAmount,
			"vat_amount":       request.VATAmount,
			"withholding_tax":  request.WithholdingTax,
			"net_amount":       request.NetAmount,
			"reserved_amount":  request.ReservedAmount,
			"excess_amount":    request.ExcessAmount,
			"company_share":    request.CompanyShare,
			"employee_share":   request.EmployeeShare,
			"total_refund":     request.TotalRefund,
			"child_count":      request.ChildCount,
			"status":           request.Status,
			"requires_special": request.RequiresSpecial,
			"line_items":       request.LineItems,
			"line_results":     request.LineResults,
			"stages":           request.Stages,
			"version":          request.Version,
			"submitted_at":     request.SubmittedAt,
			"updated_at":       request.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrReservationConflict
	}
	return nil
}

func (r *BenefitRepository) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*benefitDatamodel.BenefitRequest, error) {
	var requests []*benefitDatamodel.BenefitRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, err
}

func (r *BenefitRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*benefitDatamodel.BenefitRequest, error) {
	var requests []*benefitDatamodel.BenefitRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("submitted_at ASC"). // FIFO for reviewers
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, err
}

func (r *BenefitRepository) UpdateDocumentRef(ctx context.Context, id, documentRef string) error {
	return r.db.WithContext(ctx).
		Model(&benefitDatamodel.BenefitRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"document_ref": documentRef,
			"updated_at":   time.Now(),
		}).Error
}
