// Package usage tracks lifetime consumption for benefit types with
// non-monetary caps: a count of children already reimbursed and the set of
// death-relation categories already claimed. Reservations are keyed by
// request id so releases are idempotent.
package usage

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/core/common/locking"
	usageDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/usage"
)

type RepositoryAPI interface {
	SumCounts(ctx context.Context, employeeID, benefitType string) (int, error)
	CreateCountReservation(ctx context.Context, reservation *usageDatamodel.CountReservation) error
	HasClaim(ctx context.Context, employeeID, benefitType, category string) (bool, error)
	CreateCategoryClaim(ctx context.Context, claim *usageDatamodel.CategoryClaim) error
	// DeleteByRequestID removes both reservation kinds for a request; absent
	// rows are a no-op, which is what makes release idempotent.
	DeleteByRequestID(ctx context.Context, requestID string) error
	CountsByRequestID(ctx context.Context, requestID string) (int, error)
	CategoriesByRequestID(ctx context.Context, requestID string) ([]string, error)
	ClaimedCategories(ctx context.Context, employeeID, benefitType string) ([]string, error)
}

type Tracker struct {
	repo    RepositoryAPI
	catalog *catalog.Catalog
	locks   *locking.KeyedMutex
	logger  *slog.Logger
}

func NewTracker(repo RepositoryAPI, cat *catalog.Catalog, logger *slog.Logger) *Tracker {
	return &Tracker{
		repo:    repo,
		catalog: cat,
		locks:   locking.NewKeyedMutex(),
		logger:  logger,
	}
}

// ReserveCountSlots consumes requestedCount lifetime slots, failing with
// CapExceeded (and leaving the counter untouched) when the cap would be
// passed.
func (t *Tracker) ReserveCountSlots(ctx context.Context, employeeID string, benefitType catalog.BenefitType, requestedCount int, requestID string) error {
	if requestedCount <= 0 {
		return errors.NewValidationError("requested count must be positive", errors.ErrCodeInvalidPayload)
	}

	policy, err := t.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if policy.Period != catalog.PeriodLifetimeCount {
		return errors.NewValidationError("benefit type does not use count slots", errors.ErrCodeInvalidPayload)
	}

	key := t.lockKey(employeeID, benefitType)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	current, err := t.repo.SumCounts(ctx, employeeID, string(benefitType))
	if err != nil {
		return errors.NewInternalError("failed to read usage counter", err)
	}

	if current+requestedCount > policy.LifetimeCap {
		return errors.ErrCapExceeded.WithDetails(map[string]interface{}{
			"benefit_type": string(benefitType),
			"current":      current,
			"requested":    requestedCount,
			"cap":          policy.LifetimeCap,
		})
	}

	err = t.repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
		EmployeeID:  employeeID,
		BenefitType: string(benefitType),
		RequestID:   requestID,
		Count:       requestedCount,
	})
	if err != nil {
		return errors.NewInternalError("failed to reserve usage slots", err)
	}

	t.logger.Info("usage slots reserved",
		"employee_id", employeeID,
		"benefit_type", benefitType,
		"count", requestedCount,
		"request_id", requestID)
	return nil
}

// ReserveCategorySlot claims one category for the benefit's lifetime,
// failing with AlreadyClaimed if the employee has used it before.
func (t *Tracker) ReserveCategorySlot(ctx context.Context, employeeID string, benefitType catalog.BenefitType, category, requestID string) error {
	policy, err := t.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if policy.Period != catalog.PeriodLifetimeCategorySet {
		return errors.NewValidationError("benefit type does not use category slots", errors.ErrCodeInvalidPayload)
	}
	if !policyHasCategory(policy, category) {
		return errors.NewValidationFieldError("category", "unknown category "+category, errors.ErrCodeInvalidPayload)
	}

	key := t.lockKey(employeeID, benefitType)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	claimed, err := t.repo.HasClaim(ctx, employeeID, string(benefitType), category)
	if err != nil {
		return errors.NewInternalError("failed to read usage claims", err)
	}
	if claimed {
		return errors.ErrAlreadyClaimed.WithDetails(map[string]string{
			"benefit_type": string(benefitType),
			"category":     category,
		})
	}

	err = t.repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
		EmployeeID:  employeeID,
		BenefitType: string(benefitType),
		Category:    category,
		RequestID:   requestID,
	})
	if err != nil {
		return errors.NewInternalError("failed to claim usage category", err)
	}

	t.logger.Info("usage category claimed",
		"employee_id", employeeID,
		"benefit_type", benefitType,
		"category", category,
		"request_id", requestID)
	return nil
}

// ReleaseByRequest gives back whatever the request reserved. Releasing a
// request that reserved nothing, or releasing twice, is a no-op.
func (t *Tracker) ReleaseByRequest(ctx context.Context, employeeID string, benefitType catalog.BenefitType, requestID string) error {
	key := t.lockKey(employeeID, benefitType)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	if err := t.repo.DeleteByRequestID(ctx, requestID); err != nil {
		return errors.NewInternalError("failed to release usage reservation", err)
	}
	return nil
}

// ReallocateCountSlots is the edit path: release the request's previous
// slots and reserve the new count as one atomic unit.
func (t *Tracker) ReallocateCountSlots(ctx context.Context, employeeID string, benefitType catalog.BenefitType, newCount int, requestID string) error {
	if newCount <= 0 {
		return errors.NewValidationError("requested count must be positive", errors.ErrCodeInvalidPayload)
	}

	policy, err := t.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}

	key := t.lockKey(employeeID, benefitType)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	previous, err := t.repo.CountsByRequestID(ctx, requestID)
	if err != nil {
		return errors.NewInternalError("failed to read usage reservation", err)
	}

	current, err := t.repo.SumCounts(ctx, employeeID, string(benefitType))
	if err != nil {
		return errors.NewInternalError("failed to read usage counter", err)
	}

	if current-previous+newCount > policy.LifetimeCap {
		return errors.ErrCapExceeded.WithDetails(map[string]interface{}{
			"benefit_type": string(benefitType),
			"current":      current - previous,
			"requested":    newCount,
			"cap":          policy.LifetimeCap,
		})
	}

	if err := t.repo.DeleteByRequestID(ctx, requestID); err != nil {
		return errors.NewInternalError("failed to release usage reservation", err)
	}
	err = t.repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
		EmployeeID:  employeeID,
		BenefitType: string(benefitType),
		RequestID:   requestID,
		Count:       newCount,
	})
	if err != nil {
		return errors.NewInternalError("failed to reserve usage slots", err)
	}
	return nil
}

// ReallocateCategorySlot is the edit path: swap the request's claimed
// category for a new one as one atomic unit. When the target category is
// already claimed by another request, the swap fails and the original claim
// stays in place. Moving to the category the request already holds is a
// no-op.
func (t *Tracker) ReallocateCategorySlot(ctx context.Context, employeeID string, benefitType catalog.BenefitType, category, requestID string) error {
	policy, err := t.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if policy.Period != catalog.PeriodLifetimeCategorySet {
		return errors.NewValidationError("benefit type does not use category slots", errors.ErrCodeInvalidPayload)
	}
	if !policyHasCategory(policy, category) {
		return errors.NewValidationFieldError("category", "unknown category "+category, errors.ErrCodeInvalidPayload)
	}

	key := t.lockKey(employeeID, benefitType)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	held, err := t.repo.CategoriesByRequestID(ctx, requestID)
	if err != nil {
		return errors.NewInternalError("failed to read usage claims", err)
	}
	for _, c := range held {
		if c == category {
			return nil
		}
	}

	claimed, err := t.repo.HasClaim(ctx, employeeID, string(benefitType), category)
	if err != nil {
		return errors.NewInternalError("failed to read usage claims", err)
	}
	if claimed {
		return errors.ErrAlreadyClaimed.WithDetails(map[string]string{
			"benefit_type": string(benefitType),
			"category":     category,
		})
	}

	if err := t.repo.DeleteByRequestID(ctx, requestID); err != nil {
		return errors.NewInternalError("failed to release usage reservation", err)
	}
	err = t.repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
		EmployeeID:  employeeID,
		BenefitType: string(benefitType),
		Category:    category,
		RequestID:   requestID,
	})
	if err != nil {
		return errors.NewInternalError("failed to claim usage category", err)
	}

	t.logger.Info("usage category reallocated",
		"employee_id", employeeID,
		"benefit_type", benefitType,
		"category", category,
		"request_id", requestID)
	return nil
}

// UsedCount reports the lifetime count already consumed, for budget views.
func (t *Tracker) UsedCount(ctx context.Context, employeeID string, benefitType catalog.BenefitType) (int, error) {
	count, err := t.repo.SumCounts(ctx, employeeID, string(benefitType))
	if err != nil {
		return 0, errors.NewInternalError("failed to read usage counter", err)
	}
	return count, nil
}

// ClaimedCategories lists the categories the employee has already used, for
// budget views.
func (t *Tracker) ClaimedCategories(ctx context.Context, employeeID string, benefitType catalog.BenefitType) ([]string, error) {
	claimed, err := t.repo.ClaimedCategories(ctx, employeeID, string(benefitType))
	if err != nil {
		return nil, errors.NewInternalError("failed to read usage claims", err)
	}
	return claimed, nil
}

func (t *Tracker) lockKey(employeeID string, benefitType catalog.BenefitType) string {
	return employeeID + "|" + string(benefitType)
}

func policyHasCategory(policy catalog.LimitPolicy, category string) bool {
	for _, c := range policy.Categories {
		if c == category {
			return true
		}
	}
	return false
}
