// Package ledger owns the authoritative remaining-budget figure per
// (employee, benefit pool, period) and the atomic reserve/release operations
// the request path uses. All mutations for one key run single-writer: a
// per-key mutex in this process plus an optimistic version check in the
// store. A CAS failure after retries surfaces ReservationConflict so the
// caller can recompute and resubmit the whole operation.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/calculator"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/core/common/locking"
	ledgerDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/ledger"
)

const casAttempts = 3

type RepositoryAPI interface {
	// Get returns (nil, nil) when no balance row exists for the key.
	Get(ctx context.Context, employeeID, pool, periodKey string) (*ledgerDatamodel.BudgetBalance, error)
	Create(ctx context.Context, balance *ledgerDatamodel.BudgetBalance) error
	// UpdateRemaining applies the new figure only if the stored version still
	// matches; a mismatch returns ErrReservationConflict.
	UpdateRemaining(ctx context.Context, id int64, remaining decimal.Decimal, expectedVersion int64) error
}

type Service struct {
	repo         RepositoryAPI
	catalog      *catalog.Catalog
	locks        *locking.KeyedMutex
	logger       *slog.Logger
	now          func() time.Time
	anchorMonth  time.Month
	anchorDay    int
}

type Option func(*Service)

// WithClock overrides the time source, used by tests and the reset worker.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithFiscalAnchor sets the month/day annual budgets reset from.
func WithFiscalAnchor(month time.Month, day int) Option {
	return func(s *Service) {
		s.anchorMonth = month
		s.anchorDay = day
	}
}

func NewService(repo RepositoryAPI, cat *catalog.Catalog, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		catalog:     cat,
		locks:       locking.NewKeyedMutex(),
		logger:      logger,
		now:         time.Now,
		anchorMonth: time.January,
		anchorDay:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remaining returns the current balance for the benefit's pool; pooled types
// report the shared balance regardless of which member is queried.
func (s *Service) Remaining(ctx context.Context, employeeID string, benefitType catalog.BenefitType) (decimal.Decimal, error) {
	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return decimal.Zero, err
	}
	if !policy.HasMonetaryBudget() {
		return decimal.Zero, errors.ErrNoBudgetTracked.WithDetails(map[string]string{
			"benefit_type": string(benefitType),
		})
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	balance, err := s.getOrCreate(ctx, employeeID, policy)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Remaining, nil
}

// Reserve atomically checks amount <= remaining and decrements. It fails
// with InsufficientBudget without side effect when the balance is short.
// Benefit types whose excess is split rather than rejected go through
// ReserveWithSplit instead.
func (s *Service) Reserve(ctx context.Context, employeeID string, benefitType catalog.BenefitType, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.ErrInvalidAmount.WithDetails(map[string]string{"field": "amount", "value": amount.String()})
	}

	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if !policy.HasMonetaryBudget() {
		// Uncapped types carry no balance to decrement.
		return nil
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.adjustLocked(ctx, employeeID, policy, decimal.Zero, amount)
}

// ReserveWithSplit is the training path: the computation of the
// company/employee split and the reservation of the in-budget portion happen
// under one lock, so no concurrent request can move the balance between the
// read and the write. It always succeeds budget-wise; the excess is carried
// by the split, not rejected.
func (s *Service) ReserveWithSplit(ctx context.Context, employeeID string, benefitType catalog.BenefitType, base, vat, withholding decimal.Decimal) (calculator.SplitResult, decimal.Decimal, error) {
	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}
	if policy.Rule != catalog.RuleBudgetSplit {
		return calculator.SplitResult{}, decimal.Zero, errors.NewValidationError(
			fmt.Sprintf("benefit type %s does not use split reservation", benefitType), errors.ErrCodeInvalidPayload)
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	balance, err := s.getOrCreate(ctx, employeeID, policy)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}

	split, err := calculator.ComputeWithBudgetSplit(base, vat, withholding, balance.Remaining)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}

	gross := base.Add(vat)
	reserved := calculator.Round2(gross.Sub(split.Excess))

	if err := s.adjustLocked(ctx, employeeID, policy, decimal.Zero, reserved); err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}
	return split, reserved, nil
}

// Release atomically adds amount back to the pool.
func (s *Service) Release(ctx context.Context, employeeID string, benefitType catalog.BenefitType, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.ErrInvalidAmount.WithDetails(map[string]string{"field": "amount", "value": amount.String()})
	}

	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if !policy.HasMonetaryBudget() {
		return nil
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.adjustLocked(ctx, employeeID, policy, amount, decimal.Zero)
}

// Reallocate is the edit path: give back the previously reserved figure and
// reserve the new one as a single atomic unit, so no concurrent request can
// consume the freed budget in between and the edited request keeps its
// claim. On failure nothing is applied.
func (s *Service) Reallocate(ctx context.Context, employeeID string, benefitType catalog.BenefitType, release, reserve decimal.Decimal) error {
	if release.IsNegative() || reserve.IsNegative() {
		return errors.ErrInvalidAmount
	}

	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return err
	}
	if !policy.HasMonetaryBudget() {
		return nil
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.adjustLocked(ctx, employeeID, policy, release, reserve)
}

// ReallocateWithSplit edits a split-reserved request: restore the old
// reservation, recompute the split against the restored balance, and reserve
// the new in-budget portion, all under one lock.
func (s *Service) ReallocateWithSplit(ctx context.Context, employeeID string, benefitType catalog.BenefitType, release, base, vat, withholding decimal.Decimal) (calculator.SplitResult, decimal.Decimal, error) {
	policy, err := s.catalog.PolicyFor(benefitType)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}
	if policy.Rule != catalog.RuleBudgetSplit {
		return calculator.SplitResult{}, decimal.Zero, errors.NewValidationError(
			fmt.Sprintf("benefit type %s does not use split reservation", benefitType), errors.ErrCodeInvalidPayload)
	}

	key := s.lockKey(employeeID, policy)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	balance, err := s.getOrCreate(ctx, employeeID, policy)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}

	restored := balance.Remaining.Add(release)
	split, err := calculator.ComputeWithBudgetSplit(base, vat, withholding, restored)
	if err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}

	gross := base.Add(vat)
	reserved := calculator.Round2(gross.Sub(split.Excess))

	if err := s.adjustLocked(ctx, employeeID, policy, release, reserved); err != nil {
		return calculator.SplitResult{}, decimal.Zero, err
	}
	return split, reserved, nil
}

// SeedBudgets materializes current-period balances from the HR directory's
// figures for an employee the ledger has not seen yet. Existing rows win.
func (s *Service) SeedBudgets(ctx context.Context, employeeID string, budgets map[string]decimal.Decimal) error {
	for _, policy := range s.catalog.Policies() {
		if !policy.HasMonetaryBudget() {
			continue
		}

		key := s.lockKey(employeeID, policy)
		s.locks.Lock(key)

		existing, err := s.repo.Get(ctx, employeeID, policy.PoolKey(), s.periodKey(policy))
		if err != nil {
			s.locks.Unlock(key)
			return errors.NewInternalError("failed to read budget balance", err)
		}
		if existing != nil {
			s.locks.Unlock(key)
			continue
		}

		opening := policy.Cap
		if seeded, ok := budgets[policy.PoolKey()]; ok {
			opening = seeded
		}

		err = s.repo.Create(ctx, &ledgerDatamodel.BudgetBalance{
			EmployeeID: employeeID,
			Pool:       policy.PoolKey(),
			PeriodKey:  s.periodKey(policy),
			Remaining:  calculator.Round2(opening),
			Version:    1,
		})
		s.locks.Unlock(key)
		if err != nil {
			return errors.NewInternalError("failed to seed budget balance", err)
		}

		s.logger.Info("budget balance seeded",
			"employee_id", employeeID,
			"pool", policy.PoolKey(),
			"period", s.periodKey(policy),
			"opening", opening.StringFixed(2))
	}
	return nil
}

// EnsureCurrentPeriod materializes this period's balances for an employee,
// opening each at the policy cap. The reset worker calls it per employee at
// period boundaries; the request path never does.
func (s *Service) EnsureCurrentPeriod(ctx context.Context, employeeID string) error {
	return s.SeedBudgets(ctx, employeeID, nil)
}

// adjustLocked applies remaining += release - reserve with the caller
// holding the key lock. Insufficient balance fails before any write.
func (s *Service) adjustLocked(ctx context.Context, employeeID string, policy catalog.LimitPolicy, release, reserve decimal.Decimal) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		balance, err := s.getOrCreate(ctx, employeeID, policy)
		if err != nil {
			return err
		}

		next := balance.Remaining.Add(release).Sub(reserve)
		if next.IsNegative() {
			return errors.ErrInsufficientBudget.WithDetails(map[string]string{
				"pool":      policy.PoolKey(),
				"remaining": balance.Remaining.Add(release).StringFixed(2),
				"requested": reserve.StringFixed(2),
			})
		}

		err = s.repo.UpdateRemaining(ctx, balance.ID, calculator.Round2(next), balance.Version)
		if err == nil {
			return nil
		}
		if !errors.ErrReservationConflict.Is(err) {
			return err
		}

		s.logger.Warn("budget balance version conflict, retrying",
			"employee_id", employeeID,
			"pool", policy.PoolKey(),
			"attempt", attempt+1)
	}
	return errors.ErrReservationConflict
}

func (s *Service) getOrCreate(ctx context.Context, employeeID string, policy catalog.LimitPolicy) (*ledgerDatamodel.BudgetBalance, error) {
	pool := policy.PoolKey()
	periodKey := s.periodKey(policy)

	balance, err := s.repo.Get(ctx, employeeID, pool, periodKey)
	if err != nil {
		return nil, errors.NewInternalError("failed to read budget balance", err)
	}
	if balance != nil {
		return balance, nil
	}

	balance = &ledgerDatamodel.BudgetBalance{
		EmployeeID: employeeID,
		Pool:       pool,
		PeriodKey:  periodKey,
		Remaining:  policy.Cap,
		Version:    1,
	}
	if err := s.repo.Create(ctx, balance); err != nil {
		return nil, errors.NewInternalError("failed to create budget balance", err)
	}
	return balance, nil
}

func (s *Service) lockKey(employeeID string, policy catalog.LimitPolicy) string {
	return employeeID + "|" + policy.PoolKey()
}

// periodKey buckets balances by reset cadence: fiscal year for annual caps,
// calendar month for monthly caps.
func (s *Service) periodKey(policy catalog.LimitPolicy) string {
	now := s.now()
	switch policy.Period {
	case catalog.PeriodAnnual:
		year := now.Year()
		anchor := time.Date(year, s.anchorMonth, s.anchorDay, 0, 0, 0, 0, now.Location())
		if now.Before(anchor) {
			year--
		}
		return fmt.Sprintf("FY%d", year)
	case catalog.PeriodMonthly:
		return now.Format("2006-01")
	default:
		return "lifetime"
	}
}
