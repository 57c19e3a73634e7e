package benefit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/calculator"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	benefitDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/benefit"
	"github.com/frahmantamala/benefit-management/internal/core/events"
	"github.com/frahmantamala/benefit-management/internal/reconciliation"
	"github.com/frahmantamala/benefit-management/internal/workflow"
)

// Repository defines the data access methods for benefit requests.
// GetByID returns (nil, nil) when no row exists.
type Repository interface {
	Create(ctx context.Context, request *benefitDatamodel.BenefitRequest) error
	GetByID(ctx context.Context, id string) (*benefitDatamodel.BenefitRequest, error)
	Update(ctx context.Context, request *benefitDatamodel.BenefitRequest, expectedVersion int64) error
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*benefitDatamodel.BenefitRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*benefitDatamodel.BenefitRequest, error)
	UpdateDocumentRef(ctx context.Context, id, documentRef string) error
}

// LedgerAPI is the budget ledger surface the service needs.
type LedgerAPI interface {
	Remaining(ctx context.Context, employeeID string, benefitType catalog.BenefitType) (decimal.Decimal, error)
	Reserve(ctx context.Context, employeeID string, benefitType catalog.BenefitType, amount decimal.Decimal) error
	ReserveWithSplit(ctx context.Context, employeeID string, benefitType catalog.BenefitType, base, vat, withholding decimal.Decimal) (calculator.SplitResult, decimal.Decimal, error)
	Release(ctx context.Context, employeeID string, benefitType catalog.BenefitType, amount decimal.Decimal) error
	Reallocate(ctx context.Context, employeeID string, benefitType catalog.BenefitType, release, reserve decimal.Decimal) error
	ReallocateWithSplit(ctx context.Context, employeeID string, benefitType catalog.BenefitType, release, base, vat, withholding decimal.Decimal) (calculator.SplitResult, decimal.Decimal, error)
	SeedBudgets(ctx context.Context, employeeID string, budgets map[string]decimal.Decimal) error
}

// UsageAPI is the lifetime-cap tracker surface the service needs.
type UsageAPI interface {
	ReserveCountSlots(ctx context.Context, employeeID string, benefitType catalog.BenefitType, count int, requestID string) error
	ReserveCategorySlot(ctx context.Context, employeeID string, benefitType catalog.BenefitType, category, requestID string) error
	ReleaseByRequest(ctx context.Context, employeeID string, benefitType catalog.BenefitType, requestID string) error
	ReallocateCountSlots(ctx context.Context, employeeID string, benefitType catalog.BenefitType, count int, requestID string) error
	ReallocateCategorySlot(ctx context.Context, employeeID string, benefitType catalog.BenefitType, category, requestID string) error
	UsedCount(ctx context.Context, employeeID string, benefitType catalog.BenefitType) (int, error)
	ClaimedCategories(ctx context.Context, employeeID string, benefitType catalog.BenefitType) ([]string, error)
}

// DirectoryAPI resolves an employee against the HR directory and returns the
// starting budgets it assigns per pool.
type DirectoryAPI interface {
	EmployeeBudgets(ctx context.Context, employeeID string) (map[string]decimal.Decimal, error)
}

// EventPublisher publishes domain events to the in-process bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// DocumentRenderer queues approval-letter rendering after final approval.
type DocumentRenderer interface {
	EnqueueApprovalDocument(requestID, employeeID, benefitType string, netAmount decimal.Decimal)
}

type Service struct {
	repo      Repository
	catalog   *catalog.Catalog
	ledger    LedgerAPI
	usage     UsageAPI
	directory DirectoryAPI
	events    EventPublisher
	documents DocumentRenderer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	cat *catalog.Catalog,
	ledgerAPI LedgerAPI,
	usageAPI UsageAPI,
	directory DirectoryAPI,
	publisher EventPublisher,
	documents DocumentRenderer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		catalog:   cat,
		ledger:    ledgerAPI,
		usage:     usageAPI,
		directory: directory,
		events:    publisher,
		documents: documents,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitBenefit validates, computes amounts per the type's rule, reserves
// budget or usage slots and persists the request. Reservations are
// compensated if the persist fails, so a request either exists with its hold
// or not at all.
func (s *Service) SubmitBenefit(ctx context.Context, employeeID string, dto SubmitBenefitDTO) (*BenefitRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("benefit validation failed", "error", err, "employee_id", employeeID)
		return nil, err
	}

	policy, err := s.catalog.PolicyFor(catalog.BenefitType(dto.BenefitType))
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	now := s.now()
	request := &BenefitRequest{
		ID:          uuid.New().String(),
		EmployeeID:  employeeID,
		BenefitType: policy.Type,
		Subcategory: dto.Subcategory,
		Description: dto.Description,
		Status:      workflow.StatusPendingManager,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dto.Draft {
		request.Status = workflow.StatusDraft
	} else {
		request.SubmittedAt = &now
	}

	if err := s.applyAmounts(ctx, request, policy, amountInputs{
		base:       dto.BaseAmount,
		vat:        dto.VATAmount,
		withhold:   dto.WithholdingTax,
		childCount: dto.ChildCount,
		lineItems:  dto.LineItems,
	}); err != nil {
		return nil, err
	}

	dm, err := ToDataModel(request)
	if err != nil {
		s.releaseReservations(ctx, request)
		return nil, errors.NewInternalError("failed to encode benefit request", err)
	}
	if err := s.repo.Create(ctx, dm); err != nil {
		s.releaseReservations(ctx, request)
		s.logger.Error("failed to create benefit request", "error", err, "employee_id", employeeID)
		return nil, errors.NewInternalError("failed to create benefit request", err)
	}

	s.logger.Info("benefit request created",
		"request_id", request.ID,
		"employee_id", employeeID,
		"benefit_type", request.BenefitType,
		"net_amount", request.NetAmount,
		"status", request.Status)

	if !dto.Draft {
		s.events.Publish(ctx, events.NewBenefitSubmittedEvent(
			request.ID, employeeID, string(request.BenefitType), request.NetAmount))
	}

	return request, nil
}

// EditBenefit replaces the amounts of a draft or pending_manager request
// owned by the caller. The budget hold is moved atomically; a failed
// reallocation leaves the stored request untouched.
func (s *Service) EditBenefit(ctx context.Context, requestID, employeeID string, dto EditBenefitDTO) (*BenefitRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.IsOwnedBy(employeeID) {
		s.logger.Warn("edit denied: not the owner", "request_id", requestID, "employee_id", employeeID)
		return nil, errors.ErrUnauthorizedAccess
	}
	if !request.Editable() {
		return nil, errors.ErrNotEditable.WithDetails(map[string]string{"status": request.Status.String()})
	}

	policy, err := s.catalog.PolicyFor(request.BenefitType)
	if err != nil {
		return nil, err
	}

	previousReserved := request.ReservedAmount
	previousSubcategory := request.Subcategory
	previousChildCount := request.ChildCount
	request.Subcategory = dto.Subcategory
	request.Description = dto.Description

	if err := s.reapplyAmounts(ctx, request, policy, amountInputs{
		base:       dto.BaseAmount,
		vat:        dto.VATAmount,
		withhold:   dto.WithholdingTax,
		childCount: dto.ChildCount,
		lineItems:  dto.LineItems,
	}, previousReserved); err != nil {
		return nil, err
	}

	request.UpdatedAt = s.now()
	expectedVersion := request.Version
	request.Version++

	dm, err := ToDataModel(request)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode benefit request", err)
	}
	if err := s.repo.Update(ctx, dm, expectedVersion); err != nil {
		s.revertReservationSwap(ctx, request, policy, previousReserved, previousSubcategory, previousChildCount)
		s.logger.Error("failed to update benefit request", "error", err, "request_id", requestID)
		if appErr, ok := errors.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError("failed to update benefit request", err)
	}

	s.logger.Info("benefit request edited",
		"request_id", requestID,
		"employee_id", employeeID,
		"net_amount", request.NetAmount)

	return request, nil
}

// Decide applies one approve or reject at the current gate. The employee
// gate is submission: approving a draft moves it to pending_manager. A
// rejection releases every reservation the request holds.
func (s *Service) Decide(ctx context.Context, requestID, actorID string, roles []string, dto DecisionDTO) (*BenefitRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !hasRole(roles, dto.ActingRole) {
		s.logger.Warn("decision denied: role not held",
			"request_id", requestID,
			"actor_id", actorID,
			"acting_role", dto.ActingRole)
		return nil, errors.ErrUnauthorizedAccess
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	actingRole := workflow.Role(dto.ActingRole)
	if actingRole == workflow.RoleEmployee && !request.IsOwnedBy(actorID) {
		return nil, errors.ErrUnauthorizedAccess
	}

	fromStatus := request.Status
	next, stage, err := workflow.Advance(
		request.Status,
		actingRole,
		workflow.Decision(dto.Decision),
		actorID,
		request.RequiresSpecial,
		s.now(),
	)
	if err != nil {
		return nil, err
	}
	stage.SignatureRef = dto.SignatureRef

	request.Status = next
	request.Stages = append(request.Stages, stage)
	request.UpdatedAt = s.now()
	if fromStatus == workflow.StatusDraft && next == workflow.StatusPendingManager {
		submittedAt := s.now()
		request.SubmittedAt = &submittedAt
	}

	expectedVersion := request.Version
	request.Version++

	dm, err := ToDataModel(request)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode benefit request", err)
	}
	if err := s.repo.Update(ctx, dm, expectedVersion); err != nil {
		s.logger.Error("failed to persist decision", "error", err, "request_id", requestID)
		if appErr, ok := errors.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.NewInternalError("failed to persist decision", err)
	}

	switch {
	case next.IsRejected():
		hadHold := request.HoldsReservation()
		s.releaseReservations(ctx, request)
		if hadHold && !request.HoldsReservation() {
			s.persistReleasedHold(ctx, request)
		}
		s.events.Publish(ctx, events.NewBenefitRejectedEvent(
			request.ID, request.EmployeeID, string(request.BenefitType), next.String(), actorID))
	case next == workflow.StatusApproved:
		s.events.Publish(ctx, events.NewBenefitApprovedEvent(
			request.ID, request.EmployeeID, string(request.BenefitType), request.NetAmount))
		s.documents.EnqueueApprovalDocument(
			request.ID, request.EmployeeID, string(request.BenefitType), request.NetAmount)
	default:
		s.events.Publish(ctx, events.NewBenefitStageAdvancedEvent(
			request.ID, request.EmployeeID, string(request.BenefitType),
			fromStatus.String(), next.String(), actorID))
	}

	s.logger.Info("benefit decision applied",
		"request_id", requestID,
		"actor_id", actorID,
		"acting_role", dto.ActingRole,
		"decision", dto.Decision,
		"from_status", fromStatus,
		"to_status", next)

	return request, nil
}

// GetBenefit returns one request. Owners always see their own; any approval
// role may inspect requests in flight.
func (s *Service) GetBenefit(ctx context.Context, requestID, actorID string, roles []string) (*BenefitRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.IsOwnedBy(actorID) && !hasApprovalRole(roles) {
		s.logger.Warn("benefit access denied", "request_id", requestID, "actor_id", actorID)
		return nil, errors.ErrUnauthorizedAccess
	}
	return request, nil
}

func (s *Service) ListBenefits(ctx context.Context, employeeID string, limit, offset int) ([]*BenefitRequest, error) {
	rows, err := s.repo.ListByEmployee(ctx, employeeID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list benefit requests", "error", err, "employee_id", employeeID)
		return nil, errors.NewInternalError("failed to list benefit requests", err)
	}
	return FromDataModelSlice(rows)
}

// ListPending returns the queue for one approval stage, for reviewers.
func (s *Service) ListPending(ctx context.Context, status string, roles []string, limit, offset int) ([]*BenefitRequest, error) {
	st := workflow.Status(status)
	gateRole, ok := workflow.GateRole(st)
	if !ok || st == workflow.StatusDraft {
		return nil, errors.NewValidationFieldError("status", "not a reviewable stage: "+status, errors.ErrCodeInvalidPayload)
	}
	if !hasRole(roles, string(gateRole)) && !hasRole(roles, string(workflow.RoleAdmin)) {
		return nil, errors.ErrUnauthorizedAccess
	}

	rows, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		s.logger.Error("failed to list pending requests", "error", err, "status", status)
		return nil, errors.NewInternalError("failed to list pending requests", err)
	}
	return FromDataModelSlice(rows)
}

// RemainingBudgets builds the per-type budget report for an employee.
func (s *Service) RemainingBudgets(ctx context.Context, employeeID string) ([]BudgetView, error) {
	if err := s.ensureEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	var views []BudgetView
	for _, policy := range s.catalog.Policies() {
		view := BudgetView{
			BenefitType: policy.Type,
			Period:      policy.Period,
			Uncapped:    policy.Uncapped,
		}
		switch {
		case policy.HasMonetaryBudget():
			remaining, err := s.ledger.Remaining(ctx, employeeID, policy.Type)
			if err != nil {
				return nil, err
			}
			view.Pool = policy.PoolKey()
			view.Remaining = &remaining
		case policy.Period == catalog.PeriodLifetimeCount:
			used, err := s.usage.UsedCount(ctx, employeeID, policy.Type)
			if err != nil {
				return nil, err
			}
			view.UsedCount = &used
			view.LifetimeCap = policy.LifetimeCap
		case policy.Period == catalog.PeriodLifetimeCategorySet:
			claimed, err := s.usage.ClaimedCategories(ctx, employeeID, policy.Type)
			if err != nil {
				return nil, err
			}
			view.Categories = policy.Categories
			view.ClaimedCategories = claimed
		}
		views = append(views, view)
	}
	return views, nil
}

// SetDocumentRef is called by the renderer sink once the approval letter is
// stored.
func (s *Service) SetDocumentRef(ctx context.Context, requestID, documentRef string) error {
	if err := s.repo.UpdateDocumentRef(ctx, requestID, documentRef); err != nil {
		s.logger.Error("failed to store document ref", "error", err, "request_id", requestID)
		return errors.NewInternalError("failed to store document ref", err)
	}
	s.logger.Info("approval document stored", "request_id", requestID, "document_ref", documentRef)
	return nil
}

type amountInputs struct {
	base       decimal.Decimal
	vat        decimal.Decimal
	withhold   decimal.Decimal
	childCount int
	lineItems  []reconciliation.LineItem
}

// applyAmounts computes the request's money fields per the policy rule and
// takes the matching reservation.
func (s *Service) applyAmounts(ctx context.Context, request *BenefitRequest, policy catalog.LimitPolicy, in amountInputs) error {
	request.BaseAmount = in.base
	request.VATAmount = in.vat
	request.WithholdingTax = in.withhold
	request.ReservedAmount = decimal.Zero

	switch policy.Rule {
	case catalog.RuleStandard, catalog.RuleFreeEntry:
		net, err := calculator.ComputeStandard(in.base, in.vat, in.withhold)
		if err != nil {
			return err
		}
		request.NetAmount = net
		if policy.HasMonetaryBudget() {
			if err := s.ledger.Reserve(ctx, request.EmployeeID, policy.Type, net); err != nil {
				return err
			}
			request.ReservedAmount = net
		}

	case catalog.RuleBudgetSplit:
		split, reserved, err := s.ledger.ReserveWithSplit(ctx, request.EmployeeID, policy.Type, in.base, in.vat, in.withhold)
		if err != nil {
			return err
		}
		request.NetAmount = split.Net
		request.ExcessAmount = split.Excess
		request.CompanyShare = split.CompanyShare
		request.EmployeeShare = split.EmployeeShare
		request.ReservedAmount = reserved

	case catalog.RuleFixedBySubcategory:
		if err := s.applyFixedAmount(ctx, request, policy, in); err != nil {
			return err
		}

	case catalog.RuleReconciliation:
		result, err := reconciliation.Reconcile(in.lineItems)
		if err != nil {
			return err
		}
		request.LineItems = in.lineItems
		request.LineResults = result.Lines
		request.TotalRefund = result.TotalRefund
		request.NetAmount = sumLineNet(result.Lines)

	default:
		return errors.ErrUnknownBenefitType.WithDetails(map[string]string{"benefit_type": string(policy.Type)})
	}

	request.RequiresSpecial = s.requiresSpecial(policy, request.NetAmount)
	return nil
}

func (s *Service) applyFixedAmount(ctx context.Context, request *BenefitRequest, policy catalog.LimitPolicy, in amountInputs) error {
	switch policy.Type {
	case catalog.TypeChildbirth:
		if in.childCount < 1 {
			return errors.NewValidationFieldError("child_count", "child_count must be at least 1", errors.ErrCodeInvalidPayload)
		}
		perChild, err := s.catalog.FixedAmount(policy.Type, "per_child")
		if err != nil {
			return err
		}
		if err := s.usage.ReserveCountSlots(ctx, request.EmployeeID, policy.Type, in.childCount, request.ID); err != nil {
			return err
		}
		request.ChildCount = in.childCount
		request.NetAmount = calculator.Round2(perChild.Mul(decimal.NewFromInt(int64(in.childCount))))

	case catalog.TypeFuneral:
		amount, err := s.catalog.FixedAmount(policy.Type, request.Subcategory)
		if err != nil {
			return err
		}
		if err := s.usage.ReserveCategorySlot(ctx, request.EmployeeID, policy.Type, request.Subcategory, request.ID); err != nil {
			return err
		}
		request.NetAmount = amount

	default:
		amount, err := s.catalog.FixedAmount(policy.Type, request.Subcategory)
		if err != nil {
			return err
		}
		request.NetAmount = amount
	}
	return nil
}

// reapplyAmounts is the edit path: the previous hold is exchanged for the
// new one in a single ledger adjustment so the budget never double-counts.
func (s *Service) reapplyAmounts(ctx context.Context, request *BenefitRequest, policy catalog.LimitPolicy, in amountInputs, previousReserved decimal.Decimal) error {
	request.BaseAmount = in.base
	request.VATAmount = in.vat
	request.WithholdingTax = in.withhold

	switch policy.Rule {
	case catalog.RuleStandard, catalog.RuleFreeEntry:
		net, err := calculator.ComputeStandard(in.base, in.vat, in.withhold)
		if err != nil {
			return err
		}
		if policy.HasMonetaryBudget() {
			if err := s.ledger.Reallocate(ctx, request.EmployeeID, policy.Type, previousReserved, net); err != nil {
				return err
			}
			request.ReservedAmount = net
		}
		request.NetAmount = net

	case catalog.RuleBudgetSplit:
		split, reserved, err := s.ledger.ReallocateWithSplit(ctx, request.EmployeeID, policy.Type, previousReserved, in.base, in.vat, in.withhold)
		if err != nil {
			return err
		}
		request.NetAmount = split.Net
		request.ExcessAmount = split.Excess
		request.CompanyShare = split.CompanyShare
		request.EmployeeShare = split.EmployeeShare
		request.ReservedAmount = reserved

	case catalog.RuleFixedBySubcategory:
		if err := s.reapplyFixedAmount(ctx, request, policy, in); err != nil {
			return err
		}

	case catalog.RuleReconciliation:
		result, err := reconciliation.Reconcile(in.lineItems)
		if err != nil {
			return err
		}
		request.LineItems = in.lineItems
		request.LineResults = result.Lines
		request.TotalRefund = result.TotalRefund
		request.NetAmount = sumLineNet(result.Lines)

	default:
		return errors.ErrUnknownBenefitType.WithDetails(map[string]string{"benefit_type": string(policy.Type)})
	}

	request.RequiresSpecial = s.requiresSpecial(policy, request.NetAmount)
	return nil
}

// requiresSpecial flags internal training above the catalog threshold; no
// other type routes through the special gate.
func (s *Service) requiresSpecial(policy catalog.LimitPolicy, net decimal.Decimal) bool {
	if policy.Type != catalog.TypeInternalTraining {
		return false
	}
	return net.GreaterThan(s.catalog.SpecialApprovalThreshold())
}

func (s *Service) reapplyFixedAmount(ctx context.Context, request *BenefitRequest, policy catalog.LimitPolicy, in amountInputs) error {
	switch policy.Type {
	case catalog.TypeChildbirth:
		if in.childCount < 1 {
			return errors.NewValidationFieldError("child_count", "child_count must be at least 1", errors.ErrCodeInvalidPayload)
		}
		perChild, err := s.catalog.FixedAmount(policy.Type, "per_child")
		if err != nil {
			return err
		}
		if err := s.usage.ReallocateCountSlots(ctx, request.EmployeeID, policy.Type, in.childCount, request.ID); err != nil {
			return err
		}
		request.ChildCount = in.childCount
		request.NetAmount = calculator.Round2(perChild.Mul(decimal.NewFromInt(int64(in.childCount))))

	case catalog.TypeFuneral:
		amount, err := s.catalog.FixedAmount(policy.Type, request.Subcategory)
		if err != nil {
			return err
		}
		if err := s.usage.ReallocateCategorySlot(ctx, request.EmployeeID, policy.Type, request.Subcategory, request.ID); err != nil {
			return err
		}
		request.NetAmount = amount

	default:
		amount, err := s.catalog.FixedAmount(policy.Type, request.Subcategory)
		if err != nil {
			return err
		}
		request.NetAmount = amount
	}
	return nil
}

// revertReservationSwap puts the hold back the way it was before an edit
// whose persist failed, so the stored request and its reservations stay in
// step. Best effort: a failed revert is logged and the conflict error still
// reaches the caller.
func (s *Service) revertReservationSwap(ctx context.Context, request *BenefitRequest, policy catalog.LimitPolicy, previousReserved decimal.Decimal, previousSubcategory string, previousChildCount int) {
	switch policy.Rule {
	case catalog.RuleStandard, catalog.RuleFreeEntry, catalog.RuleBudgetSplit:
		if !policy.HasMonetaryBudget() {
			return
		}
		if err := s.ledger.Reallocate(ctx, request.EmployeeID, policy.Type, request.ReservedAmount, previousReserved); err != nil {
			s.logger.Error("failed to restore budget hold after edit failure",
				"error", err,
				"request_id", request.ID,
				"amount", previousReserved)
		}
	case catalog.RuleFixedBySubcategory:
		switch policy.Type {
		case catalog.TypeChildbirth:
			if err := s.usage.ReallocateCountSlots(ctx, request.EmployeeID, policy.Type, previousChildCount, request.ID); err != nil {
				s.logger.Error("failed to restore usage slots after edit failure",
					"error", err,
					"request_id", request.ID)
			}
		case catalog.TypeFuneral:
			if err := s.usage.ReallocateCategorySlot(ctx, request.EmployeeID, policy.Type, previousSubcategory, request.ID); err != nil {
				s.logger.Error("failed to restore usage claim after edit failure",
					"error", err,
					"request_id", request.ID)
			}
		}
	}
}

// releaseReservations hands back whatever the request holds: the ledger
// amount and any usage slots. Used for rejections and create compensation.
func (s *Service) releaseReservations(ctx context.Context, request *BenefitRequest) {
	if request.HoldsReservation() {
		if err := s.ledger.Release(ctx, request.EmployeeID, request.BenefitType, request.ReservedAmount); err != nil {
			s.logger.Error("failed to release budget reservation",
				"error", err,
				"request_id", request.ID,
				"amount", request.ReservedAmount)
		} else {
			request.ReservedAmount = decimal.Zero
		}
	}

	policy, err := s.catalog.PolicyFor(request.BenefitType)
	if err != nil {
		return
	}
	if policy.Period == catalog.PeriodLifetimeCount || policy.Period == catalog.PeriodLifetimeCategorySet {
		if err := s.usage.ReleaseByRequest(ctx, request.EmployeeID, request.BenefitType, request.ID); err != nil {
			s.logger.Error("failed to release usage reservation",
				"error", err,
				"request_id", request.ID)
		}
	}
}

// persistReleasedHold writes the zeroed reservation back onto the rejected
// row. A rejected row still carrying a non-zero reserved_amount marks a
// release that is owed but has not happened.
func (s *Service) persistReleasedHold(ctx context.Context, request *BenefitRequest) {
	expectedVersion := request.Version
	request.Version++
	dm, err := ToDataModel(request)
	if err != nil {
		s.logger.Error("failed to encode released request", "error", err, "request_id", request.ID)
		return
	}
	if err := s.repo.Update(ctx, dm, expectedVersion); err != nil {
		request.Version = expectedVersion
		s.logger.Error("failed to persist released reservation", "error", err, "request_id", request.ID)
	}
}

func (s *Service) ensureEmployee(ctx context.Context, employeeID string) error {
	budgets, err := s.directory.EmployeeBudgets(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := s.ledger.SeedBudgets(ctx, employeeID, budgets); err != nil {
		return err
	}
	return nil
}

func (s *Service) getRequest(ctx context.Context, requestID string) (*BenefitRequest, error) {
	dm, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("failed to get benefit request", "error", err, "request_id", requestID)
		return nil, errors.NewInternalError("failed to get benefit request", err)
	}
	if dm == nil {
		return nil, errors.ErrRequestNotFound
	}
	return FromDataModel(dm)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

var approvalRoles = []string{
	string(workflow.RoleManager),
	string(workflow.RoleHR),
	string(workflow.RoleSpecialApprover),
	string(workflow.RoleAccounting),
	string(workflow.RoleAdmin),
}

func hasApprovalRole(roles []string) bool {
	for _, r := range roles {
		if hasRole(approvalRoles, r) {
			return true
		}
	}
	return false
}

func sumLineNet(lines []reconciliation.LineResult) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.NetAmount)
	}
	return calculator.Round2(total)
}
