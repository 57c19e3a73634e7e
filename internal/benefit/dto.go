package benefit

import (
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/core/common/validation"
	"github.com/frahmantamala/benefit-management/internal/reconciliation"
	"github.com/frahmantamala/benefit-management/internal/workflow"
)

// SubmitBenefitDTO creates a request. Draft keeps it editable instead of
// entering the approval chain. Which amount fields matter depends on the
// benefit type: fixed types ignore the amounts, reconciliation uses the line
// items, childbirth uses child_count.
type SubmitBenefitDTO struct {
	BenefitType    string                    `json:"benefit_type"`
	Subcategory    string                    `json:"subcategory,omitempty"`
	Description    string                    `json:"description"`
	BaseAmount     decimal.Decimal           `json:"base_amount"`
	VATAmount      decimal.Decimal           `json:"vat_amount"`
	WithholdingTax decimal.Decimal           `json:"withholding_tax"`
	ChildCount     int                       `json:"child_count,omitempty"`
	LineItems      []reconciliation.LineItem `json:"line_items,omitempty"`
	Draft          bool                      `json:"draft,omitempty"`
}

func (dto SubmitBenefitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("benefit_type", dto.BenefitType).Required()
	v.Field("description", dto.Description).MaxLength(500)
	v.Field("base_amount", dto.BaseAmount).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	v.Field("vat_amount", dto.VATAmount).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	v.Field("withholding_tax", dto.WithholdingTax).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	return v.Validate()
}

// EditBenefitDTO replaces the editable fields of a draft or pending_manager
// request. The benefit type itself cannot change.
type EditBenefitDTO struct {
	Subcategory    string                    `json:"subcategory,omitempty"`
	Description    string                    `json:"description"`
	BaseAmount     decimal.Decimal           `json:"base_amount"`
	VATAmount      decimal.Decimal           `json:"vat_amount"`
	WithholdingTax decimal.Decimal           `json:"withholding_tax"`
	ChildCount     int                       `json:"child_count,omitempty"`
	LineItems      []reconciliation.LineItem `json:"line_items,omitempty"`
}

func (dto EditBenefitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("description", dto.Description).MaxLength(500)
	v.Field("base_amount", dto.BaseAmount).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	v.Field("vat_amount", dto.VATAmount).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	v.Field("withholding_tax", dto.WithholdingTax).NonNegativeDecimal(errors.ErrCodeInvalidAmount)
	return v.Validate()
}

// DecisionDTO records one approve or reject at the current gate. ActingRole
// selects which of the caller's roles the decision is made under.
type DecisionDTO struct {
	ActingRole   string `json:"acting_role"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason,omitempty"`
	SignatureRef string `json:"signature_ref,omitempty"`
}

func (dto DecisionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("acting_role", dto.ActingRole).Required().OneOf([]string{
		string(workflow.RoleEmployee),
		string(workflow.RoleManager),
		string(workflow.RoleHR),
		string(workflow.RoleSpecialApprover),
		string(workflow.RoleAccounting),
	})
	v.Field("decision", dto.Decision).Required().OneOf([]string{
		string(workflow.DecisionApprove),
		string(workflow.DecisionReject),
	})
	return v.Validate()
}

// BudgetView is one row of the remaining-budget report.
type BudgetView struct {
	BenefitType       catalog.BenefitType `json:"benefit_type"`
	Pool              string              `json:"pool,omitempty"`
	Period            catalog.Period      `json:"period"`
	Remaining         *decimal.Decimal    `json:"remaining,omitempty"`
	UsedCount         *int                `json:"used_count,omitempty"`
	LifetimeCap       int                 `json:"lifetime_cap,omitempty"`
	Categories        []string            `json:"categories,omitempty"`
	ClaimedCategories []string            `json:"claimed_categories,omitempty"`
	Uncapped          bool                `json:"uncapped,omitempty"`
}
