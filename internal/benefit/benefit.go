package benefit

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	benefitDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/benefit"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/reconciliation"
	"github.com/frahmantamala/benefit-management/internal/workflow"
)

// BenefitRequest is a claim moving through the approval chain. Amounts are
// all rounded to 2 decimal places; ReservedAmount is what the ledger holds
// for this request and is what gets released on rejection.
type BenefitRequest struct {
	ID              string                      `json:"id"`
	EmployeeID      string                      `json:"employee_id"`
	BenefitType     catalog.BenefitType         `json:"benefit_type"`
	Subcategory     string                      `json:"subcategory,omitempty"`
	Description     string                      `json:"description"`
	BaseAmount      decimal.Decimal             `json:"base_amount"`
	VATAmount       decimal.Decimal             `json:"vat_amount"`
	WithholdingTax  decimal.Decimal             `json:"withholding_tax"`
	NetAmount       decimal.Decimal             `json:"net_amount"`
	ReservedAmount  decimal.Decimal             `json:"reserved_amount"`
	ExcessAmount    decimal.Decimal             `json:"excess_amount"`
	CompanyShare    decimal.Decimal             `json:"company_share"`
	EmployeeShare   decimal.Decimal             `json:"employee_share"`
	TotalRefund     decimal.Decimal             `json:"total_refund"`
	ChildCount      int                         `json:"child_count,omitempty"`
	Status          workflow.Status             `json:"status"`
	RequiresSpecial bool                        `json:"requires_special"`
	LineItems       []reconciliation.LineItem   `json:"line_items,omitempty"`
	LineResults     []reconciliation.LineResult `json:"line_results,omitempty"`
	Stages          []workflow.Stage            `json:"stages"`
	DocumentRef     *string                     `json:"document_ref,omitempty"`
	Version         int64                       `json:"version"`
	SubmittedAt     *time.Time                  `json:"submitted_at,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (r *BenefitRequest) Editable() bool {
	return r.Status.Editable()
}

func (r *BenefitRequest) IsOwnedBy(employeeID string) bool {
	return r.EmployeeID == employeeID
}

// HoldsReservation reports whether a monetary reservation is outstanding for
// this request. Rejected and edited requests must give their hold back.
func (r *BenefitRequest) HoldsReservation() bool {
	return r.ReservedAmount.IsPositive()
}

func ToDataModel(r *BenefitRequest) (*benefitDatamodel.BenefitRequest, error) {
	lineItems, err := json.Marshal(r.LineItems)
	if err != nil {
		return nil, err
	}
	lineResults, err := json.Marshal(r.LineResults)
	if err != nil {
		return nil, err
	}
	stages, err := json.Marshal(r.Stages)
	if err != nil {
		return nil, err
	}

	return &benefitDatamodel.BenefitRequest{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		BenefitType:     string(r.BenefitType),
		Subcategory:     r.Subcategory,
		Description:     r.Description,
		BaseAmount:      r.BaseAmount,
		VATAmount:       r.VATAmount,
		WithholdingTax:  r.WithholdingTax,
		NetAmount:       r.NetAmount,
		ReservedAmount:  r.ReservedAmount,
		ExcessAmount:    r.ExcessAmount,
		CompanyShare:    r.CompanyShare,
		EmployeeShare:   r.EmployeeShare,
		TotalRefund:     r.TotalRefund,
		ChildCount:      r.ChildCount,
		Status:          r.Status.String(),
		RequiresSpecial: r.RequiresSpecial,
		LineItems:       lineItems,
		LineResults:     lineResults,
		Stages:          stages,
		DocumentRef:     r.DocumentRef,
		Version:         r.Version,
		SubmittedAt:     r.SubmittedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func FromDataModel(dm *benefitDatamodel.BenefitRequest) (*BenefitRequest, error) {
	r := &BenefitRequest{
		ID:              dm.ID,
		EmployeeID:      dm.EmployeeID,
		BenefitType:     catalog.BenefitType(dm.BenefitType),
		Subcategory:     dm.Subcategory,
		Description:     dm.Description,
		BaseAmount:      dm.BaseAmount,
		VATAmount:       dm.VATAmount,
		WithholdingTax:  dm.WithholdingTax,
		NetAmount:       dm.NetAmount,
		ReservedAmount:  dm.ReservedAmount,
		ExcessAmount:    dm.ExcessAmount,
		CompanyShare:    dm.CompanyShare,
		EmployeeShare:   dm.EmployeeShare,
		TotalRefund:     dm.TotalRefund,
		ChildCount:      dm.ChildCount,
		Status:          workflow.Status(dm.Status),
		RequiresSpecial: dm.RequiresSpecial,
		DocumentRef:     dm.DocumentRef,
		Version:         dm.Version,
		SubmittedAt:     dm.SubmittedAt,
		CreatedAt:       dm.CreatedAt,
		UpdatedAt:       dm.UpdatedAt,
	}

	if len(dm.LineItems) > 0 {
		if err := json.Unmarshal(dm.LineItems, &r.LineItems); err != nil {
			return nil, err
		}
	}
	if len(dm.LineResults) > 0 {
		if err := json.Unmarshal(dm.LineResults, &r.LineResults); err != nil {
			return nil, err
		}
	}
	if len(dm.Stages) > 0 {
		if err := json.Unmarshal(dm.Stages, &r.Stages); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func FromDataModelSlice(rows []*benefitDatamodel.BenefitRequest) ([]*BenefitRequest, error) {
	result := make([]*BenefitRequest, len(rows))
	for i, dm := range rows {
		r, err := FromDataModel(dm)
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}
