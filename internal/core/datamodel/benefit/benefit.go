package benefit

import (
	"time"

	"github.com/shopspring/decimal"
)

// BenefitRequest is the persisted shape of a claim. Children, line items and
// the stage history are stored as JSON columns; the Version column backs the
// optimistic write on the edit path.
type BenefitRequest struct {
	ID              string          `gorm:"primaryKey;column:id"`
	EmployeeID      string          `gorm:"column:employee_id;not null;index"`
	BenefitType     string          `gorm:"column:benefit_type;not null"`
	Subcategory     string          `gorm:"column:subcategory"`
	Description     string          `gorm:"column:description"`
	BaseAmount      decimal.Decimal `gorm:"column:base_amount;type:decimal(14,2)"`
	VATAmount       decimal.Decimal `gorm:"column:vat_amount;type:decimal(14,2)"`
	WithholdingTax  decimal.Decimal `gorm:"column:withholding_tax;type:decimal(14,2)"`
	NetAmount       decimal.Decimal `gorm:"column:net_amount;type:decimal(14,2)"`
	ReservedAmount  decimal.Decimal `gorm:"column:reserved_amount;type:decimal(14,2)"`
	ExcessAmount    decimal.Decimal `gorm:"column:excess_amount;type:decimal(14,2)"`
	CompanyShare    decimal.Decimal `gorm:"column:company_share;type:decimal(14,2)"`
	EmployeeShare   decimal.Decimal `gorm:"column:employee_share;type:decimal(14,2)"`
	TotalRefund     decimal.Decimal `gorm:"column:total_refund;type:decimal(14,2)"`
	ChildCount      int             `gorm:"column:child_count"`
	Status          string          `gorm:"column:status;not null;default:draft;index"`
	RequiresSpecial bool            `gorm:"column:requires_special"`
	LineItems       []byte          `gorm:"column:line_items"`
	LineResults     []byte          `gorm:"column:line_results"`
	Stages          []byte          `gorm:"column:stages"`
	DocumentRef     *string         `gorm:"column:document_ref"`
	Version         int64           `gorm:"column:version;default:1"`
	SubmittedAt     *time.Time      `gorm:"column:submitted_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (BenefitRequest) TableName() string {
	return "benefit_requests"
}
