package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeBenefitSubmitted     = "benefit.submitted"
	EventTypeBenefitStageAdvanced = "benefit.stage_advanced"
	EventTypeBenefitApproved      = "benefit.approved"
	EventTypeBenefitRejected      = "benefit.rejected"
)

type BenefitSubmittedEvent struct {
	BaseEvent
	RequestID   string          `json:"request_id"`
	EmployeeID  string          `json:"employee_id"`
	BenefitType string          `json:"benefit_type"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

func NewBenefitSubmittedEvent(requestID, employeeID, benefitType string, netAmount decimal.Decimal) *BenefitSubmittedEvent {
	return &BenefitSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBenefitSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"employee_id":  employeeID,
				"benefit_type": benefitType,
				"net_amount":   netAmount.String(),
			},
		},
		RequestID:   requestID,
		EmployeeID:  employeeID,
		BenefitType: benefitType,
		NetAmount:   netAmount,
	}
}

type BenefitStageAdvancedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	EmployeeID  string `json:"employee_id"`
	BenefitType string `json:"benefit_type"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	ApproverID  string `json:"approver_id"`
}

func NewBenefitStageAdvancedEvent(requestID, employeeID, benefitType, fromStatus, toStatus, approverID string) *BenefitStageAdvancedEvent {
	return &BenefitStageAdvancedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBenefitStageAdvanced,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"employee_id":  employeeID,
				"benefit_type": benefitType,
				"from_status":  fromStatus,
				"to_status":    toStatus,
				"approver_id":  approverID,
			},
		},
		RequestID:   requestID,
		EmployeeID:  employeeID,
		BenefitType: benefitType,
		FromStatus:  fromStatus,
		ToStatus:    toStatus,
		ApproverID:  approverID,
	}
}

type BenefitApprovedEvent struct {
	BaseEvent
	RequestID   string          `json:"request_id"`
	EmployeeID  string          `json:"employee_id"`
	BenefitType string          `json:"benefit_type"`
	NetAmount   decimal.Decimal `json:"net_amount"`
}

func NewBenefitApprovedEvent(requestID, employeeID, benefitType string, netAmount decimal.Decimal) *BenefitApprovedEvent {
	return &BenefitApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBenefitApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"employee_id":  employeeID,
				"benefit_type": benefitType,
				"net_amount":   netAmount.String(),
			},
		},
		RequestID:   requestID,
		EmployeeID:  employeeID,
		BenefitType: benefitType,
		NetAmount:   netAmount,
	}
}

type BenefitRejectedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	EmployeeID  string `json:"employee_id"`
	BenefitType string `json:"benefit_type"`
	Status      string `json:"status"`
	ApproverID  string `json:"approver_id"`
}

func NewBenefitRejectedEvent(requestID, employeeID, benefitType, status, approverID string) *BenefitRejectedEvent {
	return &BenefitRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBenefitRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"employee_id":  employeeID,
				"benefit_type": benefitType,
				"status":       status,
				"approver_id":  approverID,
			},
		},
		RequestID:   requestID,
		EmployeeID:  employeeID,
		BenefitType: benefitType,
		Status:      status,
		ApproverID:  approverID,
	}
}
