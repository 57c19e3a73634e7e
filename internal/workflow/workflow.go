// Package workflow is the approval state machine for benefit requests. The
// sequence is fixed except for the special stage, whose insertion is a
// property of the computed next-state function rather than call-site
// branching.
package workflow

import (
	"time"

	errors "github.com/frahmantamala/benefit-management/internal"
)

type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingManager    Status = "pending_manager"
	StatusPendingHR         Status = "pending_hr"
	StatusPendingSpecial    Status = "pending_special"
	StatusPendingAccounting Status = "pending_accounting"
	StatusApproved          Status = "approved"

	StatusRejectedManager    Status = "rejected_manager"
	StatusRejectedHR         Status = "rejected_hr"
	StatusRejectedSpecial    Status = "rejected_special"
	StatusRejectedAccounting Status = "rejected_accounting"
)

type Role string

const (
	RoleEmployee        Role = "employee"
	RoleManager         Role = "manager"
	RoleHR              Role = "hr"
	RoleSpecialApprover Role = "special_approver"
	RoleAccounting      Role = "accounting"
	RoleAdmin           Role = "admin"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var validStatuses = map[Status]bool{
	StatusDraft:              true,
	StatusPendingManager:     true,
	StatusPendingHR:          true,
	StatusPendingSpecial:     true,
	StatusPendingAccounting:  true,
	StatusApproved:           true,
	StatusRejectedManager:    true,
	StatusRejectedHR:         true,
	StatusRejectedSpecial:    true,
	StatusRejectedAccounting: true,
}

// gates maps each non-terminal status to the role allowed to act on it.
var gates = map[Status]Role{
	StatusDraft:             RoleEmployee,
	StatusPendingManager:    RoleManager,
	StatusPendingHR:         RoleHR,
	StatusPendingSpecial:    RoleSpecialApprover,
	StatusPendingAccounting: RoleAccounting,
}

// rejections maps each pending status to its terminal rejected counterpart.
var rejections = map[Status]Status{
	StatusPendingManager:    StatusRejectedManager,
	StatusPendingHR:         StatusRejectedHR,
	StatusPendingSpecial:    StatusRejectedSpecial,
	StatusPendingAccounting: StatusRejectedAccounting,
}

func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) IsTerminal() bool {
	if s == StatusApproved {
		return true
	}
	_, rejected := rejectedStages[s]
	return rejected
}

func (s Status) IsRejected() bool {
	_, ok := rejectedStages[s]
	return ok
}

var rejectedStages = map[Status]Status{
	StatusRejectedManager:    StatusPendingManager,
	StatusRejectedHR:         StatusPendingHR,
	StatusRejectedSpecial:    StatusPendingSpecial,
	StatusRejectedAccounting: StatusPendingAccounting,
}

// Editable reports whether the owning employee may still mutate the request
// body. Only draft and pending_manager qualify.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusPendingManager
}

func (s Status) String() string {
	return string(s)
}

// GateRole returns the role allowed to act on a status.
func GateRole(s Status) (Role, bool) {
	role, ok := gates[s]
	return role, ok
}

// NextStatus computes the state after an approval at the current status.
// requiresSpecial inserts the special stage between HR and accounting; the
// caller derives the flag once at submission (internal training over the
// catalog threshold) and stores it on the request.
func NextStatus(current Status, requiresSpecial bool) (Status, bool) {
	switch current {
	case StatusDraft:
		return StatusPendingManager, true
	case StatusPendingManager:
		return StatusPendingHR, true
	case StatusPendingHR:
		if requiresSpecial {
			return StatusPendingSpecial, true
		}
		return StatusPendingAccounting, true
	case StatusPendingSpecial:
		return StatusPendingAccounting, true
	case StatusPendingAccounting:
		return StatusApproved, true
	default:
		return current, false
	}
}

// Stage records one completed role-gated step. SignatureRef is opaque.
type Stage struct {
	Status       Status    `json:"status"`
	Role         Role      `json:"role"`
	ApproverID   string    `json:"approver_id"`
	Decision     Decision  `json:"decision"`
	SignatureRef string    `json:"signature_ref,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

// Advance validates the transition and returns the new status plus the
// completed stage record. It fails with AlreadyTerminal for approved or
// rejected requests and WrongStage when the acting role does not match the
// current gate. Side effects (releasing reservations on rejection, stamping
// the request) belong to the caller.
func Advance(current Status, actingRole Role, decision Decision, approverID string, requiresSpecial bool, now time.Time) (Status, Stage, error) {
	if current.IsTerminal() {
		return current, Stage{}, errors.ErrAlreadyTerminal.WithDetails(map[string]string{
			"status": string(current),
		})
	}

	gate, ok := gates[current]
	if !ok || actingRole != gate {
		return current, Stage{}, errors.ErrWrongStage.WithDetails(map[string]string{
			"status":        string(current),
			"expected_role": string(gate),
			"acting_role":   string(actingRole),
		})
	}

	stage := Stage{
		Status:     current,
		Role:       actingRole,
		ApproverID: approverID,
		Decision:   decision,
		DecidedAt:  now,
	}

	switch decision {
	case DecisionApprove:
		next, ok := NextStatus(current, requiresSpecial)
		if !ok {
			return current, Stage{}, errors.ErrAlreadyTerminal.WithDetails(map[string]string{
				"status": string(current),
			})
		}
		return next, stage, nil
	case DecisionReject:
		rejectedStatus, ok := rejections[current]
		if !ok {
			// Rejecting a draft just keeps it a draft; the employee can
			// delete or resubmit.
			return current, Stage{}, errors.ErrWrongStage.WithDetails(map[string]string{
				"status": string(current),
				"reason": "draft cannot be rejected",
			})
		}
		return rejectedStatus, stage, nil
	default:
		return current, Stage{}, errors.NewValidationError("decision must be approve or reject", errors.ErrCodeInvalidPayload)
	}
}
