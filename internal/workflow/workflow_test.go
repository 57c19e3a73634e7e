package workflow_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/workflow"
)

func TestWorkflow(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workflow Suite")
}

var _ = Describe("Workflow", func() {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	Describe("Advance", func() {
		Context("through the standard approval chain", func() {
			It("should walk manager, hr and accounting to approved", func() {
				status := workflow.StatusPendingManager

				next, stage, err := workflow.Advance(status, workflow.RoleManager, workflow.DecisionApprove, "mgr-1", false, now)
				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusPendingHR))
				Expect(stage.Role).To(Equal(workflow.RoleManager))
				Expect(stage.ApproverID).To(Equal("mgr-1"))
				Expect(stage.DecidedAt).To(Equal(now))

				next, _, err = workflow.Advance(next, workflow.RoleHR, workflow.DecisionApprove, "hr-1", false, now)
				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusPendingAccounting))

				next, _, err = workflow.Advance(next, workflow.RoleAccounting, workflow.DecisionApprove, "acc-1", false, now)
				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusApproved))
				Expect(next.IsTerminal()).To(BeTrue())
			})
		})

		Context("when the request requires special approval", func() {
			It("should insert the special stage between hr and accounting", func() {
				next, _, err := workflow.Advance(workflow.StatusPendingHR, workflow.RoleHR, workflow.DecisionApprove, "hr-1", true, now)

				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusPendingSpecial))

				next, _, err = workflow.Advance(next, workflow.RoleSpecialApprover, workflow.DecisionApprove, "dir-1", true, now)
				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusPendingAccounting))
			})
		})

		Context("with a draft", func() {
			It("should submit the draft on employee approval", func() {
				next, stage, err := workflow.Advance(workflow.StatusDraft, workflow.RoleEmployee, workflow.DecisionApprove, "emp-1", false, now)

				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusPendingManager))
				Expect(stage.Role).To(Equal(workflow.RoleEmployee))
			})

			It("should not allow rejecting a draft", func() {
				_, _, err := workflow.Advance(workflow.StatusDraft, workflow.RoleEmployee, workflow.DecisionReject, "emp-1", false, now)

				Expect(err).To(MatchError(apperrors.ErrWrongStage))
			})
		})

		Context("with a rejection", func() {
			It("should land in the stage-specific rejected status", func() {
				next, stage, err := workflow.Advance(workflow.StatusPendingHR, workflow.RoleHR, workflow.DecisionReject, "hr-1", false, now)

				Expect(err).ToNot(HaveOccurred())
				Expect(next).To(Equal(workflow.StatusRejectedHR))
				Expect(next.IsTerminal()).To(BeTrue())
				Expect(next.IsRejected()).To(BeTrue())
				Expect(stage.Decision).To(Equal(workflow.DecisionReject))
			})
		})

		Context("with the wrong role", func() {
			It("should refuse an hr decision at the manager gate", func() {
				_, _, err := workflow.Advance(workflow.StatusPendingManager, workflow.RoleHR, workflow.DecisionApprove, "hr-1", false, now)

				Expect(err).To(MatchError(apperrors.ErrWrongStage))
			})

			It("should refuse the special approver when the stage was not inserted", func() {
				_, _, err := workflow.Advance(workflow.StatusPendingAccounting, workflow.RoleSpecialApprover, workflow.DecisionApprove, "dir-1", false, now)

				Expect(err).To(MatchError(apperrors.ErrWrongStage))
			})
		})

		Context("with a terminal request", func() {
			It("should refuse decisions on an approved request", func() {
				_, _, err := workflow.Advance(workflow.StatusApproved, workflow.RoleAccounting, workflow.DecisionApprove, "acc-1", false, now)

				Expect(err).To(MatchError(apperrors.ErrAlreadyTerminal))
			})

			It("should refuse decisions on a rejected request", func() {
				_, _, err := workflow.Advance(workflow.StatusRejectedManager, workflow.RoleManager, workflow.DecisionApprove, "mgr-1", false, now)

				Expect(err).To(MatchError(apperrors.ErrAlreadyTerminal))
			})
		})

		It("should reject an unknown decision", func() {
			_, _, err := workflow.Advance(workflow.StatusPendingManager, workflow.RoleManager, workflow.Decision("defer"), "mgr-1", false, now)

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidPayload))
		})
	})

	Describe("Status", func() {
		It("should only allow edits in draft and pending_manager", func() {
			Expect(workflow.StatusDraft.Editable()).To(BeTrue())
			Expect(workflow.StatusPendingManager.Editable()).To(BeTrue())
			Expect(workflow.StatusPendingHR.Editable()).To(BeFalse())
			Expect(workflow.StatusApproved.Editable()).To(BeFalse())
			Expect(workflow.StatusRejectedHR.Editable()).To(BeFalse())
		})

		It("should expose the acting role per gate", func() {
			role, ok := workflow.GateRole(workflow.StatusPendingSpecial)
			Expect(ok).To(BeTrue())
			Expect(role).To(Equal(workflow.RoleSpecialApprover))

			_, ok = workflow.GateRole(workflow.StatusApproved)
			Expect(ok).To(BeFalse())
		})

		It("should validate known statuses", func() {
			Expect(workflow.StatusPendingAccounting.IsValid()).To(BeTrue())
			Expect(workflow.Status("on_hold").IsValid()).To(BeFalse())
		})
	})
})
