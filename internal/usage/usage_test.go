package usage_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	usageDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/usage"
	"github.com/frahmantamala/benefit-management/internal/usage"
)

func TestUsage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Usage Suite")
}

// Mock repository for testing
type mockUsageRepository struct {
	counts     []*usageDatamodel.CountReservation
	claims     []*usageDatamodel.CategoryClaim
	sumError   error
	writeError error
}

func newMockUsageRepository() *mockUsageRepository {
	return &mockUsageRepository{}
}

func (m *mockUsageRepository) SumCounts(ctx context.Context, employeeID, benefitType string) (int, error) {
	if m.sumError != nil {
		return 0, m.sumError
	}
	total := 0
	for _, r := range m.counts {
		if r.EmployeeID == employeeID && r.BenefitType == benefitType {
			total += r.Count
		}
	}
	return total, nil
}

func (m *mockUsageRepository) CreateCountReservation(ctx context.Context, reservation *usageDatamodel.CountReservation) error {
	if m.writeError != nil {
		return m.writeError
	}
	m.counts = append(m.counts, reservation)
	return nil
}

func (m *mockUsageRepository) HasClaim(ctx context.Context, employeeID, benefitType, category string) (bool, error) {
	for _, c := range m.claims {
		if c.EmployeeID == employeeID && c.BenefitType == benefitType && c.Category == category {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUsageRepository) CreateCategoryClaim(ctx context.Context, claim *usageDatamodel.CategoryClaim) error {
	if m.writeError != nil {
		return m.writeError
	}
	m.claims = append(m.claims, claim)
	return nil
}

func (m *mockUsageRepository) DeleteByRequestID(ctx context.Context, requestID string) error {
	counts := m.counts[:0]
	for _, r := range m.counts {
		if r.RequestID != requestID {
			counts = append(counts, r)
		}
	}
	m.counts = counts

	claims := m.claims[:0]
	for _, c := range m.claims {
		if c.RequestID != requestID {
			claims = append(claims, c)
		}
	}
	m.claims = claims
	return nil
}

func (m *mockUsageRepository) CountsByRequestID(ctx context.Context, requestID string) (int, error) {
	total := 0
	for _, r := range m.counts {
		if r.RequestID == requestID {
			total += r.Count
		}
	}
	return total, nil
}

func (m *mockUsageRepository) CategoriesByRequestID(ctx context.Context, requestID string) ([]string, error) {
	var categories []string
	for _, c := range m.claims {
		if c.RequestID == requestID {
			categories = append(categories, c.Category)
		}
	}
	return categories, nil
}

func (m *mockUsageRepository) ClaimedCategories(ctx context.Context, employeeID, benefitType string) ([]string, error) {
	var categories []string
	for _, c := range m.claims {
		if c.EmployeeID == employeeID && c.BenefitType == benefitType {
			categories = append(categories, c.Category)
		}
	}
	return categories, nil
}

var _ = Describe("Tracker", func() {
	var (
		tracker *usage.Tracker
		repo    *mockUsageRepository
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockUsageRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tracker = usage.NewTracker(repo, catalog.New(), logger)
		ctx = context.Background()
	})

	Describe("ReserveCountSlots", func() {
		It("should reserve slots while under the lifetime cap", func() {
			err := tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 2, "req-1")

			Expect(err).ToNot(HaveOccurred())

			count, err := tracker.UsedCount(ctx, "emp-1", catalog.TypeChildbirth)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("should allow reaching the cap exactly", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 2, "req-1")).To(Succeed())
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 1, "req-2")).To(Succeed())
		})

		It("should fail with CapExceeded on the fourth child", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")).To(Succeed())

			err := tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 1, "req-2")

			Expect(err).To(MatchError(apperrors.ErrCapExceeded))

			count, _ := tracker.UsedCount(ctx, "emp-1", catalog.TypeChildbirth)
			Expect(count).To(Equal(3))
		})

		It("should fail when a single request would pass the cap", func() {
			err := tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 4, "req-1")

			Expect(err).To(MatchError(apperrors.ErrCapExceeded))
		})

		It("should track employees independently", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")).To(Succeed())
			Expect(tracker.ReserveCountSlots(ctx, "emp-2", catalog.TypeChildbirth, 3, "req-2")).To(Succeed())
		})

		It("should reject a non-positive count", func() {
			err := tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 0, "req-1")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})

		It("should reject a type without count slots", func() {
			err := tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeFitness, 1, "req-1")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})
	})

	Describe("ReserveCategorySlot", func() {
		It("should allow one claim per relation category", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralSpouseOrSelf, "req-1")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-2")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-3")).To(Succeed())
		})

		It("should fail with AlreadyClaimed on a repeat category", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())

			err := tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-2")

			Expect(err).To(MatchError(apperrors.ErrAlreadyClaimed))
		})

		It("should reject an unknown category", func() {
			err := tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, "sibling", "req-1")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})

		It("should not share claims between employees", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-1")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-2", catalog.TypeFuneral, catalog.FuneralChild, "req-2")).To(Succeed())
		})
	})

	Describe("ReleaseByRequest", func() {
		It("should free count slots for reuse", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")).To(Succeed())

			Expect(tracker.ReleaseByRequest(ctx, "emp-1", catalog.TypeChildbirth, "req-1")).To(Succeed())

			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-2")).To(Succeed())
		})

		It("should free a category claim for reuse", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())

			Expect(tracker.ReleaseByRequest(ctx, "emp-1", catalog.TypeFuneral, "req-1")).To(Succeed())

			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-2")).To(Succeed())
		})

		It("should be idempotent", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 1, "req-1")).To(Succeed())

			Expect(tracker.ReleaseByRequest(ctx, "emp-1", catalog.TypeChildbirth, "req-1")).To(Succeed())
			Expect(tracker.ReleaseByRequest(ctx, "emp-1", catalog.TypeChildbirth, "req-1")).To(Succeed())

			count, _ := tracker.UsedCount(ctx, "emp-1", catalog.TypeChildbirth)
			Expect(count).To(Equal(0))
		})
	})

	Describe("ReallocateCountSlots", func() {
		It("should exchange the previous reservation for the new count", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 1, "req-1")).To(Succeed())

			Expect(tracker.ReallocateCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 2, "req-1")).To(Succeed())

			count, _ := tracker.UsedCount(ctx, "emp-1", catalog.TypeChildbirth)
			Expect(count).To(Equal(2))
		})

		It("should count the request's own slots as available", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")).To(Succeed())

			// still 3 total after the exchange
			Expect(tracker.ReallocateCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")).To(Succeed())
		})

		It("should fail when the new count passes the cap", func() {
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 2, "req-1")).To(Succeed())
			Expect(tracker.ReserveCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 1, "req-2")).To(Succeed())

			err := tracker.ReallocateCountSlots(ctx, "emp-1", catalog.TypeChildbirth, 3, "req-1")

			Expect(err).To(MatchError(apperrors.ErrCapExceeded))

			// the original reservation is untouched
			count, _ := tracker.UsedCount(ctx, "emp-1", catalog.TypeChildbirth)
			Expect(count).To(Equal(3))
		})
	})

	Describe("ReallocateCategorySlot", func() {
		It("should swap the claim to the new category", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-1")).To(Succeed())

			Expect(tracker.ReallocateCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())

			// child is claimable again, parent is not
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-2")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-3")).To(MatchError(apperrors.ErrAlreadyClaimed))
		})

		It("should keep the original claim when the target category is taken", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-2")).To(Succeed())

			err := tracker.ReallocateCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-2")

			Expect(err).To(MatchError(apperrors.ErrAlreadyClaimed))

			// req-2 still holds child, so a duplicate claim is refused
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-3")).To(MatchError(apperrors.ErrAlreadyClaimed))
		})

		It("should treat moving to the held category as a no-op", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())

			Expect(tracker.ReallocateCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralParent, "req-1")).To(Succeed())

			claimed, err := tracker.ClaimedCategories(ctx, "emp-1", catalog.TypeFuneral)
			Expect(err).ToNot(HaveOccurred())
			Expect(claimed).To(Equal([]string{catalog.FuneralParent}))
		})

		It("should reject an unknown category", func() {
			err := tracker.ReallocateCategorySlot(ctx, "emp-1", catalog.TypeFuneral, "sibling", "req-1")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})
	})

	Describe("ClaimedCategories", func() {
		It("should list the employee's used categories", func() {
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralSpouseOrSelf, "req-1")).To(Succeed())
			Expect(tracker.ReserveCategorySlot(ctx, "emp-1", catalog.TypeFuneral, catalog.FuneralChild, "req-2")).To(Succeed())

			claimed, err := tracker.ClaimedCategories(ctx, "emp-1", catalog.TypeFuneral)

			Expect(err).ToNot(HaveOccurred())
			Expect(claimed).To(ConsistOf(catalog.FuneralSpouseOrSelf, catalog.FuneralChild))
		})

		It("should report nothing for an employee with no claims", func() {
			claimed, err := tracker.ClaimedCategories(ctx, "emp-1", catalog.TypeFuneral)

			Expect(err).ToNot(HaveOccurred())
			Expect(claimed).To(BeEmpty())
		})
	})
})
