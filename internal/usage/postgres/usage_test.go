package postgres

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	usageDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/usage"
	"github.com/frahmantamala/benefit-management/internal/usage"
)

func TestUsageRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UsageRepository Suite")
}

var _ = Describe("UsageRepository", func() {
	var (
		db   *gorm.DB
		repo usage.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&usageDatamodel.CountReservation{}, &usageDatamodel.CategoryClaim{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewUsageRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("SumCounts", func() {
		It("should return zero with no reservations", func() {
			total, err := repo.SumCounts(ctx, "emp-001", "childbirth")
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(0))
		})

		It("should sum across requests for one employee and type", func() {
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-001", BenefitType: "childbirth", RequestID: "req-1", Count: 2,
			})).To(Succeed())
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-001", BenefitType: "childbirth", RequestID: "req-2", Count: 1,
			})).To(Succeed())
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-002", BenefitType: "childbirth", RequestID: "req-3", Count: 1,
			})).To(Succeed())

			total, err := repo.SumCounts(ctx, "emp-001", "childbirth")
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(3))
		})
	})

	Describe("HasClaim", func() {
		It("should report a recorded category claim", func() {
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "parent", RequestID: "req-1",
			})).To(Succeed())

			claimed, err := repo.HasClaim(ctx, "emp-001", "funeral", "parent")
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(BeTrue())

			claimed, err = repo.HasClaim(ctx, "emp-001", "funeral", "child")
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(BeFalse())
		})
	})

	Describe("DeleteByRequestID", func() {
		It("should remove both reservation kinds for the request", func() {
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-001", BenefitType: "childbirth", RequestID: "req-1", Count: 2,
			})).To(Succeed())
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "parent", RequestID: "req-1",
			})).To(Succeed())

			Expect(repo.DeleteByRequestID(ctx, "req-1")).To(Succeed())

			total, err := repo.SumCounts(ctx, "emp-001", "childbirth")
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(0))

			claimed, err := repo.HasClaim(ctx, "emp-001", "funeral", "parent")
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(BeFalse())
		})

		It("should be a no-op for an unknown request", func() {
			Expect(repo.DeleteByRequestID(ctx, "missing")).To(Succeed())
		})
	})

	Describe("CategoriesByRequestID", func() {
		It("should list only the request's own claims", func() {
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "parent", RequestID: "req-1",
			})).To(Succeed())
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "child", RequestID: "req-2",
			})).To(Succeed())

			categories, err := repo.CategoriesByRequestID(ctx, "req-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(Equal([]string{"parent"}))
		})

		It("should return nothing for an unknown request", func() {
			categories, err := repo.CategoriesByRequestID(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(BeEmpty())
		})
	})

	Describe("ClaimedCategories", func() {
		It("should list the employee's claims for one type in order", func() {
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "parent", RequestID: "req-1",
			})).To(Succeed())
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-001", BenefitType: "funeral", Category: "child", RequestID: "req-2",
			})).To(Succeed())
			Expect(repo.CreateCategoryClaim(ctx, &usageDatamodel.CategoryClaim{
				EmployeeID: "emp-002", BenefitType: "funeral", Category: "spouse_or_self", RequestID: "req-3",
			})).To(Succeed())

			categories, err := repo.ClaimedCategories(ctx, "emp-001", "funeral")
			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(Equal([]string{"child", "parent"}))
		})
	})

	Describe("CountsByRequestID", func() {
		It("should sum only the request's own rows", func() {
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-001", BenefitType: "childbirth", RequestID: "req-1", Count: 2,
			})).To(Succeed())
			Expect(repo.CreateCountReservation(ctx, &usageDatamodel.CountReservation{
				EmployeeID: "emp-001", BenefitType: "childbirth", RequestID: "req-2", Count: 1,
			})).To(Succeed())

			total, err := repo.CountsByRequestID(ctx, "req-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(2))
		})
	})
})
