package postgres

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/frahmantamala/benefit-management/internal"
	ledgerDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/ledger"
	"github.com/frahmantamala/benefit-management/internal/ledger"
)

func TestBalanceRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "BalanceRepository Suite")
}

var _ = Describe("BalanceRepository", func() {
	var (
		db   *gorm.DB
		repo ledger.RepositoryAPI
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&ledgerDatamodel.BudgetBalance{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewBalanceRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Get", func() {
		It("should return nil when no balance row exists", func() {
			balance, err := repo.Get(ctx, "emp-001", "medical", "FY2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(balance).To(BeNil())
		})

		It("should load a created row by its key", func() {
			created := &ledgerDatamodel.BudgetBalance{
				EmployeeID: "emp-001",
				Pool:       "medical",
				PeriodKey:  "FY2026",
				Remaining:  decimal.NewFromInt(3000),
				Version:    1,
			}
			Expect(repo.Create(ctx, created)).To(Succeed())

			balance, err := repo.Get(ctx, "emp-001", "medical", "FY2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(balance).NotTo(BeNil())
			Expect(balance.Remaining.Equal(decimal.NewFromInt(3000))).To(BeTrue())
			Expect(balance.Version).To(Equal(int64(1)))
		})

		It("should keep periods apart", func() {
			Expect(repo.Create(ctx, &ledgerDatamodel.BudgetBalance{
				EmployeeID: "emp-001",
				Pool:       "fitness",
				PeriodKey:  "2026-01",
				Remaining:  decimal.NewFromInt(150),
				Version:    1,
			})).To(Succeed())

			balance, err := repo.Get(ctx, "emp-001", "fitness", "2026-02")
			Expect(err).NotTo(HaveOccurred())
			Expect(balance).To(BeNil())
		})
	})

	Describe("UpdateRemaining", func() {
		var balance *ledgerDatamodel.BudgetBalance

		BeforeEach(func() {
			balance = &ledgerDatamodel.BudgetBalance{
				EmployeeID: "emp-001",
				Pool:       "medical",
				PeriodKey:  "FY2026",
				Remaining:  decimal.NewFromInt(3000),
				Version:    1,
			}
			Expect(repo.Create(ctx, balance)).To(Succeed())
		})

		It("should write the figure and advance the version", func() {
			err := repo.UpdateRemaining(ctx, balance.ID, decimal.NewFromInt(2000), 1)
			Expect(err).NotTo(HaveOccurred())

			updated, err := repo.Get(ctx, "emp-001", "medical", "FY2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Remaining.Equal(decimal.NewFromInt(2000))).To(BeTrue())
			Expect(updated.Version).To(Equal(int64(2)))
		})

		It("should fail with a conflict on a stale version", func() {
			err := repo.UpdateRemaining(ctx, balance.ID, decimal.NewFromInt(2000), 5)
			Expect(err).To(Equal(apperrors.ErrReservationConflict))

			untouched, err := repo.Get(ctx, "emp-001", "medical", "FY2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(untouched.Remaining.Equal(decimal.NewFromInt(3000))).To(BeTrue())
		})

		It("should lose the second of two competing writes", func() {
			Expect(repo.UpdateRemaining(ctx, balance.ID, decimal.NewFromInt(2500), 1)).To(Succeed())

			err := repo.UpdateRemaining(ctx, balance.ID, decimal.NewFromInt(2700), 1)
			Expect(err).To(Equal(apperrors.ErrReservationConflict))
		})
	})
})
