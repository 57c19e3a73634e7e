package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/benefit-management/internal/catalog"
	accountModel "github.com/frahmantamala/benefit-management/internal/core/datamodel/account"
	employeeModel "github.com/frahmantamala/benefit-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/benefit-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/benefit-management/internal/ledger/postgres"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed development data",
	Long:  `Insert development accounts, employees and budget balances`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeeder()
	},
}

type seedEmployee struct {
	id       string
	email    string
	name     string
	team     string
	position string
	manager  string
	roles    string
}

var seedEmployees = []seedEmployee{
	{id: "emp-001", email: "dewi@example.com", name: "Dewi Santoso", team: "Engineering", position: "Software Engineer", manager: "emp-002", roles: "employee"},
	{id: "emp-002", email: "bima@example.com", name: "Bima Pratama", team: "Engineering", position: "Engineering Manager", roles: "employee,manager"},
	{id: "emp-003", email: "sari@example.com", name: "Sari Wulandari", team: "People", position: "HR Generalist", roles: "employee,hr"},
	{id: "emp-004", email: "agus@example.com", name: "Agus Hartono", team: "People", position: "Head of People", roles: "employee,hr,special_approver"},
	{id: "emp-005", email: "rina@example.com", name: "Rina Kusuma", team: "Finance", position: "Accountant", roles: "employee,accounting"},
	{id: "emp-006", email: "admin@example.com", name: "Platform Admin", team: "Platform", position: "Administrator", roles: "admin"},
}

func runSeeder() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx := context.Background()

	if clearData {
		lg.Info("clearing existing data")
		for _, table := range []string{
			"benefit_requests",
			"budget_balances",
			"usage_count_reservations",
			"usage_category_claims",
			"accounts",
			"employees",
		} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				fmt.Fprintf(os.Stderr, "Failed to clear %s: %v\n", table, err)
				os.Exit(1)
			}
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password"), config.Security.BCryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	for _, se := range seedEmployees {
		emp := employeeModel.Employee{
			ID:        se.id,
			Email:     se.email,
			Name:      se.name,
			Team:      se.team,
			Position:  se.position,
			StartDate: time.Now().AddDate(-2, 0, 0),
			IsActive:  true,
		}
		if se.manager != "" {
			manager := se.manager
			emp.ManagerID = &manager
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&emp).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed employee %s: %v\n", se.id, err)
			os.Exit(1)
		}

		acct := accountModel.Account{
			Email:        se.email,
			PasswordHash: string(passwordHash),
			EmployeeID:   se.id,
			Roles:        se.roles,
			IsActive:     true,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&acct).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed account %s: %v\n", se.email, err)
			os.Exit(1)
		}
	}

	ledgerService := ledger.NewService(ledgerPostgres.NewBalanceRepository(db), catalog.New(), lg)
	for _, se := range seedEmployees {
		if err := ledgerService.SeedBudgets(ctx, se.id, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed budgets for %s: %v\n", se.id, err)
			os.Exit(1)
		}
	}

	lg.Info("seeding completed", "employees", len(seedEmployees))
	fmt.Println("Seeding completed")
}
