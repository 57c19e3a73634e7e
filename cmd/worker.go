package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/benefit-management/internal/catalog"
	employeeModel "github.com/frahmantamala/benefit-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/benefit-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/benefit-management/internal/ledger/postgres"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background batch jobs",
}

var workerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Open current-period budget balances",
	Long: `Materialize budget balances for the current fiscal year and calendar month
for every active employee. Run at period boundaries (cron); balances for past
periods are kept for audit and simply stop being consulted.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPeriodReset()
	},
}

func runPeriodReset() {
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

	var ledgerOpts []ledger.Option
	if config.Benefits.FiscalAnchor != "" {
		anchor, err := time.Parse("01-02", config.Benefits.FiscalAnchor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid fiscal anchor: %v\n", err)
			os.Exit(1)
		}
		ledgerOpts = append(ledgerOpts, ledger.WithFiscalAnchor(anchor.Month(), anchor.Day()))
	}
	ledgerService := ledger.NewService(ledgerPostgres.NewBalanceRepository(db), catalog.New(), lg, ledgerOpts...)

	var employeeIDs []string
	if err := db.Model(&employeeModel.Employee{}).
		Where("is_active = ?", true).
		Pluck("id", &employeeIDs).Error; err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list employees: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var failed int
	for _, id := range employeeIDs {
		if err := ledgerService.EnsureCurrentPeriod(ctx, id); err != nil {
			lg.Error("failed to open period balances", "error", err, "employee_id", id)
			failed++
		}
	}

	lg.Info("period reset completed", "employees", len(employeeIDs), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Printf("Period balances opened for %d employees\n", len(employeeIDs))
}
