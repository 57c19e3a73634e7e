package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	gormSqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/auth"
	authPostgres "github.com/frahmantamala/benefit-management/internal/auth/postgres"
	"github.com/frahmantamala/benefit-management/internal/benefit"
	benefitPostgres "github.com/frahmantamala/benefit-management/internal/benefit/postgres"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/core/events"
	"github.com/frahmantamala/benefit-management/internal/document"
	"github.com/frahmantamala/benefit-management/internal/employee"
	employeePostgres "github.com/frahmantamala/benefit-management/internal/employee/postgres"
	"github.com/frahmantamala/benefit-management/internal/hrdirectory"
	"github.com/frahmantamala/benefit-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/benefit-management/internal/ledger/postgres"
	"github.com/frahmantamala/benefit-management/internal/notification"
	"github.com/frahmantamala/benefit-management/internal/transport"
	"github.com/frahmantamala/benefit-management/internal/transport/rest"
	"github.com/frahmantamala/benefit-management/internal/usage"
	usagePostgres "github.com/frahmantamala/benefit-management/internal/usage/postgres"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	SQLDB    *sql.DB
	Router   *chi.Mux
	Renderer *document.Renderer
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Renderer.Shutdown()
		if err := deps.SQLDB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, sqlDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Catalog
	var catalogOpts []catalog.Option
	if config.Benefits.SpecialApprovalThreshold != "" {
		threshold, err := decimal.NewFromString(config.Benefits.SpecialApprovalThreshold)
		if err != nil {
			return nil, fmt.Errorf("invalid special approval threshold: %w", err)
		}
		catalogOpts = append(catalogOpts, catalog.WithSpecialApprovalThreshold(threshold))
	}
	benefitCatalog := catalog.New(catalogOpts...)

	// Ledger
	var ledgerOpts []ledger.Option
	if config.Benefits.FiscalAnchor != "" {
		anchor, err := time.Parse("01-02", config.Benefits.FiscalAnchor)
		if err != nil {
			return nil, fmt.Errorf("invalid fiscal anchor: %w", err)
		}
		ledgerOpts = append(ledgerOpts, ledger.WithFiscalAnchor(anchor.Month(), anchor.Day()))
	}
	ledgerService := ledger.NewService(ledgerPostgres.NewBalanceRepository(db), benefitCatalog, lg, ledgerOpts...)

	// Usage tracker
	usageTracker := usage.NewTracker(usagePostgres.NewUsageRepository(db), benefitCatalog, lg)

	// HR directory client
	directoryClient := hrdirectory.NewClient(hrdirectory.Config{
		BaseURL: config.HRDirectory.BaseURL,
		APIKey:  config.HRDirectory.APIKey,
		Timeout: config.HRDirectory.Timeout,
	}, lg)

	// Event bus + notifications
	eventBus := events.NewEventBus(lg)
	dispatcher := notification.NewDispatcher(notification.Config{
		WebhookURL: config.Notification.WebhookURL,
		Timeout:    config.Notification.Timeout,
	}, lg)
	dispatcher.Register(eventBus)

	// Document renderer; the sink needs the benefit service, which needs the
	// renderer, so the sink indirects through the variable.
	var benefitService *benefit.Service
	renderer := document.NewRenderer(document.Config{
		RendererURL:  config.DocumentStore.RendererURL,
		APIKey:       config.DocumentStore.APIKey,
		Timeout:      config.DocumentStore.Timeout,
		MaxWorkers:   config.DocumentStore.MaxWorkers,
		JobQueueSize: config.DocumentStore.JobQueueSize,
	}, func(ctx context.Context, requestID, documentRef string) {
		if benefitService != nil {
			_ = benefitService.SetDocumentRef(ctx, requestID, documentRef)
		}
	}, lg)

	benefitService = benefit.NewService(
		benefitPostgres.NewBenefitRepository(db),
		benefitCatalog,
		ledgerService,
		usageTracker,
		directoryClient,
		eventBus,
		renderer,
		lg,
	)

	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(db), directoryClient, lg)

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	if config.Security.AccessTokenDuration > 0 {
		tokenGen.AccessTokenTTL = config.Security.AccessTokenDuration
	}
	if config.Security.RefreshTokenDuration > 0 {
		tokenGen.RefreshTokenTTL = config.Security.RefreshTokenDuration
	}
	authService := auth.NewService(authPostgres.NewRepository(db), tokenGen, config.Security.BCryptCost)

	authHandler := auth.NewHandler(authService)
	employeeHandler := employee.NewHandler(employeeService)
	catalogHandler := catalog.NewHandler(transport.NewBaseHandler(lg), benefitCatalog)
	benefitHandler := benefit.NewHandler(benefitService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlDB, authHandler, employeeHandler, catalogHandler, benefitHandler, lg)

	return &Dependencies{
		Config:   config,
		DB:       db,
		SQLDB:    sqlDB,
		Router:   router,
		Renderer: renderer,
		Logger:   lg,
	}, nil
}

// initDB opens the database per the configured driver: postgres through the
// pgx stdlib driver (via sqlx, which also verifies the connection), sqlite
// for local development.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sql.DB, error) {
	if cfg.Driver == "sqlite" {
		db, err := gorm.Open(gormSqlite.Open(cfg.Source), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return db, sqlDB, nil
	}

	conn, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: conn.DB}), &gorm.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return db, conn.DB, nil
}
