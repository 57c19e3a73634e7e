package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/benefit-management/internal/auth"
	"github.com/frahmantamala/benefit-management/internal/benefit"
	"github.com/frahmantamala/benefit-management/internal/catalog"
	"github.com/frahmantamala/benefit-management/internal/employee"
	"github.com/frahmantamala/benefit-management/internal/transport/middleware"
	"github.com/frahmantamala/benefit-management/internal/transport/swagger"
	"github.com/frahmantamala/benefit-management/internal/workflow"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	employeeHandler *employee.Handler,
	catalogHandler *catalog.Handler,
	benefitHandler *benefit.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Catalog is public: the benefit types and their limits are not
		// sensitive.
		if catalogHandler != nil {
			r.Get("/benefit-types", catalogHandler.GetBenefitTypes)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if employeeHandler != nil {
					pr.Get("/employees/me", employeeHandler.GetMe)
					pr.Post("/employees/me/refresh", employeeHandler.RefreshMe)
				}

				if benefitHandler != nil {
					pr.Route("/benefits", func(br chi.Router) {
						br.Post("/", benefitHandler.SubmitBenefit)
						br.Get("/", benefitHandler.ListBenefits)
						br.Get("/budgets", benefitHandler.GetBudgets)
						br.Get("/{id}", benefitHandler.GetBenefit)
						br.Patch("/{id}", benefitHandler.EditBenefit)
						br.Post("/{id}/decision", benefitHandler.DecideBenefit)

						// Reviewer queue, gated to approval roles
						br.Group(func(rr chi.Router) {
							rr.Use(authHandler.RequireRole(
								string(workflow.RoleManager),
								string(workflow.RoleHR),
								string(workflow.RoleSpecialApprover),
								string(workflow.RoleAccounting),
							))
							rr.Get("/pending", benefitHandler.ListPending)
						})
					})
				}
			})
		}
	})
}
