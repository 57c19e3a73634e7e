package benefit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefit-management/internal/auth"
	"github.com/frahmantamala/benefit-management/internal/transport"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

type ServiceAPI interface {
	SubmitBenefit(ctx context.Context, employeeID string, dto SubmitBenefitDTO) (*BenefitRequest, error)
	EditBenefit(ctx context.Context, requestID, employeeID string, dto EditBenefitDTO) (*BenefitRequest, error)
	Decide(ctx context.Context, requestID, actorID string, roles []string, dto DecisionDTO) (*BenefitRequest, error)
	GetBenefit(ctx context.Context, requestID, actorID string, roles []string) (*BenefitRequest, error)
	ListBenefits(ctx context.Context, employeeID string, limit, offset int) ([]*BenefitRequest, error)
	ListPending(ctx context.Context, status string, roles []string, limit, offset int) ([]*BenefitRequest, error)
	RemainingBudgets(ctx context.Context, employeeID string) ([]BudgetView, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) SubmitBenefit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("SubmitBenefit: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitBenefitDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SubmitBenefit: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Service.SubmitBenefit(r.Context(), user.EmployeeID, dto)
	if err != nil {
		h.Logger.Error("SubmitBenefit: service error", "error", err, "employee_id", user.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) GetBenefit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetBenefit: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	request, err := h.Service.GetBenefit(r.Context(), requestID, user.EmployeeID, user.Roles)
	if err != nil {
		h.Logger.Error("GetBenefit: service error", "error", err, "request_id", requestID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) ListBenefits(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ListBenefits: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	requests, err := h.Service.ListBenefits(r.Context(), user.EmployeeID, limit, offset)
	if err != nil {
		h.Logger.Error("ListBenefits: service error", "error", err, "employee_id", user.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"benefits": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ListPending: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := r.URL.Query().Get("status")
	limit, offset := pagination(r)
	requests, err := h.Service.ListPending(r.Context(), status, user.Roles, limit, offset)
	if err != nil {
		h.Logger.Error("ListPending: service error", "error", err, "status", status)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"benefits": requests,
		"status":   status,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) EditBenefit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("EditBenefit: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")

	var dto EditBenefitDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("EditBenefit: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Service.EditBenefit(r.Context(), requestID, user.EmployeeID, dto)
	if err != nil {
		h.Logger.Error("EditBenefit: service error", "error", err, "request_id", requestID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) DecideBenefit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("DecideBenefit: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("DecideBenefit: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Service.Decide(r.Context(), requestID, user.EmployeeID, user.Roles, dto)
	if err != nil {
		h.Logger.Error("DecideBenefit: service error",
			"error", err,
			"request_id", requestID,
			"actor_id", user.EmployeeID,
			"acting_role", dto.ActingRole)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DecideBenefit: decision applied",
		"request_id", requestID,
		"actor_id", user.EmployeeID,
		"decision", dto.Decision,
		"status", request.Status)

	h.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetBudgets: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	views, err := h.Service.RemainingBudgets(r.Context(), user.EmployeeID)
	if err != nil {
		h.Logger.Error("GetBudgets: service error", "error", err, "employee_id", user.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"budgets": views})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
