package employee

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/benefit-management/internal/auth"
	"github.com/frahmantamala/benefit-management/internal/transport"
	"github.com/frahmantamala/benefit-management/pkg/logger"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, employeeID string) (*Employee, error)
	Refresh(ctx context.Context, employeeID string) (*Employee, error)
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

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetMe: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), user.EmployeeID)
	if err != nil {
		h.Logger.Error("GetMe: service error", "error", err, "employee_id", user.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) RefreshMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RefreshMe: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.Service.Refresh(r.Context(), user.EmployeeID)
	if err != nil {
		h.Logger.Error("RefreshMe: service error", "error", err, "employee_id", user.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
