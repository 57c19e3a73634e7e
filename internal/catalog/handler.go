package catalog

import (
	"net/http"

	"github.com/frahmantamala/benefit-management/internal/transport"
)

type PolicyResponse struct {
	BenefitType string   `json:"benefit_type"`
	AmountRule  string   `json:"amount_rule"`
	Period      string   `json:"period"`
	Cap         string   `json:"cap,omitempty"`
	Uncapped    bool     `json:"uncapped,omitempty"`
	PooledWith  string   `json:"pooled_with,omitempty"`
	LifetimeCap int      `json:"lifetime_cap,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

type PoliciesResponse struct {
	BenefitTypes []PolicyResponse `json:"benefit_types"`
}

type Handler struct {
	*transport.BaseHandler
	Catalog *Catalog
}

func NewHandler(baseHandler *transport.BaseHandler, c *Catalog) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Catalog:     c,
	}
}

func (h *Handler) GetBenefitTypes(w http.ResponseWriter, r *http.Request) {
	policies := h.Catalog.Policies()

	responses := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		resp := PolicyResponse{
			BenefitType: string(p.Type),
			AmountRule:  string(p.Rule),
			Period:      string(p.Period),
			Uncapped:    p.Uncapped,
			PooledWith:  string(p.PooledWith),
			LifetimeCap: p.LifetimeCap,
			Categories:  p.Categories,
		}
		if !p.Uncapped && p.HasMonetaryBudget() {
			resp.Cap = p.Cap.StringFixed(2)
		}
		responses = append(responses, resp)
	}

	h.WriteJSON(w, http.StatusOK, PoliciesResponse{BenefitTypes: responses})
}
