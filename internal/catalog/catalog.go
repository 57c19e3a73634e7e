package catalog

import (
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
)

// BenefitType identifies one employer-funded benefit category.
type BenefitType string

const (
	TypeTraining         BenefitType = "training"
	TypeInternalTraining BenefitType = "internal_training"
	TypeWedding          BenefitType = "wedding"
	TypeChildbirth       BenefitType = "childbirth"
	TypeFuneral          BenefitType = "funeral"
	TypeEyewear          BenefitType = "eyewear"
	TypeDental           BenefitType = "dental"
	TypeFitness          BenefitType = "fitness"
	TypeMedical          BenefitType = "medical"
	TypeCashAdvance      BenefitType = "cash_advance"
	TypeReconciliation   BenefitType = "expense_reconciliation"
)

// AmountRule selects how a request's amount is produced.
type AmountRule string

const (
	RuleStandard           AmountRule = "standard"
	RuleBudgetSplit        AmountRule = "budget_split"
	RuleFixedBySubcategory AmountRule = "fixed_by_subcategory"
	RuleFreeEntry          AmountRule = "free_entry"
	RuleReconciliation     AmountRule = "reconciliation"
)

// Period describes how a benefit's limit is bounded in time.
type Period string

const (
	PeriodAnnual              Period = "annual"
	PeriodMonthly             Period = "monthly"
	PeriodLifetimeCount       Period = "lifetime-count"
	PeriodLifetimeCategorySet Period = "lifetime-category-set"
	PeriodNone                Period = "none"
)

// Funeral relation categories, one lifetime claim each.
const (
	FuneralSpouseOrSelf = "spouse_or_self"
	FuneralChild        = "child"
	FuneralParent       = "parent"
)

// LimitPolicy is the immutable per-type configuration loaded at startup.
type LimitPolicy struct {
	Type       BenefitType     `json:"benefit_type"`
	Rule       AmountRule      `json:"amount_rule"`
	Period     Period          `json:"period"`
	Cap        decimal.Decimal `json:"cap"`
	Uncapped   bool            `json:"uncapped"`
	PooledWith BenefitType     `json:"pooled_with,omitempty"`
	// LifetimeCap applies to lifetime-count policies (childbirth: 3).
	LifetimeCap int `json:"lifetime_cap,omitempty"`
	// Categories enumerates the claimable set for lifetime-category-set policies.
	Categories []string `json:"categories,omitempty"`
}

// HasMonetaryBudget reports whether the ledger tracks a balance for the type.
func (p LimitPolicy) HasMonetaryBudget() bool {
	if p.Uncapped {
		return false
	}
	return p.Period == PeriodAnnual || p.Period == PeriodMonthly
}

// PoolKey returns the ledger key the type draws from. Pooled types (eyewear
// and dental) share one key regardless of which member is queried.
func (p LimitPolicy) PoolKey() string {
	if p.PooledWith == "" {
		return string(p.Type)
	}
	// Stable key independent of member ordering.
	if string(p.Type) < string(p.PooledWith) {
		return string(p.Type) + "_" + string(p.PooledWith)
	}
	return string(p.PooledWith) + "_" + string(p.Type)
}

// Catalog is the read-only benefit type registry.
type Catalog struct {
	policies         map[BenefitType]LimitPolicy
	fixedAmounts     map[BenefitType]map[string]decimal.Decimal
	specialThreshold decimal.Decimal
}

// Option overrides a default at construction time.
type Option func(*Catalog)

func WithSpecialApprovalThreshold(threshold decimal.Decimal) Option {
	return func(c *Catalog) {
		c.specialThreshold = threshold
	}
}

// New builds the catalog with the production benefit table.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		policies: map[BenefitType]LimitPolicy{
			TypeTraining: {
				Type:   TypeTraining,
				Rule:   RuleBudgetSplit,
				Period: PeriodAnnual,
				Cap:    decimal.NewFromInt(5000),
			},
			TypeInternalTraining: {
				Type:     TypeInternalTraining,
				Rule:     RuleStandard,
				Period:   PeriodNone,
				Uncapped: true,
			},
			TypeWedding: {
				Type:     TypeWedding,
				Rule:     RuleFixedBySubcategory,
				Period:   PeriodNone,
				Uncapped: true,
			},
			TypeChildbirth: {
				Type:        TypeChildbirth,
				Rule:        RuleFixedBySubcategory,
				Period:      PeriodLifetimeCount,
				LifetimeCap: 3,
			},
			TypeFuneral: {
				Type:       TypeFuneral,
				Rule:       RuleFixedBySubcategory,
				Period:     PeriodLifetimeCategorySet,
				Categories: []string{FuneralSpouseOrSelf, FuneralChild, FuneralParent},
			},
			TypeEyewear: {
				Type:       TypeEyewear,
				Rule:       RuleStandard,
				Period:     PeriodAnnual,
				Cap:        decimal.NewFromInt(1200),
				PooledWith: TypeDental,
			},
			TypeDental: {
				Type:       TypeDental,
				Rule:       RuleStandard,
				Period:     PeriodAnnual,
				Cap:        decimal.NewFromInt(1200),
				PooledWith: TypeEyewear,
			},
			TypeFitness: {
				Type:   TypeFitness,
				Rule:   RuleStandard,
				Period: PeriodMonthly,
				Cap:    decimal.NewFromInt(150),
			},
			TypeMedical: {
				Type:   TypeMedical,
				Rule:   RuleStandard,
				Period: PeriodAnnual,
				Cap:    decimal.NewFromInt(3000),
			},
			TypeCashAdvance: {
				Type:     TypeCashAdvance,
				Rule:     RuleFreeEntry,
				Period:   PeriodNone,
				Uncapped: true,
			},
			TypeReconciliation: {
				Type:     TypeReconciliation,
				Rule:     RuleReconciliation,
				Period:   PeriodNone,
				Uncapped: true,
			},
		},
		fixedAmounts: map[BenefitType]map[string]decimal.Decimal{
			TypeWedding: {
				"employee": decimal.NewFromInt(2000),
				"child":    decimal.NewFromInt(1000),
			},
			// Childbirth pays per child; the request multiplies by child count.
			TypeChildbirth: {
				"per_child": decimal.NewFromInt(1000),
			},
			TypeFuneral: {
				FuneralSpouseOrSelf: decimal.NewFromInt(10000),
				FuneralChild:        decimal.NewFromInt(5000),
				FuneralParent:       decimal.NewFromInt(5000),
			},
		},
		specialThreshold: decimal.NewFromInt(10000),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PolicyFor looks up the limit policy for a benefit type.
func (c *Catalog) PolicyFor(t BenefitType) (LimitPolicy, error) {
	policy, ok := c.policies[t]
	if !ok {
		return LimitPolicy{}, errors.ErrUnknownBenefitType.WithDetails(map[string]string{"benefit_type": string(t)})
	}
	return policy, nil
}

// FixedAmount returns the table amount for a fixed-by-subcategory type.
func (c *Catalog) FixedAmount(t BenefitType, subcategory string) (decimal.Decimal, error) {
	table, ok := c.fixedAmounts[t]
	if !ok {
		return decimal.Zero, errors.ErrUnknownBenefitType.WithDetails(map[string]string{"benefit_type": string(t)})
	}
	amount, ok := table[subcategory]
	if !ok {
		return decimal.Zero, errors.NewValidationFieldError("subcategory", "unknown subcategory "+subcategory, errors.ErrCodeInvalidPayload)
	}
	return amount, nil
}

// SpecialApprovalThreshold is the internal-training total above which the
// special approval stage is inserted.
func (c *Catalog) SpecialApprovalThreshold() decimal.Decimal {
	return c.specialThreshold
}

// Policies returns every registered policy, for the listing endpoint.
func (c *Catalog) Policies() []LimitPolicy {
	out := make([]LimitPolicy, 0, len(c.policies))
	for _, t := range orderedTypes {
		out = append(out, c.policies[t])
	}
	return out
}

var orderedTypes = []BenefitType{
	TypeTraining,
	TypeInternalTraining,
	TypeWedding,
	TypeChildbirth,
	TypeFuneral,
	TypeEyewear,
	TypeDental,
	TypeFitness,
	TypeMedical,
	TypeCashAdvance,
	TypeReconciliation,
}
