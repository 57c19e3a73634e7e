// Package calculator holds the pure monetary arithmetic for benefit
// requests: net payable amounts and the training company/employee split.
// No I/O, no state; every function is safe for concurrent use.
package calculator

import (
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
)

var two = decimal.NewFromInt(2)

// SplitResult is the outcome of a budget-split computation. Shares are zero
// unless gross cost exceeded the remaining budget.
type SplitResult struct {
	Net           decimal.Decimal `json:"net"`
	Excess        decimal.Decimal `json:"excess"`
	CompanyShare  decimal.Decimal `json:"company_share"`
	EmployeeShare decimal.Decimal `json:"employee_share"`
}

// ComputeStandard returns net = base + vat - withholding, rounded to 2
// decimal places. Negative inputs fail with InvalidAmount.
func ComputeStandard(base, vat, withholding decimal.Decimal) (decimal.Decimal, error) {
	if err := validateAmounts(base, vat, withholding); err != nil {
		return decimal.Zero, err
	}
	return round2(base.Add(vat).Sub(withholding)), nil
}

// ComputeWithBudgetSplit handles the one benefit type whose cost may exceed
// the employee's annual cap. Within budget the company absorbs the full
// cost; over budget the excess is split evenly between company and employee.
// The employee is not additionally charged the withholding tax when the
// request stays within budget.
//
// Each derived value is rounded to 2 decimal places, half away from zero,
// independently (not cumulatively).
func ComputeWithBudgetSplit(base, vat, withholding, remainingBudget decimal.Decimal) (SplitResult, error) {
	if err := validateAmounts(base, vat, withholding); err != nil {
		return SplitResult{}, err
	}
	if remainingBudget.IsNegative() {
		return SplitResult{}, errors.ErrInvalidAmount.WithDetails(map[string]string{
			"field": "remaining_budget",
			"value": remainingBudget.String(),
		})
	}

	gross := base.Add(vat)
	net := round2(gross.Sub(withholding))

	if gross.LessThanOrEqual(remainingBudget) {
		return SplitResult{
			Net:           net,
			Excess:        decimal.Zero,
			CompanyShare:  decimal.Zero,
			EmployeeShare: decimal.Zero,
		}, nil
	}

	excess := round2(gross.Sub(remainingBudget))
	half := round2(excess.Div(two))

	return SplitResult{
		Net:           net,
		Excess:        excess,
		CompanyShare:  half,
		EmployeeShare: half,
	}, nil
}

func validateAmounts(base, vat, withholding decimal.Decimal) error {
	for field, v := range map[string]decimal.Decimal{
		"base":        base,
		"vat":         vat,
		"withholding": withholding,
	} {
		if v.IsNegative() {
			return errors.ErrInvalidAmount.WithDetails(map[string]string{
				"field": field,
				"value": v.String(),
			})
		}
	}
	return nil
}

// round2 rounds half away from zero to 2 decimal places, the convention for
// every monetary figure in this service.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round2 is the exported rounding used by the reconciliation engine and the
// ledger so every monetary figure agrees on the convention.
func Round2(d decimal.Decimal) decimal.Decimal {
	return round2(d)
}
