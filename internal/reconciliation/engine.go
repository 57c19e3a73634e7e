// Package reconciliation compares a cash advance against actual spend and
// computes the refund or shortfall per line item and in aggregate.
package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/benefit-management/internal"
	"github.com/frahmantamala/benefit-management/internal/calculator"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one row of actual spend against an advance. VATAmount arrives
// already resolved: either system-computed upstream or operator-entered,
// depending on the reconciliation variant.
type LineItem struct {
	Category      string          `json:"category"`
	RequestAmount decimal.Decimal `json:"request_amount"`
	UsedAmount    decimal.Decimal `json:"used_amount"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
}

// LineResult carries the derived figures for one line. Refund is signed:
// positive means the advance exceeded net spend and is owed back.
type LineResult struct {
	LineItem
	TaxAmount decimal.Decimal `json:"tax_amount"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Refund    decimal.Decimal `json:"refund"`
}

type Result struct {
	Lines       []LineResult    `json:"lines"`
	TotalRefund decimal.Decimal `json:"total_refund"`
}

// Reconcile computes, per line, tax = used * rate%, net = used + vat - tax,
// refund = requested - net, and sums refunds. Validation failures reject the
// whole call; no line is partially applied.
func Reconcile(items []LineItem) (Result, error) {
	if len(items) == 0 {
		return Result{}, errors.ErrInvalidLineItem.WithDetails(map[string]string{
			"reason": "at least one line item is required",
		})
	}

	for i, item := range items {
		if err := validateLine(i, item); err != nil {
			return Result{}, err
		}
	}

	result := Result{
		Lines:       make([]LineResult, 0, len(items)),
		TotalRefund: decimal.Zero,
	}

	for _, item := range items {
		tax := calculator.Round2(item.UsedAmount.Mul(item.TaxRate).Div(hundred))
		net := calculator.Round2(item.UsedAmount.Add(item.VATAmount).Sub(tax))
		refund := calculator.Round2(item.RequestAmount.Sub(net))

		result.Lines = append(result.Lines, LineResult{
			LineItem:  item,
			TaxAmount: tax,
			NetAmount: net,
			Refund:    refund,
		})
		result.TotalRefund = result.TotalRefund.Add(refund)
	}

	result.TotalRefund = calculator.Round2(result.TotalRefund)
	return result, nil
}

func validateLine(index int, item LineItem) error {
	fail := func(reason string) error {
		return errors.ErrInvalidLineItem.WithDetails(map[string]string{
			"line":   fmt.Sprintf("%d", index),
			"reason": reason,
		})
	}

	if item.UsedAmount.IsNegative() {
		return fail("used amount must be >= 0")
	}
	if item.RequestAmount.IsNegative() {
		return fail("request amount must be >= 0")
	}
	if item.VATAmount.IsNegative() {
		return fail("vat amount must be >= 0")
	}
	if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(hundred) {
		return fail("tax rate must be between 0 and 100")
	}
	return nil
}
