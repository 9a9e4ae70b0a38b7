package salestx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hmansour/farmgate-pos/pkg/config"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// validateInvoiceInput applies the business preconditions before any figure
// is derived. Every failing rule is reported, not just the first, so the
// cashier can fix the whole form in one pass. It returns sanity warnings for
// accepted-but-unusual inputs.
func validateInvoiceInput(input InvoiceInput, sanity config.SanityConfig) ([]string, error) {
	var problems []string
	if input.GrossWeight.LessThanOrEqual(decimal.Zero) {
		problems = append(problems, "gross weight must be positive")
	}
	if input.CagesWeight.IsNegative() {
		problems = append(problems, "cages weight cannot be negative")
	} else if input.GrossWeight.IsPositive() && input.CagesWeight.GreaterThanOrEqual(input.GrossWeight) {
		problems = append(problems, "cages weight must be below gross weight")
	}
	if input.CagesCount <= 0 {
		problems = append(problems, "cages count must be positive")
	}
	if input.UnitPrice.LessThanOrEqual(decimal.Zero) {
		problems = append(problems, "unit price must be positive")
	}
	if input.DiscountPercentage.IsNegative() || input.DiscountPercentage.GreaterThan(oneHundred) {
		problems = append(problems, "discount percentage must be between 0 and 100")
	}
	if len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, strings.Join(problems, "; ")).
			WithDetails(map[string]any{"messages": problems})
	}

	net := input.GrossWeight.Sub(input.CagesWeight)
	perCage := net.Div(decimal.NewFromInt(int64(input.CagesCount))).Round(2)
	min := decimal.NewFromFloat(sanity.MinWeightPerCage)
	max := decimal.NewFromFloat(sanity.MaxWeightPerCage)
	if perCage.GreaterThanOrEqual(min) && perCage.LessThanOrEqual(max) {
		return nil, nil
	}

	message := fmt.Sprintf("net weight per cage %s kg is outside the expected %s-%s kg range",
		perCage, min, max)
	if !input.AllowOutOfBand {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}
	return []string{message}, nil
}

func validatePaymentInput(input PaymentInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	return nil
}
