package ledgercalc

import "github.com/shopspring/decimal"

// money/weight values are carried at 2 decimal places everywhere.
const scale = 2

// Input carries the raw figures of a slaughter sale. Callers validate
// preconditions (positive gross weight, cages weight below gross weight,
// positive unit price); the calculator itself never rejects edge inputs.
type Input struct {
	GrossWeight        decimal.Decimal
	CagesWeight        decimal.Decimal
	CagesCount         int
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	PreviousBalance    decimal.Decimal
}

// Result holds every derived invoice figure. Identical inputs always produce
// identical results; the calculation is pure and performs no I/O.
type Result struct {
	NetWeight       decimal.Decimal
	TotalAmount     decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalAmount     decimal.Decimal
	CurrentBalance  decimal.Decimal
	WeightPerCage   decimal.Decimal
	PricePerCage    decimal.Decimal
	PreviousBalance decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Calculate derives net weight, totals, discount and balance figures from the
// raw invoice inputs. Net weight is floored at zero; per-cage figures are zero
// when there are no cages.
func Calculate(in Input) Result {
	net := in.GrossWeight.Sub(in.CagesWeight)
	if net.IsNegative() {
		net = decimal.Zero
	}
	net = net.Round(scale)

	total := net.Mul(in.UnitPrice).Round(scale)
	discount := total.Mul(in.DiscountPercentage).Div(oneHundred).Round(scale)
	final := total.Sub(discount)
	current := in.PreviousBalance.Add(final).Round(scale)

	weightPerCage := decimal.Zero
	pricePerCage := decimal.Zero
	if in.CagesCount > 0 {
		cages := decimal.NewFromInt(int64(in.CagesCount))
		weightPerCage = net.Div(cages).Round(scale)
		pricePerCage = final.Div(cages).Round(scale)
	}

	return Result{
		NetWeight:       net,
		TotalAmount:     total,
		DiscountAmount:  discount,
		FinalAmount:     final,
		CurrentBalance:  current,
		WeightPerCage:   weightPerCage,
		PricePerCage:    pricePerCage,
		PreviousBalance: in.PreviousBalance.Round(scale),
	}
}
