package ledgercalc

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  Result
	}{
		{
			name: "standard sale without discount",
			input: Input{
				GrossWeight:        dec("82"),
				CagesWeight:        dec("24"),
				CagesCount:         3,
				UnitPrice:          dec("1.80"),
				DiscountPercentage: dec("0"),
				PreviousBalance:    dec("0"),
			},
			want: Result{
				NetWeight:      dec("58"),
				TotalAmount:    dec("104.40"),
				DiscountAmount: dec("0"),
				FinalAmount:    dec("104.40"),
				CurrentBalance: dec("104.40"),
				WeightPerCage:  dec("19.33"),
				PricePerCage:   dec("34.80"),
			},
		},
		{
			name: "ten percent discount",
			input: Input{
				GrossWeight:        dec("82"),
				CagesWeight:        dec("24"),
				CagesCount:         3,
				UnitPrice:          dec("1.80"),
				DiscountPercentage: dec("10"),
				PreviousBalance:    dec("0"),
			},
			want: Result{
				NetWeight:      dec("58"),
				TotalAmount:    dec("104.40"),
				DiscountAmount: dec("10.44"),
				FinalAmount:    dec("93.96"),
				CurrentBalance: dec("93.96"),
				WeightPerCage:  dec("19.33"),
				PricePerCage:   dec("31.32"),
			},
		},
		{
			name: "previous balance carried forward",
			input: Input{
				GrossWeight:        dec("100"),
				CagesWeight:        dec("20"),
				CagesCount:         4,
				UnitPrice:          dec("2.50"),
				DiscountPercentage: dec("0"),
				PreviousBalance:    dec("150.25"),
			},
			want: Result{
				NetWeight:      dec("80"),
				TotalAmount:    dec("200.00"),
				DiscountAmount: dec("0"),
				FinalAmount:    dec("200.00"),
				CurrentBalance: dec("350.25"),
				WeightPerCage:  dec("20.00"),
				PricePerCage:   dec("50.00"),
			},
		},
		{
			name: "full discount floors final amount at zero",
			input: Input{
				GrossWeight:        dec("50"),
				CagesWeight:        dec("10"),
				CagesCount:         2,
				UnitPrice:          dec("3.00"),
				DiscountPercentage: dec("100"),
				PreviousBalance:    dec("10"),
			},
			want: Result{
				NetWeight:      dec("40"),
				TotalAmount:    dec("120.00"),
				DiscountAmount: dec("120.00"),
				FinalAmount:    dec("0"),
				CurrentBalance: dec("10.00"),
				WeightPerCage:  dec("20.00"),
				PricePerCage:   dec("0"),
			},
		},
		{
			name: "cages heavier than gross floors net weight at zero",
			input: Input{
				GrossWeight:        dec("10"),
				CagesWeight:        dec("15"),
				CagesCount:         2,
				UnitPrice:          dec("1.50"),
				DiscountPercentage: dec("0"),
				PreviousBalance:    dec("0"),
			},
			want: Result{
				NetWeight:      dec("0"),
				TotalAmount:    dec("0"),
				DiscountAmount: dec("0"),
				FinalAmount:    dec("0"),
				CurrentBalance: dec("0"),
				WeightPerCage:  dec("0"),
				PricePerCage:   dec("0"),
			},
		},
		{
			name: "zero cages skips per-cage figures",
			input: Input{
				GrossWeight:        dec("30"),
				CagesWeight:        dec("0"),
				CagesCount:         0,
				UnitPrice:          dec("2.00"),
				DiscountPercentage: dec("0"),
				PreviousBalance:    dec("0"),
			},
			want: Result{
				NetWeight:      dec("30"),
				TotalAmount:    dec("60.00"),
				DiscountAmount: dec("0"),
				FinalAmount:    dec("60.00"),
				CurrentBalance: dec("60.00"),
				WeightPerCage:  dec("0"),
				PricePerCage:   dec("0"),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.input)
			assertDecimal(t, "NetWeight", tc.want.NetWeight, got.NetWeight)
			assertDecimal(t, "TotalAmount", tc.want.TotalAmount, got.TotalAmount)
			assertDecimal(t, "DiscountAmount", tc.want.DiscountAmount, got.DiscountAmount)
			assertDecimal(t, "FinalAmount", tc.want.FinalAmount, got.FinalAmount)
			assertDecimal(t, "CurrentBalance", tc.want.CurrentBalance, got.CurrentBalance)
			assertDecimal(t, "WeightPerCage", tc.want.WeightPerCage, got.WeightPerCage)
			assertDecimal(t, "PricePerCage", tc.want.PricePerCage, got.PricePerCage)
		})
	}
}

func TestCalculateDiscountMonotonicity(t *testing.T) {
	base := Input{
		GrossWeight: dec("82"),
		CagesWeight: dec("24"),
		CagesCount:  3,
		UnitPrice:   dec("1.80"),
	}

	for _, pct := range []string{"0", "5", "12.5", "50", "99.99", "100"} {
		in := base
		in.DiscountPercentage = dec(pct)
		got := Calculate(in)
		if got.FinalAmount.GreaterThan(got.TotalAmount) {
			t.Fatalf("discount %s: final %s exceeds total %s", pct, got.FinalAmount, got.TotalAmount)
		}
		if got.FinalAmount.IsNegative() {
			t.Fatalf("discount %s: final amount went negative: %s", pct, got.FinalAmount)
		}
		if pct == "0" && !got.FinalAmount.Equal(got.TotalAmount) {
			t.Fatalf("zero discount should leave total untouched, got %s vs %s", got.FinalAmount, got.TotalAmount)
		}
	}
}

func TestCalculateDeterministic(t *testing.T) {
	in := Input{
		GrossWeight:        dec("77.77"),
		CagesWeight:        dec("21.21"),
		CagesCount:         7,
		UnitPrice:          dec("1.95"),
		DiscountPercentage: dec("3.33"),
		PreviousBalance:    dec("42.42"),
	}

	first := Calculate(in)
	second := Calculate(in)

	if first.NetWeight.String() != second.NetWeight.String() ||
		first.TotalAmount.String() != second.TotalAmount.String() ||
		first.FinalAmount.String() != second.FinalAmount.String() ||
		first.CurrentBalance.String() != second.CurrentBalance.String() ||
		first.WeightPerCage.String() != second.WeightPerCage.String() ||
		first.PricePerCage.String() != second.PricePerCage.String() {
		t.Fatalf("repeated calculation diverged: %+v vs %+v", first, second)
	}
}

func assertDecimal(t *testing.T, field string, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("%s: want %s, got %s", field, want, got)
	}
}
