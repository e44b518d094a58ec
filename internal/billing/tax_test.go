package billing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTaxTiers(t *testing.T) {
	cases := []struct {
		name  string
		kind  Kind
		price string
		want  string
	}{
		{"product zero price pays flat", KindProduct, "0", "200"},
		{"product at flat ceiling", KindProduct, "1000", "200"},
		{"product just above flat ceiling", KindProduct, "1000.01", "120.0012"},
		{"product at mid ceiling", KindProduct, "5000", "600"},
		{"product just above mid ceiling", KindProduct, "5000.01", "900.0018"},
		{"product mid tier", KindProduct, "2000", "240"},
		{"service at flat ceiling", KindService, "1000", "100"},
		{"service just above flat ceiling", KindService, "1000.01", "100.001"},
		{"service at mid ceiling", KindService, "8000", "800"},
		{"service just above mid ceiling", KindService, "8000.01", "1200.0015"},
		{"service top tier", KindService, "10000", "1500"},
		{"unknown kind is untaxed", Kind("bundle"), "2500", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTax(tc.kind, dec(tc.price))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("ComputeTax(%s, %s) = %s, want %s", tc.kind, tc.price, got, tc.want)
			}
		})
	}
}

func TestComputeTaxMatchesRateAboveBoundary(t *testing.T) {
	price := dec("1000.01")
	want := dec("0.12").Mul(price)
	if got := ComputeTax(KindProduct, price); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	price = dec("5000.01")
	want = dec("0.18").Mul(price)
	if got := ComputeTax(KindProduct, price); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
