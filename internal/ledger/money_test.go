package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCommissionAndNetPayout(t *testing.T) {
	tests := []struct {
		gross      string
		rate       string
		commission string
		net        string
	}{
		{gross: "200.00", rate: "0.15", commission: "30", net: "170"},
		{gross: "0", rate: "0.15", commission: "0", net: "0"},
		{gross: "10.05", rate: "0.5", commission: "5.03", net: "5.02"},
		{gross: "99.99", rate: "0.125", commission: "12.5", net: "87.49"},
		{gross: "1234.56", rate: "1", commission: "1234.56", net: "0"},
		{gross: "1234.56", rate: "0", commission: "0", net: "1234.56"},
	}
	for _, tt := range tests {
		gross, rate := dec(tt.gross), dec(tt.rate)
		if got := Commission(gross, rate); !got.Equal(dec(tt.commission)) {
			t.Fatalf("Commission(%s, %s) = %s, want %s", tt.gross, tt.rate, got, tt.commission)
		}
		net := NetPayout(gross, rate)
		if !net.Equal(dec(tt.net)) {
			t.Fatalf("NetPayout(%s, %s) = %s, want %s", tt.gross, tt.rate, net, tt.net)
		}
		if !net.Add(Commission(gross, rate)).Equal(gross) {
			t.Fatalf("commission + net must equal gross for %s", tt.gross)
		}
	}
}

func TestNormalizeCommissionRate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "20", want: "0.2"},
		{input: "0.5", want: "0.5"},
		{input: "150", want: "1"},
		{input: "-5", want: "0"},
		{input: "1", want: "1"},
		{input: "100", want: "1"},
		{input: "0", want: "0"},
		{input: "12.5", want: "0.125"},
		{input: "12.345", want: "0.1235"},
		{input: "0.33333", want: "0.3333"},
	}
	for _, tt := range tests {
		got := NormalizeCommissionRate(dec(tt.input))
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("NormalizeCommissionRate(%s) = %s, want %s", tt.input, got, tt.want)
		}
		if err := ValidateRate(got); err != nil {
			t.Fatalf("normalized rate should validate: %v", err)
		}
	}
}

func TestEffectiveRate(t *testing.T) {
	if got := EffectiveRate(nil, DefaultCommissionRate); !got.Equal(dec("0.15")) {
		t.Fatalf("expected default rate, got %s", got)
	}
	custom := dec("0.2")
	if got := EffectiveRate(&custom, DefaultCommissionRate); !got.Equal(custom) {
		t.Fatalf("expected custom rate, got %s", got)
	}
}

func TestValidateRate(t *testing.T) {
	if err := ValidateRate(dec("1.01")); err == nil {
		t.Fatal("expected rate above 1 to fail")
	}
	if err := ValidateRate(dec("-0.01")); err == nil {
		t.Fatal("expected negative rate to fail")
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(dec("100.00"), 2); !got.Equal(dec("200")) {
		t.Fatalf("expected 200, got %s", got)
	}
	if got := LineTotal(dec("3.33"), 3); !got.Equal(dec("9.99")) {
		t.Fatalf("expected 9.99, got %s", got)
	}
}

func TestAccumulatorMatchesSinglePassCommission(t *testing.T) {
	rate := dec("0.15")
	amounts := []string{"10.01", "10.01", "10.01", "33.33", "0.07", "200.00"}

	acc := NewAccumulator(rate)
	gross := decimal.Zero
	for _, raw := range amounts {
		acc.Add(dec(raw))
		gross = gross.Add(dec(raw))
	}
	totals := acc.Totals()

	if totals.Count != len(amounts) {
		t.Fatalf("expected %d orders, got %d", len(amounts), totals.Count)
	}
	if !totals.Gross.Equal(gross) {
		t.Fatalf("gross drifted: %s vs %s", totals.Gross, gross)
	}
	if !totals.Commission.Equal(Commission(gross, rate)) {
		t.Fatalf("commission %s does not match round(G×r) %s", totals.Commission, Commission(gross, rate))
	}
	if !totals.Net.Equal(gross.Sub(totals.Commission)) {
		t.Fatalf("net %s must equal gross - commission", totals.Net)
	}

	split := NewAccumulator(rate)
	for i := len(amounts) - 1; i >= 0; i-- {
		split.Add(dec(amounts[i]))
	}
	if !split.Totals().Commission.Equal(totals.Commission) {
		t.Fatalf("summation order changed commission")
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	totals := NewAccumulator(DefaultCommissionRate).Totals()
	if totals.Count != 0 || !totals.Gross.IsZero() || !totals.Commission.IsZero() || !totals.Net.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}
