package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"storebot/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceService(t *testing.T) {
	cases := []struct {
		name      string
		unitPrice string
		profit    string
		discount  string
		rate      string
		quantity  int
		wantLocal int64
	}{
		{"base markup", "1.00", "10", "0", "25000", 1, 27500},
		{"quantity scales", "1.00", "10", "0", "25000", 3, 82500},
		{"vip discount", "1.00", "10", "5", "25000", 1, 26125},
		{"no markup no discount", "2.50", "0", "0", "25000", 2, 125000},
		{"half rounds to even", "0.99", "15", "0", "25000", 1, 28462},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := PriceService(dec(tc.unitPrice), dec(tc.profit), dec(tc.discount), dec(tc.rate), tc.quantity)
			if q.TotalLocal != tc.wantLocal {
				t.Errorf("TotalLocal = %d, want %d", q.TotalLocal, tc.wantLocal)
			}
		})
	}
}

func TestPriceVariantIgnoresQuantityScaling(t *testing.T) {
	// A bundle variant has a single package price.
	q := PriceVariant(dec("9.99"), dec("10"), dec("0"), dec("25000"))
	want := int64(274725) // 9.99 * 1.10 * 25000
	if q.TotalLocal != want {
		t.Errorf("TotalLocal = %d, want %d", q.TotalLocal, want)
	}
}

func TestRoundLocalBankers(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"2.5", 2},
		{"3.5", 4},
		{"2.4", 2},
		{"2.6", 3},
		{"-2.5", -2},
	}
	for _, tc := range cases {
		if got := roundLocal(dec(tc.in)); got != tc.want {
			t.Errorf("roundLocal(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRedemptionAmounts(t *testing.T) {
	foreign, local := RedemptionAmounts(1000, 500, dec("25000"))
	if !foreign.Equal(dec("10.00")) {
		t.Errorf("foreign = %s, want 10.00", foreign)
	}
	if local != 250000 {
		t.Errorf("local = %d, want 250000", local)
	}

	// Minimum redeemable block.
	foreign, local = RedemptionAmounts(500, 500, dec("25000"))
	if !foreign.Equal(dec("5")) {
		t.Errorf("foreign = %s, want 5", foreign)
	}
	if local != 125000 {
		t.Errorf("local = %d, want 125000", local)
	}
}

func TestTopupLocalAmount(t *testing.T) {
	rate := dec("25000")

	if got := TopupLocalAmount(domain.MethodCashA, dec("10000"), rate); got != 10000 {
		t.Errorf("local method converted: got %d, want 10000", got)
	}
	if got := TopupLocalAmount(domain.MethodCashUSD, dec("2"), rate); got != 50000 {
		t.Errorf("foreign method not converted: got %d, want 50000", got)
	}
	if got := TopupLocalAmount(domain.MethodUSDT, dec("1.5"), rate); got != 37500 {
		t.Errorf("usdt: got %d, want 37500", got)
	}
}

func TestHighestVIPLevel(t *testing.T) {
	levels := []domain.VIPLevel{
		{Level: 0, SpendThreshold: 0, DiscountPercent: dec("0")},
		{Level: 1, SpendThreshold: 1000, DiscountPercent: dec("1")},
		{Level: 2, SpendThreshold: 2000, DiscountPercent: dec("2")},
	}

	cases := []struct {
		spent int64
		want  int
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{1999, 1},
		{2000, 2},
		{50000, 2},
	}
	for _, tc := range cases {
		lvl := HighestVIPLevel(levels, tc.spent)
		if lvl == nil {
			t.Fatalf("spent %d: nil level", tc.spent)
		}
		if lvl.Level != tc.want {
			t.Errorf("spent %d: level %d, want %d", tc.spent, lvl.Level, tc.want)
		}
	}

	if lvl := HighestVIPLevel(nil, 100); lvl != nil {
		t.Errorf("no levels: got %+v, want nil", lvl)
	}
}
