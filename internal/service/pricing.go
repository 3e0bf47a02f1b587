package service

import (
	"github.com/shopspring/decimal"

	"storebot/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Quote is a priced order line. UnitPrice is the per-unit foreign price after
// markup and VIP discount; TotalLocal is rounded half-even to whole local units.
type Quote struct {
	UnitPrice  decimal.Decimal
	TotalLocal int64
	Rate       decimal.Decimal
	Discount   decimal.Decimal
}

// PriceService prices quantity units of a service-kind product.
//
//	unit_foreign_list      = unit_price x (1 + profit/100)
//	unit_foreign_after_vip = unit_foreign_list x (1 - discount/100)
//	total_local            = quantity x unit_foreign_after_vip x rate
func PriceService(unitPrice, profitPercent, discountPercent, rate decimal.Decimal, quantity int) Quote {
	unit := applyMarkupAndDiscount(unitPrice, profitPercent, discountPercent)
	total := unit.Mul(decimal.NewFromInt(int64(quantity))).Mul(rate)
	return Quote{
		UnitPrice:  unit,
		TotalLocal: roundLocal(total),
		Rate:       rate,
		Discount:   discountPercent,
	}
}

// PriceVariant prices a game bundle or subscription variant. The variant price
// replaces unit_price x quantity; markup and discount still apply.
func PriceVariant(variantPrice, profitPercent, discountPercent, rate decimal.Decimal) Quote {
	unit := applyMarkupAndDiscount(variantPrice, profitPercent, discountPercent)
	return Quote{
		UnitPrice:  unit,
		TotalLocal: roundLocal(unit.Mul(rate)),
		Rate:       rate,
		Discount:   discountPercent,
	}
}

// RedemptionAmounts converts a points amount into wallet credit. Every
// redemptionRate points are worth 5 foreign-currency units.
func RedemptionAmounts(points, redemptionRate int64, rate decimal.Decimal) (foreign decimal.Decimal, local int64) {
	foreign = decimal.NewFromInt(points).
		Div(decimal.NewFromInt(redemptionRate)).
		Mul(decimal.NewFromInt(5)).
		Round(2)
	local = roundLocal(foreign.Mul(rate))
	return foreign, local
}

// TopupLocalAmount converts an entered top-up amount into whole local units,
// applying the captured rate for foreign-denominated methods.
func TopupLocalAmount(method domain.PaymentMethod, entered, rate decimal.Decimal) int64 {
	if method.ForeignDenominated() {
		return roundLocal(entered.Mul(rate))
	}
	return roundLocal(entered)
}

// HighestVIPLevel returns the highest tier whose threshold does not exceed
// totalSpent. Levels must be ordered by ascending threshold.
func HighestVIPLevel(levels []domain.VIPLevel, totalSpent int64) *domain.VIPLevel {
	var best *domain.VIPLevel
	for i := range levels {
		if levels[i].SpendThreshold <= totalSpent {
			best = &levels[i]
		}
	}
	return best
}

func applyMarkupAndDiscount(base, profitPercent, discountPercent decimal.Decimal) decimal.Decimal {
	list := base.Mul(hundred.Add(profitPercent)).Div(hundred)
	return list.Mul(hundred.Sub(discountPercent)).Div(hundred)
}

// roundLocal rounds to the nearest whole local-currency unit, banker's rounding.
func roundLocal(d decimal.Decimal) int64 {
	return d.RoundBank(0).IntPart()
}
