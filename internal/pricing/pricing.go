package pricing

import (
	"math"

	"github.com/monoko6666/mercari-ebay/pkg/errors"
)

// Quote is the breakdown of a recommended selling price
type Quote struct {
	CostPrice    int `json:"cost_price"`
	ShippingCost int `json:"shipping_cost"`
	Fee          int `json:"fee"`
	Profit       int `json:"profit"`
	SellingPrice int `json:"selling_price"`
}

// Compute derives the selling price from sourcing cost, shipping and percentage rates.
// All rounding is half-to-even.
func Compute(costPrice, shippingCost int, feeRatePercent, profitRatePercent float64) (Quote, error) {
	if costPrice < 0 || shippingCost < 0 {
		return Quote{}, errors.NewValidation("pricing", "cost price and shipping cost must not be negative")
	}
	if !validRate(feeRatePercent) || !validRate(profitRatePercent) {
		return Quote{}, errors.NewValidation("pricing", "fee rate and profit rate must be finite and not negative")
	}

	totalCost := float64(costPrice + shippingCost)
	fee := totalCost * (feeRatePercent / 100)
	profit := totalCost * (profitRatePercent / 100)

	return Quote{
		CostPrice:    costPrice,
		ShippingCost: shippingCost,
		Fee:          roundToInt(fee),
		Profit:       roundToInt(profit),
		SellingPrice: roundToInt(totalCost + fee + profit),
	}, nil
}

func validRate(percent float64) bool {
	return percent >= 0 && !math.IsInf(percent, 0)
}

func roundToInt(v float64) int {
	return int(math.RoundToEven(v))
}
