package store

import (
	"context"
	stderrors "errors"
)

// StockAvailable is the stock status of a newly saved product
const StockAvailable = "available"

// Default settings keys, always present when settings are read
const (
	SettingShippingCost = "shipping_cost"
	SettingFeeRate      = "fee_rate"
	SettingProfitRate   = "profit_rate"
)

// ErrNotFound is returned when a product id does not exist
var ErrNotFound = stderrors.New("not found")

// Product is a persisted product record
type Product struct {
	ID                    string   `json:"id"`
	SourceURL             string   `json:"mercari_url"`
	TitleSource           string   `json:"title_jp"`
	TitleTranslated       string   `json:"title_en"`
	DescriptionSource     string   `json:"description_jp"`
	DescriptionTranslated string   `json:"description_en"`
	PriceSource           int      `json:"price_jpy"`
	PriceTarget           float64  `json:"price_usd"`
	ConditionSource       string   `json:"condition_mercari"`
	ConditionTargetID     int      `json:"condition_ebay_id"`
	CategoryID            string   `json:"category_id"`
	Images                []string `json:"images"`
	StockStatus           string   `json:"stock_status"`
	ProfitRate            float64  `json:"profit_rate"`
	ShippingCost          int      `json:"shipping_cost"`
	ExchangeRate          float64  `json:"exchange_rate"`
}

// ProductUpdate carries the fields editable after a save
type ProductUpdate struct {
	TitleTranslated string
	PriceTarget     float64
}

// ProductStore persists product records
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id string, update ProductUpdate) (*Product, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStore persists the flat settings map
type SettingsStore interface {
	// All returns every stored setting, with the default keys filled in
	All(ctx context.Context) (map[string]float64, error)

	// Upsert creates or overwrites each key in values
	Upsert(ctx context.Context, values map[string]float64) error
}

// DefaultSettings returns the keys guaranteed to exist
func DefaultSettings() map[string]float64 {
	return map[string]float64{
		SettingShippingCost: 0,
		SettingFeeRate:      0,
		SettingProfitRate:   0,
	}
}

// WithDefaults returns a copy of values with missing default keys set to zero
func WithDefaults(values map[string]float64) map[string]float64 {
	out := DefaultSettings()
	for k, v := range values {
		out[k] = v
	}
	return out
}
