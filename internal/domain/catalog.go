package domain

import "github.com/shopspring/decimal"

type ProductKind string

const (
	KindService      ProductKind = "service"
	KindGame         ProductKind = "game"
	KindSubscription ProductKind = "subscription"
)

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	DisplayName string `db:"display_name" json:"display_name"`
	Icon        string `db:"icon" json:"icon"`
	SortOrder   int    `db:"sort_order" json:"sort_order"`
}

type Product struct {
	ID            int64           `db:"id" json:"id"`
	CategoryID    int64           `db:"category_id" json:"category_id"`
	Name          string          `db:"name" json:"name"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	MinUnits      int             `db:"min_units" json:"min_units"`
	ProfitPercent decimal.Decimal `db:"profit_percent" json:"profit_percent"`
	Kind          ProductKind     `db:"kind" json:"kind"`
	Active        bool            `db:"active" json:"active"`
}

// Variant is a fixed bundle (games) or fixed duration (subscriptions) of a product.
type Variant struct {
	ID           int64           `db:"id" json:"id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Quantity     int             `db:"quantity" json:"quantity"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	Price        decimal.Decimal `db:"price" json:"price"`
	SortOrder    int             `db:"sort_order" json:"sort_order"`
	Active       bool            `db:"active" json:"active"`
}
