package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the shared lifecycle of top-up, order and redemption requests.
// Every request starts pending and mutates exactly once on moderator decision.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
)

// Terminal reports whether the status ends the request lifecycle.
func (s RequestStatus) Terminal() bool {
	return s != StatusPending
}

type RequestKind string

const (
	KindTopup      RequestKind = "topup"
	KindOrder      RequestKind = "order"
	KindRedemption RequestKind = "redemption"
)

type PaymentMethod string

const (
	MethodCashA   PaymentMethod = "cash_a"
	MethodCashB   PaymentMethod = "cash_b"
	MethodCashUSD PaymentMethod = "cash_usd"
	MethodUSDT    PaymentMethod = "usdt_trc20"
)

// ForeignDenominated reports whether amounts for the method are entered in
// foreign currency and must be converted with the captured exchange rate.
func (m PaymentMethod) ForeignDenominated() bool {
	return m == MethodCashUSD || m == MethodUSDT
}

type TopupRequest struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Method        PaymentMethod   `db:"method" json:"method"`
	AmountEntered decimal.Decimal `db:"amount_entered" json:"amount_entered"`
	AmountLocal   int64           `db:"amount_local" json:"amount_local"`
	ExchangeRate  decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	TxReference   string          `db:"tx_reference" json:"tx_reference"`
	ImageFileID   string          `db:"image_file_id" json:"image_file_id"`
	Status        RequestStatus   `db:"status" json:"status"`
	OperatorNote  string          `db:"operator_note" json:"operator_note"`
	NotifyMsgID   int             `db:"notify_msg_id" json:"notify_msg_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type OrderRequest struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	ProductID       int64           `db:"product_id" json:"product_id"`
	ProductName     string          `db:"product_name" json:"product_name"`
	VariantID       *int64          `db:"variant_id" json:"variant_id,omitempty"`
	VariantName     string          `db:"variant_name" json:"variant_name"`
	Quantity        int             `db:"quantity" json:"quantity"`
	DurationDays    int             `db:"duration_days" json:"duration_days"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalLocal      int64           `db:"total_local" json:"total_local"`
	ExchangeRate    decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	TargetAccount   string          `db:"target_account" json:"target_account"`
	PointsAward     int64           `db:"points_award" json:"points_award"`
	Status          RequestStatus   `db:"status" json:"status"`
	OperatorNote    string          `db:"operator_note" json:"operator_note"`
	NotifyMsgID     int             `db:"notify_msg_id" json:"notify_msg_id"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type RedemptionRequest struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Points        int64           `db:"points" json:"points"`
	AmountForeign decimal.Decimal `db:"amount_foreign" json:"amount_foreign"`
	AmountLocal   int64           `db:"amount_local" json:"amount_local"`
	ExchangeRate  decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	Status        RequestStatus   `db:"status" json:"status"`
	OperatorNote  string          `db:"operator_note" json:"operator_note"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
