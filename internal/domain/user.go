package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                  int64           `db:"id" json:"id"`
	TgID                int64           `db:"tg_id" json:"tg_id"`
	Username            string          `db:"username" json:"username"`
	Balance             int64           `db:"balance" json:"balance"`
	TotalDeposits       int64           `db:"total_deposits" json:"total_deposits"`
	TotalOrders         int64           `db:"total_orders" json:"total_orders"`
	TotalSpent          int64           `db:"total_spent" json:"total_spent"`
	TotalPoints         int64           `db:"total_points" json:"total_points"`
	TotalPointsEarned   int64           `db:"total_points_earned" json:"total_points_earned"`
	TotalPointsRedeemed int64           `db:"total_points_redeemed" json:"total_points_redeemed"`
	ReferralCode        string          `db:"referral_code" json:"referral_code"`
	InviterID           *int64          `db:"inviter_id" json:"inviter_id,omitempty"`
	ReferralCount       int64           `db:"referral_count" json:"referral_count"`
	ReferralEarnings    int64           `db:"referral_earnings" json:"referral_earnings"`
	VIPLevel            int             `db:"vip_level" json:"vip_level"`
	DiscountPercent     decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	ManualVIP           bool            `db:"manual_vip" json:"manual_vip"`
	Banned              bool            `db:"banned" json:"banned"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	LastSeenAt          time.Time       `db:"last_seen_at" json:"last_seen_at"`
}

type VIPLevel struct {
	Level           int             `db:"level" json:"level"`
	Name            string          `db:"name" json:"name"`
	SpendThreshold  int64           `db:"spend_threshold" json:"spend_threshold"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	Icon            string          `db:"icon" json:"icon"`
}
