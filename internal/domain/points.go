package domain

import "time"

type PointsReason string

const (
	ReasonOrder       PointsReason = "order"
	ReasonReferral    PointsReason = "referral"
	ReasonRedemption  PointsReason = "redemption"
	ReasonManualGrant PointsReason = "manual_grant"
	ReasonManualDebit PointsReason = "manual_debit"
)

// PointsEntry is an append-only record of a single points delta.
type PointsEntry struct {
	ID          int64        `db:"id" json:"id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Delta       int64        `db:"delta" json:"delta"`
	Reason      PointsReason `db:"reason" json:"reason"`
	Description string       `db:"description" json:"description"`
	RefID       string       `db:"ref_id" json:"ref_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

type Setting struct {
	Key         string `db:"key" json:"key"`
	Value       string `db:"value" json:"value"`
	Description string `db:"description" json:"description"`
}
