package service

import (
	"context"
	"errors"
	"fmt"

	"storebot/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Settlement operations. Each runs in a single transaction that locks the user
// row before any balance or points read, then locks the request row and
// re-checks that it is still pending. A non-pending request returns
// ErrAlreadySettled and leaves the database untouched, so concurrent operator
// clicks are safe.

// ApproveTopup credits the wallet with the amount captured at request time.
func (e *Engine) ApproveTopup(ctx context.Context, id int64, note string) (*domain.TopupRequest, error) {
	var settled *domain.TopupRequest
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.topups.GetByID(ctx, id)
		if err != nil {
			return requestErr(err)
		}
		if _, err := e.users.LockByID(ctx, tx, req.UserID); err != nil {
			return err
		}
		req, err = e.topups.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}

		if err := e.topups.Settle(ctx, tx, id, domain.StatusApproved, note); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1, total_deposits = total_deposits + $1 WHERE id = $2`,
			req.AmountLocal, req.UserID,
		); err != nil {
			return err
		}

		req.Status = domain.StatusApproved
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("topup approved", "request_id", id, "amount_local", settled.AmountLocal)
	return settled, nil
}

// RejectTopup closes the request with no wallet effect.
func (e *Engine) RejectTopup(ctx context.Context, id int64, note string) (*domain.TopupRequest, error) {
	var settled *domain.TopupRequest
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.topups.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}
		if err := e.topups.Settle(ctx, tx, id, domain.StatusRejected, note); err != nil {
			return err
		}

		req.Status = domain.StatusRejected
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("topup rejected", "request_id", id)
	return settled, nil
}

// CompleteOrder keeps the creation-time debit, credits the promised points,
// advances lifetime spend, recomputes the VIP tier, and credits the inviter's
// per-order referral bonus.
func (e *Engine) CompleteOrder(ctx context.Context, id int64, note string) (*domain.OrderRequest, error) {
	pointsPerReferral, err := e.settings.PointsPerReferral(ctx)
	if err != nil {
		return nil, err
	}

	var settled *domain.OrderRequest
	err = withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.orders.GetByID(ctx, id)
		if err != nil {
			return requestErr(err)
		}
		user, err := e.users.LockByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		req, err = e.orders.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}

		if err := e.orders.Settle(ctx, tx, id, domain.StatusCompleted, note); err != nil {
			return err
		}

		refID := uuid.New().String()
		if req.PointsAward > 0 {
			entry := &domain.PointsEntry{
				UserID:      user.ID,
				Delta:       req.PointsAward,
				Reason:      domain.ReasonOrder,
				Description: fmt.Sprintf("Order #%d completed", req.ID),
				RefID:       refID,
			}
			if err := e.points.CreateWithTx(ctx, tx, entry); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET total_spent = total_spent + $1,
				total_points = total_points + $2,
				total_points_earned = total_points_earned + $2
			 WHERE id = $3`,
			req.TotalLocal, req.PointsAward, user.ID,
		); err != nil {
			return err
		}

		if !user.ManualVIP {
			levels, err := e.vip.ListWithTx(ctx, tx)
			if err != nil {
				return err
			}
			if lvl := HighestVIPLevel(levels, user.TotalSpent+req.TotalLocal); lvl != nil {
				if _, err := tx.Exec(ctx,
					`UPDATE users SET vip_level = $1, discount_percent = $2 WHERE id = $3`,
					lvl.Level, lvl.DiscountPercent, user.ID,
				); err != nil {
					return err
				}
			}
		}

		if user.InviterID != nil && pointsPerReferral > 0 {
			if err := e.creditReferral(ctx, tx, *user.InviterID, pointsPerReferral,
				fmt.Sprintf("Referral bonus for order #%d", req.ID), refID); err != nil {
				return err
			}
		}

		req.Status = domain.StatusCompleted
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order completed", "request_id", id, "points_award", settled.PointsAward)
	return settled, nil
}

// FailOrder refunds the creation-time debit and reverses the order counter.
// No points are credited.
func (e *Engine) FailOrder(ctx context.Context, id int64, note string) (*domain.OrderRequest, error) {
	var settled *domain.OrderRequest
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.orders.GetByID(ctx, id)
		if err != nil {
			return requestErr(err)
		}
		if _, err := e.users.LockByID(ctx, tx, req.UserID); err != nil {
			return err
		}
		req, err = e.orders.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}

		if err := e.orders.Settle(ctx, tx, id, domain.StatusFailed, note); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1, total_orders = total_orders - 1 WHERE id = $2`,
			req.TotalLocal, req.UserID,
		); err != nil {
			return err
		}

		req.Status = domain.StatusFailed
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order failed", "request_id", id, "refund_local", settled.TotalLocal)
	return settled, nil
}

// ApproveRedemption debits the points and credits the wallet. Sufficiency is
// re-checked under the user lock; if the points are gone the request is
// auto-rejected instead. The returned request carries the final status.
func (e *Engine) ApproveRedemption(ctx context.Context, id int64, note string) (*domain.RedemptionRequest, error) {
	var settled *domain.RedemptionRequest
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.redemptions.GetByID(ctx, id)
		if err != nil {
			return requestErr(err)
		}
		user, err := e.users.LockByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		req, err = e.redemptions.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}

		if user.TotalPoints < req.Points {
			autoNote := "auto-rejected: insufficient points at approval"
			if err := e.redemptions.Settle(ctx, tx, id, domain.StatusRejected, autoNote); err != nil {
				return err
			}
			req.Status = domain.StatusRejected
			req.OperatorNote = autoNote
			settled = req
			return tx.Commit(ctx)
		}

		if err := e.redemptions.Settle(ctx, tx, id, domain.StatusApproved, note); err != nil {
			return err
		}
		entry := &domain.PointsEntry{
			UserID:      user.ID,
			Delta:       -req.Points,
			Reason:      domain.ReasonRedemption,
			Description: fmt.Sprintf("Redemption #%d approved", req.ID),
			RefID:       uuid.New().String(),
		}
		if err := e.points.CreateWithTx(ctx, tx, entry); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1,
				total_points = total_points - $2,
				total_points_redeemed = total_points_redeemed + $2
			 WHERE id = $3`,
			req.AmountLocal, req.Points, user.ID,
		); err != nil {
			return err
		}

		req.Status = domain.StatusApproved
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("redemption settled", "request_id", id, "status", settled.Status)
	return settled, nil
}

// RejectRedemption closes the request; points and wallet stay untouched.
func (e *Engine) RejectRedemption(ctx context.Context, id int64, note string) (*domain.RedemptionRequest, error) {
	var settled *domain.RedemptionRequest
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		req, err := e.redemptions.LockByID(ctx, tx, id)
		if err != nil {
			return requestErr(err)
		}
		if req.Status != domain.StatusPending {
			return ErrAlreadySettled
		}
		if err := e.redemptions.Settle(ctx, tx, id, domain.StatusRejected, note); err != nil {
			return err
		}

		req.Status = domain.StatusRejected
		req.OperatorNote = note
		settled = req
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("redemption rejected", "request_id", id)
	return settled, nil
}

// creditReferral appends a referral points entry for the inviter and updates
// their cached counters inside the caller's transaction. The inviter graph is
// a forest, so locking inviter rows along an edge cannot deadlock.
func (e *Engine) creditReferral(ctx context.Context, tx pgx.Tx, inviterID, points int64, description, refID string) error {
	if _, err := e.users.LockByID(ctx, tx, inviterID); err != nil {
		return err
	}
	entry := &domain.PointsEntry{
		UserID:      inviterID,
		Delta:       points,
		Reason:      domain.ReasonReferral,
		Description: description,
		RefID:       refID,
	}
	if err := e.points.CreateWithTx(ctx, tx, entry); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`UPDATE users SET total_points = total_points + $1,
			total_points_earned = total_points_earned + $1,
			referral_earnings = referral_earnings + $1
		 WHERE id = $2`,
		points, inviterID)
	return err
}

func requestErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
