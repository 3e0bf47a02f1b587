package service

import (
	"context"
	"errors"
	"fmt"

	"storebot/internal/domain"
	"storebot/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// maxInviterChain bounds the defensive walk over the inviter graph. The
// first-interaction rule already makes cycles impossible unless the store was
// edited externally.
const maxInviterChain = 64

// GetOrCreateUser resolves the chat identity to a user row, creating it on
// first interaction. A referral token on first sign-up links the inviter and
// pays the sign-up bonus. The second return value reports whether the user was
// just created.
func (e *Engine) GetOrCreateUser(ctx context.Context, tgID int64, username, refToken string) (*domain.User, bool, error) {
	user, err := e.users.GetByTgID(ctx, tgID)
	if err == nil {
		_ = e.users.UpdateLastSeen(ctx, user.ID, username)
		return user, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	user = &domain.User{TgID: tgID, Username: username}
	if err := e.users.Create(ctx, user); err != nil {
		// A concurrent first contact may have inserted the row between the
		// lookup and the insert; converge on whichever insert won.
		if repository.IsTgIDConflict(err) {
			existing, gerr := e.users.GetByTgID(ctx, tgID)
			if gerr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	e.log.Info("user created", "user_id", user.ID, "tg_id", tgID)

	if refToken != "" && refToken != user.ReferralCode {
		if err := e.attachReferral(ctx, user, refToken); err != nil {
			e.log.Warn("referral attach failed", "user_id", user.ID, "token", refToken, "error", err)
		}
	}
	return user, true, nil
}

// attachReferral links the inviter on first sign-up and pays the immediate
// sign-up bonus. Invalid or self-referencing tokens are ignored.
func (e *Engine) attachReferral(ctx context.Context, user *domain.User, token string) error {
	inviter, err := e.users.GetByReferralCode(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if inviter.ID == user.ID {
		return nil
	}
	if cyclic, err := e.inviterChainContains(ctx, inviter.ID, user.ID); err != nil || cyclic {
		return err
	}

	bonus, err := e.settings.PointsPerReferral(ctx)
	if err != nil {
		return err
	}

	return withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		linked, err := e.users.SetInviter(ctx, tx, user.ID, inviter.ID)
		if err != nil {
			return err
		}
		if !linked {
			return tx.Rollback(ctx)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET referral_count = referral_count + 1 WHERE id = $1`,
			inviter.ID,
		); err != nil {
			return err
		}
		if bonus > 0 {
			if err := e.creditReferral(ctx, tx, inviter.ID, bonus,
				fmt.Sprintf("Sign-up referral of user #%d", user.ID), uuid.New().String()); err != nil {
				return err
			}
		}

		user.InviterID = &inviter.ID
		return tx.Commit(ctx)
	})
}

// inviterChainContains walks up from startID looking for targetID.
func (e *Engine) inviterChainContains(ctx context.Context, startID, targetID int64) (bool, error) {
	current := startID
	for i := 0; i < maxInviterChain; i++ {
		u, err := e.users.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		if u.InviterID == nil {
			return false, nil
		}
		if *u.InviterID == targetID {
			return true, nil
		}
		current = *u.InviterID
	}
	return true, nil
}

// AdjustBalance applies a signed wallet delta for a user. Debits that would
// take the balance negative fail with ErrInsufficientFunds.
func (e *Engine) AdjustBalance(ctx context.Context, userID, delta int64) (newBalance int64, err error) {
	if delta == 0 {
		return 0, fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}
	err = withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		user, err := e.users.LockByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if user.Balance+delta < 0 {
			return ErrInsufficientFunds
		}
		if err := tx.QueryRow(ctx,
			`UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`,
			delta, userID,
		).Scan(&newBalance); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, err
	}

	e.log.Info("balance adjusted", "user_id", userID, "delta", delta, "balance", newBalance)
	return newBalance, nil
}

// AdjustPoints grants or debits points manually with a ledger entry.
func (e *Engine) AdjustPoints(ctx context.Context, userID, delta int64, description string) error {
	if delta == 0 {
		return fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		user, err := e.users.LockByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if delta < 0 && user.TotalPoints < -delta {
			return ErrInsufficientPoints
		}

		reason := domain.ReasonManualGrant
		if delta < 0 {
			reason = domain.ReasonManualDebit
		}
		entry := &domain.PointsEntry{
			UserID:      userID,
			Delta:       delta,
			Reason:      reason,
			Description: description,
			RefID:       uuid.New().String(),
		}
		if err := e.points.CreateWithTx(ctx, tx, entry); err != nil {
			return err
		}

		if delta > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE users SET total_points = total_points + $1,
					total_points_earned = total_points_earned + $1
				 WHERE id = $2`, delta, userID)
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE users SET total_points = total_points + $1,
					total_points_redeemed = total_points_redeemed + $2
				 WHERE id = $3`, delta, -delta, userID)
		}
		if err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return err
	}

	e.log.Info("points adjusted", "user_id", userID, "delta", delta)
	return nil
}

// SetVIPLevel pins a user to a tier manually, or releases the pin and
// recomputes the tier from lifetime spend.
func (e *Engine) SetVIPLevel(ctx context.Context, userID int64, level int, manual bool) error {
	return withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		user, err := e.users.LockByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		levels, err := e.vip.ListWithTx(ctx, tx)
		if err != nil {
			return err
		}

		var target *domain.VIPLevel
		if manual {
			for i := range levels {
				if levels[i].Level == level {
					target = &levels[i]
				}
			}
			if target == nil {
				return fmt.Errorf("%w: unknown vip level %d", ErrInvalidInput, level)
			}
		} else {
			target = HighestVIPLevel(levels, user.TotalSpent)
		}

		lvl, discount := 0, "0"
		if target != nil {
			lvl, discount = target.Level, target.DiscountPercent.String()
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET vip_level = $1, discount_percent = $2, manual_vip = $3 WHERE id = $4`,
			lvl, discount, manual, userID,
		); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

// SetBanned flips the ban flag; banned users are refused at the bot boundary.
func (e *Engine) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := e.users.SetBanned(ctx, userID, banned); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	e.log.Info("ban flag updated", "user_id", userID, "banned", banned)
	return nil
}
