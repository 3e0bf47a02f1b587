package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, tg_id, username, balance, total_deposits, total_orders, total_spent,
	total_points, total_points_earned, total_points_redeemed,
	referral_code, inviter_id, referral_count, referral_earnings,
	vip_level, discount_percent, manual_vip, banned, created_at, last_seen_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GenerateReferralCode returns a short random referral token.
func GenerateReferralCode() string {
	b := make([]byte, 4)
	rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

// Create inserts a new user row. Only a referral-code collision is retried;
// any other failure, including a duplicate tg_id from a concurrent first
// contact, is returned as is so the caller can re-fetch the existing row.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var err error
	for i := 0; i < 5; i++ {
		code := u.ReferralCode
		if code == "" {
			code = GenerateReferralCode()
		}
		err = r.db.QueryRow(ctx,
			`INSERT INTO users (tg_id, username, referral_code)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at, last_seen_at`,
			u.TgID, u.Username, code,
		).Scan(&u.ID, &u.CreatedAt, &u.LastSeenAt)
		if err == nil {
			u.ReferralCode = code
			return nil
		}
		if !isUniqueViolation(err, "users_referral_code_key") {
			return err
		}
		u.ReferralCode = ""
	}
	return err
}

// IsTgIDConflict reports whether the error is the unique violation raised when
// two first contacts from the same Telegram account race on insert.
func IsTgIDConflict(err error) bool {
	return isUniqueViolation(err, "users_tg_id_key")
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// LockByID locks the user row for the duration of the transaction and returns
// the current state. All balance and points mutations start here.
func (r *UserRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (r *UserRepository) UpdateLastSeen(ctx context.Context, id int64, username string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_seen_at = NOW(), username = $2 WHERE id = $1`,
		id, username)
	return err
}

func (r *UserRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET banned = $2 WHERE id = $1`, id, banned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetInviter links the inviter once; a second call is a no-op.
func (r *UserRepository) SetInviter(ctx context.Context, tx pgx.Tx, userID, inviterID int64) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET inviter_id = $2 WHERE id = $1 AND inviter_id IS NULL`,
		userID, inviterID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns users for the dashboard, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.TgID, &u.Username, &u.Balance,
		&u.TotalDeposits, &u.TotalOrders, &u.TotalSpent,
		&u.TotalPoints, &u.TotalPointsEarned, &u.TotalPointsRedeemed,
		&u.ReferralCode, &u.InviterID, &u.ReferralCount, &u.ReferralEarnings,
		&u.VIPLevel, &u.DiscountPercent, &u.ManualVIP, &u.Banned,
		&u.CreatedAt, &u.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &u, nil
}
