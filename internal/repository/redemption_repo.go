package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const redemptionColumns = `id, user_id, points, amount_foreign, amount_local, exchange_rate,
	status, operator_note, created_at, updated_at`

type RedemptionRepository struct {
	db *pgxpool.Pool
}

func NewRedemptionRepository(db *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, req *domain.RedemptionRequest) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO redemption_requests (user_id, points, amount_foreign, amount_local, exchange_rate)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, status, created_at, updated_at`,
		req.UserID, req.Points, req.AmountForeign, req.AmountLocal, req.ExchangeRate,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
}

func (r *RedemptionRepository) GetByID(ctx context.Context, id int64) (*domain.RedemptionRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+redemptionColumns+` FROM redemption_requests WHERE id = $1`, id)
	return scanRedemption(row)
}

func (r *RedemptionRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.RedemptionRequest, error) {
	row := tx.QueryRow(ctx, `SELECT `+redemptionColumns+` FROM redemption_requests WHERE id = $1 FOR UPDATE`, id)
	return scanRedemption(row)
}

func (r *RedemptionRepository) Settle(ctx context.Context, tx pgx.Tx, id int64, status domain.RequestStatus, note string) error {
	_, err := tx.Exec(ctx,
		`UPDATE redemption_requests SET status = $2, operator_note = $3, updated_at = NOW() WHERE id = $1`,
		id, status, note)
	return err
}

func (r *RedemptionRepository) ListPending(ctx context.Context) ([]domain.RedemptionRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+redemptionColumns+` FROM redemption_requests WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRedemptions(rows)
}

func (r *RedemptionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.RedemptionRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+redemptionColumns+` FROM redemption_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRedemptions(rows)
}

func scanRedemption(row pgx.Row) (*domain.RedemptionRequest, error) {
	var req domain.RedemptionRequest
	if err := row.Scan(
		&req.ID, &req.UserID, &req.Points, &req.AmountForeign, &req.AmountLocal,
		&req.ExchangeRate, &req.Status, &req.OperatorNote, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func scanRedemptions(rows pgx.Rows) ([]domain.RedemptionRequest, error) {
	var reqs []domain.RedemptionRequest
	for rows.Next() {
		req, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}
