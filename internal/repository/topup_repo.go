package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const topupColumns = `id, user_id, method, amount_entered, amount_local, exchange_rate,
	tx_reference, image_file_id, status, operator_note, notify_msg_id, created_at, updated_at`

type TopupRepository struct {
	db *pgxpool.Pool
}

func NewTopupRepository(db *pgxpool.Pool) *TopupRepository {
	return &TopupRepository{db: db}
}

func (r *TopupRepository) Create(ctx context.Context, t *domain.TopupRequest) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO topup_requests
			(user_id, method, amount_entered, amount_local, exchange_rate, tx_reference, image_file_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, status, created_at, updated_at`,
		t.UserID, t.Method, t.AmountEntered, t.AmountLocal, t.ExchangeRate, t.TxReference, t.ImageFileID,
	).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TopupRepository) GetByID(ctx context.Context, id int64) (*domain.TopupRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+topupColumns+` FROM topup_requests WHERE id = $1`, id)
	return scanTopup(row)
}

// LockByID locks the request row inside a settlement transaction.
func (r *TopupRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.TopupRequest, error) {
	row := tx.QueryRow(ctx, `SELECT `+topupColumns+` FROM topup_requests WHERE id = $1 FOR UPDATE`, id)
	return scanTopup(row)
}

// Settle moves the request into a terminal state. Caller has already verified
// the row is pending under lock.
func (r *TopupRepository) Settle(ctx context.Context, tx pgx.Tx, id int64, status domain.RequestStatus, note string) error {
	_, err := tx.Exec(ctx,
		`UPDATE topup_requests SET status = $2, operator_note = $3, updated_at = NOW() WHERE id = $1`,
		id, status, note)
	return err
}

func (r *TopupRepository) SetNotifyMsgID(ctx context.Context, id int64, msgID int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE topup_requests SET notify_msg_id = $2 WHERE id = $1`, id, msgID)
	return err
}

func (r *TopupRepository) ListPending(ctx context.Context) ([]domain.TopupRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+topupColumns+` FROM topup_requests WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTopups(rows)
}

func (r *TopupRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.TopupRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+topupColumns+` FROM topup_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTopups(rows)
}

func scanTopup(row pgx.Row) (*domain.TopupRequest, error) {
	var t domain.TopupRequest
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Method, &t.AmountEntered, &t.AmountLocal, &t.ExchangeRate,
		&t.TxReference, &t.ImageFileID, &t.Status, &t.OperatorNote, &t.NotifyMsgID,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTopups(rows pgx.Rows) ([]domain.TopupRequest, error) {
	var reqs []domain.TopupRequest
	for rows.Next() {
		t, err := scanTopup(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *t)
	}
	return reqs, rows.Err()
}
