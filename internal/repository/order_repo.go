package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, product_id, product_name, variant_id, variant_name,
	quantity, duration_days, unit_price, total_local, exchange_rate, discount_percent,
	target_account, points_award, status, operator_note, notify_msg_id, created_at, updated_at`

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithTx inserts the order row inside the transaction that debited the
// wallet, so the debit and the pending row commit together.
func (r *OrderRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, o *domain.OrderRequest) error {
	return tx.QueryRow(ctx,
		`INSERT INTO order_requests
			(user_id, product_id, product_name, variant_id, variant_name, quantity, duration_days,
			 unit_price, total_local, exchange_rate, discount_percent, target_account, points_award)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, status, created_at, updated_at`,
		o.UserID, o.ProductID, o.ProductName, o.VariantID, o.VariantName, o.Quantity, o.DurationDays,
		o.UnitPrice, o.TotalLocal, o.ExchangeRate, o.DiscountPercent, o.TargetAccount, o.PointsAward,
	).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.OrderRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM order_requests WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.OrderRequest, error) {
	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM order_requests WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

func (r *OrderRepository) Settle(ctx context.Context, tx pgx.Tx, id int64, status domain.RequestStatus, note string) error {
	_, err := tx.Exec(ctx,
		`UPDATE order_requests SET status = $2, operator_note = $3, updated_at = NOW() WHERE id = $1`,
		id, status, note)
	return err
}

func (r *OrderRepository) SetNotifyMsgID(ctx context.Context, id int64, msgID int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE order_requests SET notify_msg_id = $2 WHERE id = $1`, id, msgID)
	return err
}

func (r *OrderRepository) ListPending(ctx context.Context) ([]domain.OrderRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM order_requests WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.OrderRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM order_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrder(row pgx.Row) (*domain.OrderRequest, error) {
	var o domain.OrderRequest
	if err := row.Scan(
		&o.ID, &o.UserID, &o.ProductID, &o.ProductName, &o.VariantID, &o.VariantName,
		&o.Quantity, &o.DurationDays, &o.UnitPrice, &o.TotalLocal, &o.ExchangeRate,
		&o.DiscountPercent, &o.TargetAccount, &o.PointsAward, &o.Status, &o.OperatorNote,
		&o.NotifyMsgID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]domain.OrderRequest, error) {
	var orders []domain.OrderRequest
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
