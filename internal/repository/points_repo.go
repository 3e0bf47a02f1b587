package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PointsRepository struct {
	db *pgxpool.Pool
}

func NewPointsRepository(db *pgxpool.Pool) *PointsRepository {
	return &PointsRepository{db: db}
}

// CreateWithTx appends an entry inside the transaction that updates the
// cached counters on the user row. Entries are never updated or deleted.
func (r *PointsRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.PointsEntry) error {
	return tx.QueryRow(ctx,
		`INSERT INTO points_entries (user_id, delta, reason, description, ref_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.UserID, e.Delta, e.Reason, e.Description, e.RefID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *PointsRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.PointsEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, delta, reason, description, ref_id, created_at
		 FROM points_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.PointsEntry
	for rows.Next() {
		var e domain.PointsEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &e.Description, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumByUser recomputes the ledger totals for a user. Used by consistency
// checks; the user row caches these values.
func (r *PointsRepository) SumByUser(ctx context.Context, userID int64) (total, earned, redeemed int64, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0),
		        COALESCE(SUM(delta) FILTER (WHERE delta > 0), 0),
		        COALESCE(ABS(SUM(delta) FILTER (WHERE delta < 0)), 0)
		 FROM points_entries WHERE user_id = $1`,
		userID).Scan(&total, &earned, &redeemed)
	return
}
