package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VIPRepository struct {
	db *pgxpool.Pool
}

func NewVIPRepository(db *pgxpool.Pool) *VIPRepository {
	return &VIPRepository{db: db}
}

// List returns the tier table ordered by ascending threshold.
func (r *VIPRepository) List(ctx context.Context) ([]domain.VIPLevel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT level, name, spend_threshold, discount_percent, icon
		 FROM vip_levels ORDER BY spend_threshold ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVIPLevels(rows)
}

// ListWithTx is List inside an existing transaction, used by settlement.
func (r *VIPRepository) ListWithTx(ctx context.Context, tx pgx.Tx) ([]domain.VIPLevel, error) {
	rows, err := tx.Query(ctx,
		`SELECT level, name, spend_threshold, discount_percent, icon
		 FROM vip_levels ORDER BY spend_threshold ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVIPLevels(rows)
}

func (r *VIPRepository) Upsert(ctx context.Context, lvl *domain.VIPLevel) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO vip_levels (level, name, spend_threshold, discount_percent, icon)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (level) DO UPDATE SET
			name = EXCLUDED.name,
			spend_threshold = EXCLUDED.spend_threshold,
			discount_percent = EXCLUDED.discount_percent,
			icon = EXCLUDED.icon`,
		lvl.Level, lvl.Name, lvl.SpendThreshold, lvl.DiscountPercent, lvl.Icon)
	return err
}

func scanVIPLevels(rows pgx.Rows) ([]domain.VIPLevel, error) {
	var levels []domain.VIPLevel
	for rows.Next() {
		var l domain.VIPLevel
		if err := rows.Scan(&l.Level, &l.Name, &l.SpendThreshold, &l.DiscountPercent, &l.Icon); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}
