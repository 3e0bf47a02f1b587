package service

import (
	"context"
	"time"
)

// reportTZ is the civil timezone all daily buckets are computed in. Rows store
// UTC timestamps; reports group by the local calendar day.
const reportTZ = "Asia/Yangon"

// Totals is the all-time summary shown on the dashboard front page.
type Totals struct {
	Users             int64 `json:"users"`
	PendingTopups     int64 `json:"pending_topups"`
	PendingOrders     int64 `json:"pending_orders"`
	PendingRedemption int64 `json:"pending_redemptions"`
	DepositsLocal     int64 `json:"deposits_local"`
	SalesLocal        int64 `json:"sales_local"`
	RedeemedLocal     int64 `json:"redeemed_local"`
}

// DayRow is one civil-day bucket of activity.
type DayRow struct {
	Day            string `json:"day"`
	NewUsers       int64  `json:"new_users"`
	Topups         int64  `json:"topups"`
	DepositsLocal  int64  `json:"deposits_local"`
	Orders         int64  `json:"orders"`
	SalesLocal     int64  `json:"sales_local"`
	Redemptions    int64  `json:"redemptions"`
	RedeemedLocal  int64  `json:"redeemed_local"`
	PointsIssued   int64  `json:"points_issued"`
	PointsRedeemed int64  `json:"points_redeemed"`
}

// Totals aggregates the all-time counters in a single round trip.
func (e *Engine) Totals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := e.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM topup_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM order_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM redemption_requests WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount_local), 0) FROM topup_requests WHERE status = 'approved'),
			(SELECT COALESCE(SUM(total_local), 0) FROM order_requests WHERE status = 'completed'),
			(SELECT COALESCE(SUM(amount_local), 0) FROM redemption_requests WHERE status = 'approved')`,
	).Scan(&t.Users, &t.PendingTopups, &t.PendingOrders, &t.PendingRedemption,
		&t.DepositsLocal, &t.SalesLocal, &t.RedeemedLocal)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DailyReport buckets activity per civil day over the last N days. Settled
// volumes bucket by settlement time; sign-ups by creation time. Days with no
// activity are omitted.
func (e *Engine) DailyReport(ctx context.Context, days int) ([]DayRow, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	rows, err := e.db.Query(ctx, `
		WITH u AS (
			SELECT (created_at AT TIME ZONE $1)::date AS day, COUNT(*) AS n
			FROM users WHERE created_at >= $2
			GROUP BY 1
		), t AS (
			SELECT (updated_at AT TIME ZONE $1)::date AS day,
			       COUNT(*) AS n, SUM(amount_local) AS amt
			FROM topup_requests
			WHERE status = 'approved' AND updated_at >= $2
			GROUP BY 1
		), o AS (
			SELECT (updated_at AT TIME ZONE $1)::date AS day,
			       COUNT(*) AS n, SUM(total_local) AS amt
			FROM order_requests
			WHERE status = 'completed' AND updated_at >= $2
			GROUP BY 1
		), r AS (
			SELECT (updated_at AT TIME ZONE $1)::date AS day,
			       COUNT(*) AS n, SUM(amount_local) AS amt
			FROM redemption_requests
			WHERE status = 'approved' AND updated_at >= $2
			GROUP BY 1
		), p AS (
			SELECT (created_at AT TIME ZONE $1)::date AS day,
			       COALESCE(SUM(delta) FILTER (WHERE delta > 0), 0) AS issued,
			       COALESCE(ABS(SUM(delta) FILTER (WHERE delta < 0)), 0) AS redeemed
			FROM points_entries WHERE created_at >= $2
			GROUP BY 1
		)
		SELECT COALESCE(u.day, t.day, o.day, r.day, p.day) AS day,
		       COALESCE(u.n, 0),
		       COALESCE(t.n, 0), COALESCE(t.amt, 0),
		       COALESCE(o.n, 0), COALESCE(o.amt, 0),
		       COALESCE(r.n, 0), COALESCE(r.amt, 0),
		       COALESCE(p.issued, 0), COALESCE(p.redeemed, 0)
		FROM u
		FULL OUTER JOIN t ON t.day = u.day
		FULL OUTER JOIN o ON o.day = COALESCE(u.day, t.day)
		FULL OUTER JOIN r ON r.day = COALESCE(u.day, t.day, o.day)
		FULL OUTER JOIN p ON p.day = COALESCE(u.day, t.day, o.day, r.day)
		ORDER BY day DESC`,
		reportTZ, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayRow
	for rows.Next() {
		var row DayRow
		var day time.Time
		if err := rows.Scan(&day,
			&row.NewUsers,
			&row.Topups, &row.DepositsLocal,
			&row.Orders, &row.SalesLocal,
			&row.Redemptions, &row.RedeemedLocal,
			&row.PointsIssued, &row.PointsRedeemed); err != nil {
			return nil, err
		}
		row.Day = day.Format("2006-01-02")
		out = append(out, row)
	}
	return out, rows.Err()
}
