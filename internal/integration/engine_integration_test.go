package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"storebot/internal/domain"
	"storebot/internal/repository"
	"storebot/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Settlement tests against a real database. The migration seeds
// exchange_rate=25000, redemption_rate=500, points_per_order=1 and the default
// VIP ladder, which the expected numbers below rely on.

var tgIDSeq atomic.Int64

func init() {
	tgIDSeq.Store(time.Now().UnixNano())
}

func nextTgID() int64 {
	return tgIDSeq.Add(1)
}

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testEngine(t *testing.T) *service.Engine {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)

	settings := service.NewSettingsService(repository.NewSettingsRepository(db))
	return service.NewEngine(db, settings)
}

func newTestUser(t *testing.T, e *service.Engine) *domain.User {
	t.Helper()
	user, created, err := e.GetOrCreateUser(context.Background(), nextTgID(), "itest", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !created {
		t.Fatalf("user %d already existed", user.TgID)
	}
	return user
}

func fundWallet(t *testing.T, e *service.Engine, userID, amount int64) {
	t.Helper()
	if _, err := e.AdjustBalance(context.Background(), userID, amount); err != nil {
		t.Fatalf("fund wallet: %v", err)
	}
}

func newServiceProduct(t *testing.T, e *service.Engine) *domain.Product {
	t.Helper()
	ctx := context.Background()

	cat := &domain.Category{Name: fmt.Sprintf("itest-%d", nextTgID()), DisplayName: "Games"}
	if err := e.Catalog().CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	p := &domain.Product{
		CategoryID:    cat.ID,
		Name:          fmt.Sprintf("itest-product-%d", nextTgID()),
		UnitPrice:     decimal.RequireFromString("1.00"),
		MinUnits:      1,
		ProfitPercent: decimal.RequireFromString("10"),
		Kind:          domain.KindService,
		Active:        true,
	}
	if err := e.Catalog().CreateProduct(ctx, p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestApproveTopupCreditsExactlyOnce(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	user := newTestUser(t, e)

	req, err := e.CreateTopup(ctx, service.TopupInput{
		UserID:      user.ID,
		Method:      domain.MethodCashA,
		Amount:      decimal.NewFromInt(50000),
		TxReference: "123456789012",
	})
	if err != nil {
		t.Fatalf("create topup: %v", err)
	}
	if req.Status != domain.StatusPending || req.AmountLocal != 50000 {
		t.Fatalf("request = %s/%d, want pending/50000", req.Status, req.AmountLocal)
	}

	if _, err := e.ApproveTopup(ctx, req.ID, "itest"); err != nil {
		t.Fatalf("approve topup: %v", err)
	}

	after, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if after.Balance != 50000 || after.TotalDeposits != 50000 {
		t.Errorf("balance/deposits = %d/%d, want 50000/50000", after.Balance, after.TotalDeposits)
	}

	// Operator double click: no second credit.
	if _, err := e.ApproveTopup(ctx, req.ID, "itest again"); !errors.Is(err, service.ErrAlreadySettled) {
		t.Fatalf("second approve = %v, want ErrAlreadySettled", err)
	}
	again, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if again.Balance != 50000 || again.TotalDeposits != 50000 {
		t.Errorf("after double approve balance/deposits = %d/%d, want 50000/50000", again.Balance, again.TotalDeposits)
	}
}

func TestFailOrderRefundsExactlyOnce(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	user := newTestUser(t, e)
	fundWallet(t, e, user.ID, 50000)
	product := newServiceProduct(t, e)

	// 1.00 x 1.10 markup x 25000 = 27500
	order, err := e.CreateOrder(ctx, service.OrderInput{
		UserID:        user.ID,
		ProductID:     product.ID,
		Quantity:      1,
		TargetAccount: "player-42",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TotalLocal != 27500 {
		t.Fatalf("order total = %d, want 27500", order.TotalLocal)
	}

	debited, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if debited.Balance != 22500 || debited.TotalOrders != 1 {
		t.Fatalf("after create balance/orders = %d/%d, want 22500/1", debited.Balance, debited.TotalOrders)
	}

	if _, err := e.FailOrder(ctx, order.ID, "itest"); err != nil {
		t.Fatalf("fail order: %v", err)
	}
	refunded, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if refunded.Balance != 50000 || refunded.TotalOrders != 0 {
		t.Errorf("after fail balance/orders = %d/%d, want 50000/0", refunded.Balance, refunded.TotalOrders)
	}

	// No points for a failed order.
	total, earned, _, err := e.Points().SumByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("sum points: %v", err)
	}
	if total != 0 || earned != 0 {
		t.Errorf("points after fail = %d/%d, want 0/0", total, earned)
	}

	// No second refund.
	if _, err := e.FailOrder(ctx, order.ID, "itest again"); !errors.Is(err, service.ErrAlreadySettled) {
		t.Fatalf("second fail = %v, want ErrAlreadySettled", err)
	}
	again, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if again.Balance != 50000 {
		t.Errorf("after double fail balance = %d, want 50000", again.Balance)
	}
}

func TestCompleteOrderKeepsDebitAndPromotes(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	user := newTestUser(t, e)
	fundWallet(t, e, user.ID, 50000)
	product := newServiceProduct(t, e)

	order, err := e.CreateOrder(ctx, service.OrderInput{
		UserID:        user.ID,
		ProductID:     product.ID,
		Quantity:      1,
		TargetAccount: "player-42",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := e.CompleteOrder(ctx, order.ID, "itest"); err != nil {
		t.Fatalf("complete order: %v", err)
	}

	after, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	// The creation-time debit stands; spend and points advance.
	if after.Balance != 22500 {
		t.Errorf("balance = %d, want 22500", after.Balance)
	}
	if after.TotalSpent != 27500 {
		t.Errorf("total_spent = %d, want 27500", after.TotalSpent)
	}
	if after.TotalPoints != 1 || after.TotalPointsEarned != 1 {
		t.Errorf("points = %d/%d, want 1/1", after.TotalPoints, after.TotalPointsEarned)
	}
	// 27500 spent crosses the seeded Platinum threshold (10000, 5%).
	if after.VIPLevel != 4 {
		t.Errorf("vip_level = %d, want 4", after.VIPLevel)
	}

	entries, err := e.Points().ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	var orderEntries int
	for _, entry := range entries {
		if entry.Reason == domain.ReasonOrder {
			orderEntries++
			if entry.Delta != 1 {
				t.Errorf("order entry delta = %d, want 1", entry.Delta)
			}
		}
	}
	if orderEntries != 1 {
		t.Errorf("order point entries = %d, want 1", orderEntries)
	}

	if _, err := e.CompleteOrder(ctx, order.ID, "itest again"); !errors.Is(err, service.ErrAlreadySettled) {
		t.Fatalf("second complete = %v, want ErrAlreadySettled", err)
	}
}

func TestApproveRedemptionConservation(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	user := newTestUser(t, e)

	if err := e.AdjustPoints(ctx, user.ID, 1500, "itest grant"); err != nil {
		t.Fatalf("grant points: %v", err)
	}

	// 1000 points at redemption_rate 500 -> 10.00 foreign -> 250000 local.
	req, err := e.CreateRedemption(ctx, user.ID, 1000)
	if err != nil {
		t.Fatalf("create redemption: %v", err)
	}
	if req.AmountLocal != 250000 {
		t.Fatalf("amount_local = %d, want 250000", req.AmountLocal)
	}

	settled, err := e.ApproveRedemption(ctx, req.ID, "itest")
	if err != nil {
		t.Fatalf("approve redemption: %v", err)
	}
	if settled.Status != domain.StatusApproved {
		t.Fatalf("status = %s, want approved", settled.Status)
	}

	after, err := e.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if after.Balance != 250000 {
		t.Errorf("balance = %d, want 250000", after.Balance)
	}
	if after.TotalPoints != 500 || after.TotalPointsRedeemed != 1000 {
		t.Errorf("points/redeemed = %d/%d, want 500/1000", after.TotalPoints, after.TotalPointsRedeemed)
	}

	// Exactly one negative entry of the redeemed magnitude; the row cache
	// matches the ledger.
	entries, err := e.Points().ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("list points: %v", err)
	}
	var negatives int
	for _, entry := range entries {
		if entry.Delta < 0 {
			negatives++
			if entry.Delta != -1000 || entry.Reason != domain.ReasonRedemption {
				t.Errorf("negative entry = %d/%s, want -1000/redemption", entry.Delta, entry.Reason)
			}
		}
	}
	if negatives != 1 {
		t.Errorf("negative entries = %d, want 1", negatives)
	}
	total, earned, redeemed, err := e.Points().SumByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("sum points: %v", err)
	}
	if total != after.TotalPoints || earned != after.TotalPointsEarned || redeemed != after.TotalPointsRedeemed {
		t.Errorf("ledger sums %d/%d/%d disagree with row cache %d/%d/%d",
			total, earned, redeemed, after.TotalPoints, after.TotalPointsEarned, after.TotalPointsRedeemed)
	}

	if _, err := e.ApproveRedemption(ctx, req.ID, "itest again"); !errors.Is(err, service.ErrAlreadySettled) {
		t.Fatalf("second approve = %v, want ErrAlreadySettled", err)
	}
}

func TestGetOrCreateUserConvergesOnTgIDConflict(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	tgID := nextTgID()
	user, created, err := e.GetOrCreateUser(ctx, tgID, "first", "")
	if err != nil || !created {
		t.Fatalf("first contact = (%v, %v), want created", created, err)
	}

	// The insert a racing first contact would attempt.
	dup := &domain.User{TgID: tgID, Username: "second"}
	err = e.Users().Create(ctx, dup)
	if err == nil {
		t.Fatal("duplicate tg_id insert succeeded")
	}
	if !repository.IsTgIDConflict(err) {
		t.Fatalf("duplicate insert error = %v, want tg_id conflict", err)
	}

	again, created, err := e.GetOrCreateUser(ctx, tgID, "second", "")
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}
	if created || again.ID != user.ID {
		t.Errorf("second contact = (id %d, created %v), want (id %d, false)", again.ID, created, user.ID)
	}
}
