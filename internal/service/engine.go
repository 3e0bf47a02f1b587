package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storebot/internal/domain"
	"storebot/internal/logger"
	"storebot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Engine orchestrates pricing, wallet movements, ledger writes and request
// lifecycles for the three moderated flows. All wallet and points mutations
// for a user happen inside a single transaction that locks the user row first,
// so operations on the same user never interleave.
type Engine struct {
	db          *pgxpool.Pool
	users       *repository.UserRepository
	topups      *repository.TopupRepository
	orders      *repository.OrderRepository
	redemptions *repository.RedemptionRepository
	points      *repository.PointsRepository
	vip         *repository.VIPRepository
	catalog     *repository.CatalogRepository
	settings    *SettingsService
	log         *slog.Logger
}

func NewEngine(db *pgxpool.Pool, settings *SettingsService) *Engine {
	return &Engine{
		db:          db,
		users:       repository.NewUserRepository(db),
		topups:      repository.NewTopupRepository(db),
		orders:      repository.NewOrderRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		points:      repository.NewPointsRepository(db),
		vip:         repository.NewVIPRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		settings:    settings,
		log:         logger.With("component", "engine"),
	}
}

func (e *Engine) Users() *repository.UserRepository             { return e.users }
func (e *Engine) Topups() *repository.TopupRepository           { return e.topups }
func (e *Engine) Orders() *repository.OrderRepository           { return e.orders }
func (e *Engine) Redemptions() *repository.RedemptionRepository { return e.redemptions }
func (e *Engine) Points() *repository.PointsRepository          { return e.points }
func (e *Engine) Catalog() *repository.CatalogRepository        { return e.catalog }
func (e *Engine) VIP() *repository.VIPRepository                { return e.vip }
func (e *Engine) Settings() *SettingsService                    { return e.settings }

type TopupInput struct {
	UserID      int64
	Method      domain.PaymentMethod
	Amount      decimal.Decimal
	TxReference string
	ImageFileID string
}

// minCashReferenceLen is the shortest transaction reference the cash_a rail
// issues; anything shorter is a typo.
const minCashReferenceLen = 12

// CreateTopup records a pending top-up request. The wallet is untouched until
// an operator approves; the exchange rate in effect now is captured on the row.
func (e *Engine) CreateTopup(ctx context.Context, in TopupInput) (*domain.TopupRequest, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	switch in.Method {
	case domain.MethodCashA:
		if len(in.TxReference) < minCashReferenceLen {
			return nil, fmt.Errorf("%w: transaction reference must be at least %d characters", ErrInvalidInput, minCashReferenceLen)
		}
	case domain.MethodCashB, domain.MethodCashUSD:
		if in.TxReference == "" {
			return nil, fmt.Errorf("%w: transaction reference is required", ErrInvalidInput)
		}
	case domain.MethodUSDT:
		if in.ImageFileID == "" {
			return nil, fmt.Errorf("%w: payment screenshot is required", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, in.Method)
	}

	user, err := e.users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrForbidden
	}

	rate, err := e.settings.ExchangeRate(ctx)
	if err != nil {
		return nil, err
	}

	req := &domain.TopupRequest{
		UserID:        in.UserID,
		Method:        in.Method,
		AmountEntered: in.Amount,
		AmountLocal:   TopupLocalAmount(in.Method, in.Amount, rate),
		ExchangeRate:  rate,
		TxReference:   in.TxReference,
		ImageFileID:   in.ImageFileID,
	}
	if err := withRetry(ctx, func(ctx context.Context) error {
		return e.topups.Create(ctx, req)
	}); err != nil {
		return nil, err
	}

	e.log.Info("topup request created",
		"request_id", req.ID, "user_id", req.UserID,
		"method", req.Method, "amount_local", req.AmountLocal)
	return req, nil
}

type OrderInput struct {
	UserID        int64
	ProductID     int64
	VariantID     *int64
	Quantity      int
	TargetAccount string
}

// CreateOrder prices the order with the current rate and the user's cached VIP
// discount, verifies and debits the wallet, and writes the pending order row,
// all in one transaction. Points are only promised here; they are credited on
// completion.
func (e *Engine) CreateOrder(ctx context.Context, in OrderInput) (*domain.OrderRequest, error) {
	if in.TargetAccount == "" {
		return nil, fmt.Errorf("%w: target account is required", ErrInvalidInput)
	}

	product, err := e.catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: unknown product", ErrInvalidInput)
		}
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product is not available", ErrInvalidInput)
	}

	var variant *domain.Variant
	switch product.Kind {
	case domain.KindService:
		if in.Quantity < product.MinUnits {
			return nil, fmt.Errorf("%w: minimum quantity is %d", ErrInvalidInput, product.MinUnits)
		}
	case domain.KindGame, domain.KindSubscription:
		if in.VariantID == nil {
			return nil, fmt.Errorf("%w: a package must be selected", ErrInvalidInput)
		}
		variant, err = e.catalog.GetVariant(ctx, *in.VariantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: unknown package", ErrInvalidInput)
			}
			return nil, err
		}
		if variant.ProductID != product.ID || !variant.Active {
			return nil, fmt.Errorf("%w: unknown package", ErrInvalidInput)
		}
	}

	rate, err := e.settings.ExchangeRate(ctx)
	if err != nil {
		return nil, err
	}
	pointsPerOrder, err := e.settings.PointsPerOrder(ctx)
	if err != nil {
		return nil, err
	}

	var req *domain.OrderRequest
	err = withRetry(ctx, func(ctx context.Context) error {
		tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		user, err := e.users.LockByID(ctx, tx, in.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if user.Banned {
			return ErrForbidden
		}

		var quote Quote
		if variant != nil {
			quote = PriceVariant(variant.Price, product.ProfitPercent, user.DiscountPercent, rate)
		} else {
			quote = PriceService(product.UnitPrice, product.ProfitPercent, user.DiscountPercent, rate, in.Quantity)
		}

		if user.Balance < quote.TotalLocal {
			return ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance - $1, total_orders = total_orders + 1 WHERE id = $2`,
			quote.TotalLocal, user.ID,
		); err != nil {
			return err
		}

		req = &domain.OrderRequest{
			UserID:          user.ID,
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        in.Quantity,
			UnitPrice:       quote.UnitPrice,
			TotalLocal:      quote.TotalLocal,
			ExchangeRate:    rate,
			DiscountPercent: user.DiscountPercent,
			TargetAccount:   in.TargetAccount,
			PointsAward:     pointsPerOrder,
		}
		if variant != nil {
			req.VariantID = &variant.ID
			req.VariantName = variant.Name
			req.Quantity = variant.Quantity
			req.DurationDays = variant.DurationDays
		}
		if err := e.orders.CreateWithTx(ctx, tx, req); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order request created",
		"request_id", req.ID, "user_id", req.UserID,
		"product", req.ProductName, "total_local", req.TotalLocal)
	return req, nil
}

// CreateRedemption records a pending points redemption. Points stay on the
// user until approval, where sufficiency is re-checked under lock.
func (e *Engine) CreateRedemption(ctx context.Context, userID, points int64) (*domain.RedemptionRequest, error) {
	redemptionRate, err := e.settings.RedemptionRate(ctx)
	if err != nil {
		return nil, err
	}
	if points <= 0 || points%redemptionRate != 0 {
		return nil, fmt.Errorf("%w: points must be a positive multiple of %d", ErrInsufficientPoints, redemptionRate)
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrForbidden
	}
	if user.TotalPoints < points {
		return nil, fmt.Errorf("%w: you only have %d points", ErrInsufficientPoints, user.TotalPoints)
	}

	rate, err := e.settings.ExchangeRate(ctx)
	if err != nil {
		return nil, err
	}
	foreign, local := RedemptionAmounts(points, redemptionRate, rate)

	req := &domain.RedemptionRequest{
		UserID:        userID,
		Points:        points,
		AmountForeign: foreign,
		AmountLocal:   local,
		ExchangeRate:  rate,
	}
	if err := withRetry(ctx, func(ctx context.Context) error {
		return e.redemptions.Create(ctx, req)
	}); err != nil {
		return nil, err
	}

	e.log.Info("redemption request created",
		"request_id", req.ID, "user_id", req.UserID,
		"points", req.Points, "amount_local", req.AmountLocal)
	return req, nil
}
