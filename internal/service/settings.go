package service

import (
	"context"
	"fmt"
	"strconv"

	"storebot/internal/domain"
	"storebot/internal/repository"

	"github.com/shopspring/decimal"
)

// Well-known setting keys.
const (
	KeyExchangeRate       = "exchange_rate"
	KeyRedemptionRate     = "redemption_rate"
	KeyPointsPerOrder     = "points_per_order"
	KeyPointsPerReferral  = "points_per_referral"
	KeyBotStatus          = "bot_status"
	KeyMaintenanceMessage = "maintenance_message"
	KeyCashANumber        = "cash_a_number"
	KeyCashBNumber        = "cash_b_number"
	KeyUSDTAddress        = "usdt_address"
)

const (
	BotStatusRunning = "running"
	BotStatusStopped = "stopped"
)

// Exchange-rate plausibility band for operator writes.
var (
	minExchangeRate = decimal.NewFromInt(1)
	maxExchangeRate = decimal.NewFromInt(10_000_000)
)

// SettingsService reads live tunables from the settings table. Values are
// never cached beyond a single operation; the rate in effect at request
// creation is persisted on the request row instead.
type SettingsService struct {
	repo *repository.SettingsRepository
}

func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) ExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	v, err := s.repo.Get(ctx, KeyExchangeRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read exchange rate: %w", err)
	}
	rate, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse exchange rate %q: %w", v, err)
	}
	return rate, nil
}

func (s *SettingsService) RedemptionRate(ctx context.Context) (int64, error) {
	return s.intSetting(ctx, KeyRedemptionRate)
}

func (s *SettingsService) PointsPerOrder(ctx context.Context) (int64, error) {
	return s.intSetting(ctx, KeyPointsPerOrder)
}

func (s *SettingsService) PointsPerReferral(ctx context.Context) (int64, error) {
	return s.intSetting(ctx, KeyPointsPerReferral)
}

func (s *SettingsService) BotRunning(ctx context.Context) (bool, error) {
	v, err := s.repo.Get(ctx, KeyBotStatus)
	if err != nil {
		return false, err
	}
	return v == BotStatusRunning, nil
}

func (s *SettingsService) MaintenanceMessage(ctx context.Context) string {
	v, err := s.repo.Get(ctx, KeyMaintenanceMessage)
	if err != nil || v == "" {
		return "The shop is temporarily unavailable. Please try again later."
	}
	return v
}

func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, key)
}

func (s *SettingsService) All(ctx context.Context) ([]domain.Setting, error) {
	return s.repo.All(ctx)
}

// Set validates and writes a setting. Only the moderation/dashboard surfaces
// call this.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := ValidateSetting(key, value); err != nil {
		return err
	}
	return s.repo.Set(ctx, key, value)
}

// ValidateSetting enforces per-key value rules.
func ValidateSetting(key, value string) error {
	switch key {
	case KeyExchangeRate:
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%w: exchange rate must be numeric", ErrInvalidInput)
		}
		if rate.LessThan(minExchangeRate) || rate.GreaterThan(maxExchangeRate) {
			return fmt.Errorf("%w: exchange rate out of range", ErrInvalidInput)
		}
	case KeyRedemptionRate:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: redemption rate must be a positive integer", ErrInvalidInput)
		}
	case KeyPointsPerOrder, KeyPointsPerReferral:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidInput, key)
		}
	case KeyBotStatus:
		if value != BotStatusRunning && value != BotStatusStopped {
			return fmt.Errorf("%w: bot_status must be running or stopped", ErrInvalidInput)
		}
	}
	return nil
}

func (s *SettingsService) intSetting(ctx context.Context, key string) (int64, error) {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, v, err)
	}
	return n, nil
}
