package service

import (
	"errors"
	"testing"
)

func TestValidateSetting(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"valid rate", KeyExchangeRate, "25000", false},
		{"decimal rate", KeyExchangeRate, "25000.5", false},
		{"non-numeric rate", KeyExchangeRate, "abc", true},
		{"zero rate", KeyExchangeRate, "0", true},
		{"negative rate", KeyExchangeRate, "-5", true},
		{"absurd rate", KeyExchangeRate, "99999999999", true},
		{"valid redemption rate", KeyRedemptionRate, "500", false},
		{"zero redemption rate", KeyRedemptionRate, "0", true},
		{"points per order zero ok", KeyPointsPerOrder, "0", false},
		{"points per order negative", KeyPointsPerOrder, "-1", true},
		{"points per referral valid", KeyPointsPerReferral, "10", false},
		{"bot status running", KeyBotStatus, "running", false},
		{"bot status stopped", KeyBotStatus, "stopped", false},
		{"bot status junk", KeyBotStatus, "paused", true},
		{"free-form key", KeyCashANumber, "09-123456789", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSetting(tc.key, tc.value)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateSetting(%q, %q) = nil, want error", tc.key, tc.value)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateSetting(%q, %q) = %v, want nil", tc.key, tc.value, err)
			}
			if tc.wantErr && err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateSetting(%q, %q) error is not ErrInvalidInput: %v", tc.key, tc.value, err)
			}
		})
	}
}
