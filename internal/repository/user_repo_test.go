package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateReferralCode()
		if len(code) != 8 {
			t.Fatalf("code %q has length %d, want 8", code, len(code))
		}
		for _, c := range code {
			if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
				t.Fatalf("code %q contains unexpected character %q", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestIsTgIDConflict(t *testing.T) {
	tgConflict := &pgconn.PgError{Code: "23505", ConstraintName: "users_tg_id_key"}
	if !IsTgIDConflict(tgConflict) {
		t.Error("tg_id unique violation not recognized")
	}
	if !IsTgIDConflict(fmt.Errorf("create user: %w", tgConflict)) {
		t.Error("wrapped tg_id unique violation not recognized")
	}

	codeConflict := &pgconn.PgError{Code: "23505", ConstraintName: "users_referral_code_key"}
	if IsTgIDConflict(codeConflict) {
		t.Error("referral code collision misclassified as tg_id conflict")
	}
	if !isUniqueViolation(codeConflict, "users_referral_code_key") {
		t.Error("referral code collision not recognized for retry")
	}

	if IsTgIDConflict(errors.New("connection refused")) {
		t.Error("plain error misclassified")
	}
	if IsTgIDConflict(&pgconn.PgError{Code: "40001", ConstraintName: "users_tg_id_key"}) {
		t.Error("non-unique-violation code misclassified")
	}
}
