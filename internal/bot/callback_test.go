package bot

import (
	"testing"

	"storebot/internal/domain"
)

func TestModTokenRoundTrip(t *testing.T) {
	cases := []struct {
		kind   domain.RequestKind
		action string
		id     int64
	}{
		{domain.KindTopup, ActionApprove, 1},
		{domain.KindTopup, ActionReject, 42},
		{domain.KindOrder, ActionApprove, 9000},
		{domain.KindOrder, ActionReject, 7},
		{domain.KindRedemption, ActionApprove, 123456789},
		{domain.KindRedemption, ActionReject, 3},
	}
	for _, tc := range cases {
		token := ModToken(tc.kind, tc.action, tc.id)
		if len(token) > 64 {
			t.Errorf("token %q exceeds the 64-byte callback data limit", token)
		}
		kind, action, id, ok := ParseModToken(token)
		if !ok {
			t.Fatalf("ParseModToken(%q) not ok", token)
		}
		if kind != tc.kind || action != tc.action || id != tc.id {
			t.Errorf("ParseModToken(%q) = (%s, %s, %d), want (%s, %s, %d)",
				token, kind, action, id, tc.kind, tc.action, tc.id)
		}
	}
}

func TestParseModTokenRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"mod",
		"mod:topup:approve",
		"mod:topup:approve:0",
		"mod:topup:approve:-5",
		"mod:topup:approve:abc",
		"mod:topup:settle:5",
		"mod:withdrawal:approve:5",
		"cat:5",
		"mod:topup:approve:5:extra",
	}
	for _, data := range bad {
		if _, _, _, ok := ParseModToken(data); ok {
			t.Errorf("ParseModToken(%q) accepted, want rejected", data)
		}
	}
}

func TestParseIDToken(t *testing.T) {
	if id, ok := parseIDToken("cat:17", "cat"); !ok || id != 17 {
		t.Errorf("parseIDToken(cat:17) = (%d, %v)", id, ok)
	}
	if _, ok := parseIDToken("cat:", "cat"); ok {
		t.Error("empty id accepted")
	}
	if _, ok := parseIDToken("prd:17", "cat"); ok {
		t.Error("wrong prefix accepted")
	}
}
