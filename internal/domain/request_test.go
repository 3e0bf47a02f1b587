package domain

import "testing"

func TestRequestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending reported as terminal")
	}
	for _, s := range []RequestStatus{StatusApproved, StatusRejected, StatusCompleted, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s not reported as terminal", s)
		}
	}
}

func TestPaymentMethodForeignDenominated(t *testing.T) {
	cases := []struct {
		method PaymentMethod
		want   bool
	}{
		{MethodCashA, false},
		{MethodCashB, false},
		{MethodCashUSD, true},
		{MethodUSDT, true},
	}
	for _, tc := range cases {
		if got := tc.method.ForeignDenominated(); got != tc.want {
			t.Errorf("%s.ForeignDenominated() = %v, want %v", tc.method, got, tc.want)
		}
	}
}
