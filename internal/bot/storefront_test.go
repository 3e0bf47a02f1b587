package bot

import (
	"errors"
	"fmt"
	"testing"

	"storebot/internal/service"
)

func TestUserFacing(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			"redemption multiple",
			fmt.Errorf("%w: points must be a positive multiple of 500", service.ErrInsufficientPoints),
			"Points must be a positive multiple of 500",
		},
		{
			"redemption balance",
			fmt.Errorf("%w: you only have 120 points", service.ErrInsufficientPoints),
			"You only have 120 points",
		},
		{
			"order quantity",
			fmt.Errorf("%w: minimum quantity is 3", service.ErrInvalidInput),
			"Minimum quantity is 3",
		},
		{
			"unrelated error stays generic",
			errors.New("connection reset"),
			"Invalid input.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := userFacing(tc.err); got != tc.want {
				t.Errorf("userFacing(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
