package bot

import (
	"fmt"
	"strconv"
	"strings"

	"storebot/internal/domain"
)

// Callback data formats. Telegram caps callback data at 64 bytes, so tokens
// are short colon-separated fields.
//
//	mod:<kind>:<approve|reject>:<id>   operator decision buttons
//	cat:<id>                           category selected
//	prd:<id>                           product selected
//	var:<id>                           variant selected
//	pay:<method>                       top-up payment method selected
//	confirm / cancel                   order confirmation
//	menu:<name>                        main menu navigation

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ModToken builds the callback data for an operator decision button.
func ModToken(kind domain.RequestKind, action string, id int64) string {
	return fmt.Sprintf("mod:%s:%s:%d", kind, action, id)
}

// ParseModToken decodes an operator decision token. ok is false for anything
// that is not a well-formed mod token.
func ParseModToken(data string) (kind domain.RequestKind, action string, id int64, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 || parts[0] != "mod" {
		return "", "", 0, false
	}
	switch domain.RequestKind(parts[1]) {
	case domain.KindTopup, domain.KindOrder, domain.KindRedemption:
		kind = domain.RequestKind(parts[1])
	default:
		return "", "", 0, false
	}
	if parts[2] != ActionApprove && parts[2] != ActionReject {
		return "", "", 0, false
	}
	n, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || n <= 0 {
		return "", "", 0, false
	}
	return kind, parts[2], n, true
}

func idToken(prefix string, id int64) string {
	return fmt.Sprintf("%s:%d", prefix, id)
}

// parseIDToken decodes "<prefix>:<id>" tokens used for catalog navigation.
func parseIDToken(data, prefix string) (int64, bool) {
	rest, found := strings.CutPrefix(data, prefix+":")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
