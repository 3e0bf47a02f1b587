package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dialog steps. The bot is a state machine per chat; the current step decides
// how the next plain-text message is interpreted.
const (
	StepNone           = ""
	StepTopupAmount    = "topup_amount"
	StepTopupReference = "topup_reference"
	StepTopupImage     = "topup_image"
	StepOrderQuantity  = "order_quantity"
	StepOrderTarget    = "order_target"
	StepOrderConfirm   = "order_confirm"
	StepRedeemPoints   = "redeem_points"
)

// dialogTTL bounds abandoned dialogs; the draft silently expires.
const dialogTTL = 15 * time.Minute

// DialogState is the per-chat draft of an in-progress request.
type DialogState struct {
	Step      string `json:"step"`
	Method    string `json:"method,omitempty"`
	Amount    string `json:"amount,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	VariantID int64  `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	Target    string `json:"target,omitempty"`
}

// StateStore keeps dialog state in Redis so the bot survives restarts
// mid-conversation.
type StateStore struct {
	rdb *redis.Client
}

func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

func dialogKey(tgID int64) string {
	return fmt.Sprintf("dialog:%d", tgID)
}

// Get returns the dialog state for a chat, or an empty state if none exists.
func (s *StateStore) Get(ctx context.Context, tgID int64) (*DialogState, error) {
	raw, err := s.rdb.Get(ctx, dialogKey(tgID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &DialogState{}, nil
		}
		return nil, err
	}
	var st DialogState
	if err := json.Unmarshal(raw, &st); err != nil {
		return &DialogState{}, nil
	}
	return &st, nil
}

func (s *StateStore) Set(ctx context.Context, tgID int64, st *DialogState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, dialogKey(tgID), raw, dialogTTL).Err()
}

func (s *StateStore) Clear(ctx context.Context, tgID int64) error {
	return s.rdb.Del(ctx, dialogKey(tgID)).Err()
}
