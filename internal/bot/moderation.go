package bot

import (
	"context"
	"errors"
	"fmt"

	"storebot/internal/domain"
	"storebot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleModeration settles a request from a review-chat button. Settlement is
// idempotent at the service layer, so a double click just reports the request
// as already handled.
func (b *Bot) handleModeration(ctx context.Context, cb *tgbotapi.CallbackQuery, kind domain.RequestKind, action string, id int64) {
	if !b.cfg.IsAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, "Not allowed")
		return
	}

	note := fmt.Sprintf("via review chat by %d", cb.From.ID)
	var (
		userID   int64
		userText string
		result   string
		err      error
	)

	switch kind {
	case domain.KindTopup:
		var req *domain.TopupRequest
		if action == ActionApprove {
			req, err = b.engine.ApproveTopup(ctx, id, note)
			if err == nil {
				result = "approved"
				userText = fmt.Sprintf("✅ Your top-up #%d was approved. <b>%d</b> was added to your balance.", req.ID, req.AmountLocal)
			}
		} else {
			req, err = b.engine.RejectTopup(ctx, id, note)
			if err == nil {
				result = "rejected"
				userText = fmt.Sprintf("❌ Your top-up #%d was rejected. Contact support if you believe this is a mistake.", req.ID)
			}
		}
		if req != nil {
			userID = req.UserID
		}

	case domain.KindOrder:
		var req *domain.OrderRequest
		if action == ActionApprove {
			req, err = b.engine.CompleteOrder(ctx, id, note)
			if err == nil {
				result = "completed"
				userText = fmt.Sprintf("✅ Your order #%d was delivered. Enjoy!", req.ID)
				if req.PointsAward > 0 {
					userText += fmt.Sprintf(" You earned %d points.", req.PointsAward)
				}
			}
		} else {
			req, err = b.engine.FailOrder(ctx, id, note)
			if err == nil {
				result = "failed, refunded"
				userText = fmt.Sprintf("❌ Your order #%d could not be delivered. <b>%d</b> was returned to your balance.", req.ID, req.TotalLocal)
			}
		}
		if req != nil {
			userID = req.UserID
		}

	case domain.KindRedemption:
		var req *domain.RedemptionRequest
		if action == ActionApprove {
			req, err = b.engine.ApproveRedemption(ctx, id, note)
			if err == nil {
				if req.Status == domain.StatusApproved {
					result = "approved"
					userText = fmt.Sprintf("✅ Your redemption #%d was approved. <b>%d</b> was added to your balance.", req.ID, req.AmountLocal)
				} else {
					result = "auto-rejected"
					userText = fmt.Sprintf("❌ Your redemption #%d was rejected: not enough points.", req.ID)
				}
			}
		} else {
			req, err = b.engine.RejectRedemption(ctx, id, note)
			if err == nil {
				result = "rejected"
				userText = fmt.Sprintf("❌ Your redemption #%d was rejected.", req.ID)
			}
		}
		if req != nil {
			userID = req.UserID
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySettled):
			b.answerCallback(cb.ID, "Already handled")
		case errors.Is(err, service.ErrNotFound):
			b.answerCallback(cb.ID, "Request not found")
		default:
			b.log.Error("settlement failed", "kind", kind, "request_id", id, "error", err)
			b.answerCallback(cb.ID, "Error, try again")
		}
		return
	}

	b.answerCallback(cb.ID, "Done: "+result)
	b.markCardSettled(cb, result)

	if user, err := b.engine.Users().GetByID(ctx, userID); err == nil {
		b.NotifyUser(user.TgID, userText)
	}
}

// markCardSettled appends the decision to the review card and drops its buttons.
func (b *Bot) markCardSettled(cb *tgbotapi.CallbackQuery, result string) {
	suffix := fmt.Sprintf("\n\n<b>— %s by @%s</b>", result, cb.From.UserName)

	if len(cb.Message.Photo) > 0 {
		edit := tgbotapi.NewEditMessageCaption(cb.Message.Chat.ID, cb.Message.MessageID, cb.Message.Caption+suffix)
		edit.ParseMode = "HTML"
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("edit review card caption failed", "error", err)
		}
		return
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, cb.Message.Text+suffix)
	edit.ParseMode = "HTML"
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit review card failed", "error", err)
	}
}
