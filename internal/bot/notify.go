package bot

import (
	"context"
	"fmt"

	"storebot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Review-chat cards. Each pending request is posted to the operators with
// approve/reject buttons; the message id is stored so the card can be edited
// after settlement. Posting is best effort and never fails the request.

func decisionKeyboard(kind domain.RequestKind, id int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", ModToken(kind, ActionApprove, id)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", ModToken(kind, ActionReject, id)),
		),
	)
}

func (b *Bot) notifyTopup(ctx context.Context, user *domain.User, req *domain.TopupRequest) {
	text := fmt.Sprintf(`💳 <b>Top-up request #%d</b>

👤 @%s (id %d)
Method: %s
Entered: %s
Credit: <b>%d</b> (rate %s)`,
		req.ID, user.Username, user.ID,
		req.Method, req.AmountEntered.String(),
		req.AmountLocal, req.ExchangeRate.String())
	if req.TxReference != "" {
		text += fmt.Sprintf("\nReference: <code>%s</code>", req.TxReference)
	}

	kb := decisionKeyboard(domain.KindTopup, req.ID)
	var sent tgbotapi.Message
	var err error

	if req.ImageFileID != "" {
		photo := tgbotapi.NewPhoto(b.cfg.TopupReviewChatID, tgbotapi.FileID(req.ImageFileID))
		photo.Caption = text
		photo.ParseMode = "HTML"
		photo.ReplyMarkup = kb
		sent, err = b.api.Send(photo)
	} else {
		msg := tgbotapi.NewMessage(b.cfg.TopupReviewChatID, text)
		msg.ParseMode = "HTML"
		msg.ReplyMarkup = kb
		sent, err = b.api.Send(msg)
	}
	if err != nil {
		b.log.Error("post topup review card failed", "request_id", req.ID, "error", err)
		return
	}
	if err := b.engine.Topups().SetNotifyMsgID(ctx, req.ID, sent.MessageID); err != nil {
		b.log.Error("store topup notify msg id failed", "request_id", req.ID, "error", err)
	}
}

func (b *Bot) notifyOrder(ctx context.Context, user *domain.User, req *domain.OrderRequest) {
	line := req.ProductName
	if req.VariantName != "" {
		line += " / " + req.VariantName
	} else {
		line += fmt.Sprintf(" × %d", req.Quantity)
	}

	text := fmt.Sprintf(`🛒 <b>Order #%d</b>

👤 @%s (id %d)
%s
Target: <code>%s</code>
Total: <b>%d</b> (rate %s)`,
		req.ID, user.Username, user.ID,
		line, req.TargetAccount,
		req.TotalLocal, req.ExchangeRate.String())
	if req.DiscountPercent.IsPositive() {
		text += fmt.Sprintf("\nVIP discount: %s%%", req.DiscountPercent.String())
	}

	msg := tgbotapi.NewMessage(b.cfg.OrderReviewChatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = decisionKeyboard(domain.KindOrder, req.ID)
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("post order review card failed", "request_id", req.ID, "error", err)
		return
	}
	if err := b.engine.Orders().SetNotifyMsgID(ctx, req.ID, sent.MessageID); err != nil {
		b.log.Error("store order notify msg id failed", "request_id", req.ID, "error", err)
	}
}

func (b *Bot) notifyRedemption(ctx context.Context, user *domain.User, req *domain.RedemptionRequest) {
	text := fmt.Sprintf(`🎁 <b>Redemption #%d</b>

👤 @%s (id %d)
Points: %d
Credit: <b>%d</b> (rate %s)`,
		req.ID, user.Username, user.ID,
		req.Points, req.AmountLocal, req.ExchangeRate.String())

	msg := tgbotapi.NewMessage(b.cfg.TopupReviewChatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = decisionKeyboard(domain.KindRedemption, req.ID)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("post redemption review card failed", "request_id", req.ID, "error", err)
	}
}

// NotifyUser sends a plain message to a user chat, best effort.
func (b *Bot) NotifyUser(tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = "HTML"
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("notify user failed", "tg_id", tgID, "error", err)
	}
}
