package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storebot/internal/domain"
	"storebot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

func (b *Bot) sendWelcome(chatID int64, created bool) {
	greeting := "Welcome back!"
	if created {
		greeting = "Welcome to the shop!"
	}
	b.sendText(chatID, greeting+"\n\nTop up your wallet, order top-ups and subscriptions, and earn points with every purchase.")
	b.sendMainMenu(chatID)
}

func (b *Bot) sendMainMenu(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍 Shop", "menu:shop"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Top up", "menu:topup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "menu:profile"),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Redeem points", "menu:redeem"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send menu failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleStorefrontCallback(ctx context.Context, user *domain.User, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case data == "menu:main":
		b.answerCallback(cb.ID, "")
		b.sendMainMenu(chatID)

	case data == "menu:shop":
		b.answerCallback(cb.ID, "")
		b.showCategories(ctx, chatID)

	case data == "menu:topup":
		b.answerCallback(cb.ID, "")
		b.showPaymentMethods(chatID)

	case data == "menu:profile":
		b.answerCallback(cb.ID, "")
		b.showProfile(ctx, user, chatID)

	case data == "menu:redeem":
		b.answerCallback(cb.ID, "")
		b.startRedeem(ctx, user, chatID)

	case data == "cancel":
		b.answerCallback(cb.ID, "Cancelled")
		_ = b.states.Clear(ctx, user.TgID)
		b.sendMainMenu(chatID)

	case data == "confirm":
		b.answerCallback(cb.ID, "")
		b.confirmOrder(ctx, user, chatID)

	default:
		if id, ok := parseIDToken(data, "cat"); ok {
			b.answerCallback(cb.ID, "")
			b.showProducts(ctx, chatID, id)
			return
		}
		if id, ok := parseIDToken(data, "prd"); ok {
			b.answerCallback(cb.ID, "")
			b.selectProduct(ctx, user, chatID, id)
			return
		}
		if id, ok := parseIDToken(data, "var"); ok {
			b.answerCallback(cb.ID, "")
			b.selectVariant(ctx, user, chatID, id)
			return
		}
		if method, found := strings.CutPrefix(data, "pay:"); found {
			b.answerCallback(cb.ID, "")
			b.selectPaymentMethod(ctx, user, chatID, domain.PaymentMethod(method))
			return
		}
		b.answerCallback(cb.ID, "")
	}
}

func (b *Bot) showCategories(ctx context.Context, chatID int64) {
	cats, err := b.engine.Catalog().ListCategories(ctx)
	if err != nil {
		b.log.Error("list categories failed", "error", err)
		b.sendText(chatID, "Could not load the catalog, please try again.")
		return
	}
	if len(cats) == 0 {
		b.sendText(chatID, "The catalog is empty right now.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cats {
		label := strings.TrimSpace(c.Icon + " " + c.DisplayName)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, idToken("cat", c.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "menu:main")))

	msg := tgbotapi.NewMessage(chatID, "Choose a category:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send categories failed", "error", err)
	}
}

func (b *Bot) showProducts(ctx context.Context, chatID, categoryID int64) {
	products, err := b.engine.Catalog().ListProducts(ctx, categoryID, true)
	if err != nil {
		b.log.Error("list products failed", "category_id", categoryID, "error", err)
		b.sendText(chatID, "Could not load products, please try again.")
		return
	}
	if len(products) == 0 {
		b.sendText(chatID, "No products in this category yet.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Name, idToken("prd", p.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "menu:shop")))

	msg := tgbotapi.NewMessage(chatID, "Choose a product:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send products failed", "error", err)
	}
}

func (b *Bot) selectProduct(ctx context.Context, user *domain.User, chatID, productID int64) {
	product, err := b.engine.Catalog().GetProduct(ctx, productID)
	if err != nil || !product.Active {
		b.sendText(chatID, "This product is not available.")
		return
	}

	switch product.Kind {
	case domain.KindService:
		st := &DialogState{Step: StepOrderQuantity, ProductID: product.ID}
		if err := b.states.Set(ctx, user.TgID, st); err != nil {
			b.log.Error("save dialog state failed", "error", err)
			return
		}
		b.sendText(chatID, fmt.Sprintf("How many units of <b>%s</b>? (minimum %d)", product.Name, product.MinUnits))

	case domain.KindGame, domain.KindSubscription:
		variants, err := b.engine.Catalog().ListVariants(ctx, product.ID, true)
		if err != nil || len(variants) == 0 {
			b.sendText(chatID, "No packages available for this product.")
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, v := range variants {
			label := v.Name
			if v.Description != "" {
				label = v.Name + " — " + v.Description
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, idToken("var", v.ID))))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", idToken("cat", product.CategoryID))))

		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Choose a package for <b>%s</b>:", product.Name))
		msg.ParseMode = "HTML"
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send variants failed", "error", err)
		}
	}
}

func (b *Bot) selectVariant(ctx context.Context, user *domain.User, chatID, variantID int64) {
	variant, err := b.engine.Catalog().GetVariant(ctx, variantID)
	if err != nil || !variant.Active {
		b.sendText(chatID, "This package is not available.")
		return
	}
	st := &DialogState{Step: StepOrderTarget, ProductID: variant.ProductID, VariantID: variant.ID}
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.sendText(chatID, "Send the game ID or account the top-up should go to:")
}

func (b *Bot) showPaymentMethods(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cash A", "pay:"+string(domain.MethodCashA)),
			tgbotapi.NewInlineKeyboardButtonData("Cash B", "pay:"+string(domain.MethodCashB)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cash USD", "pay:"+string(domain.MethodCashUSD)),
			tgbotapi.NewInlineKeyboardButtonData("USDT (TRC20)", "pay:"+string(domain.MethodUSDT)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", "menu:main")),
	)
	msg := tgbotapi.NewMessage(chatID, "Choose a payment method:")
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send payment methods failed", "error", err)
	}
}

func (b *Bot) selectPaymentMethod(ctx context.Context, user *domain.User, chatID int64, method domain.PaymentMethod) {
	var instructions string
	switch method {
	case domain.MethodCashA:
		number, _ := b.engine.Settings().Get(ctx, service.KeyCashANumber)
		instructions = fmt.Sprintf("Transfer to Cash A account: <code>%s</code>", number)
	case domain.MethodCashB:
		number, _ := b.engine.Settings().Get(ctx, service.KeyCashBNumber)
		instructions = fmt.Sprintf("Transfer to Cash B account: <code>%s</code>", number)
	case domain.MethodCashUSD:
		instructions = "Transfer the USD amount via the cash USD rail."
	case domain.MethodUSDT:
		address, _ := b.engine.Settings().Get(ctx, service.KeyUSDTAddress)
		instructions = fmt.Sprintf("Send USDT (TRC20) to: <code>%s</code>", address)
	default:
		b.sendText(chatID, "Unknown payment method.")
		return
	}

	st := &DialogState{Step: StepTopupAmount, Method: string(method)}
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.sendText(chatID, instructions+"\n\nNow enter the amount you transferred:")
}

func (b *Bot) showProfile(ctx context.Context, user *domain.User, chatID int64) {
	// Re-read; the copy from the update handler may be stale.
	fresh, err := b.engine.Users().GetByID(ctx, user.ID)
	if err != nil {
		fresh = user
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.cfg.BotUsername, fresh.ReferralCode)
	b.sendText(chatID, fmt.Sprintf(`<b>👤 Your profile</b>

💰 Balance: %d
⭐️ Points: %d
🏅 VIP level: %d (%s%% discount)
🛒 Orders: %d
👥 Referrals: %d

Invite friends and earn points:
%s`,
		fresh.Balance, fresh.TotalPoints,
		fresh.VIPLevel, fresh.DiscountPercent.String(),
		fresh.TotalOrders, fresh.ReferralCount, link))
}

func (b *Bot) startRedeem(ctx context.Context, user *domain.User, chatID int64) {
	rate, err := b.engine.Settings().RedemptionRate(ctx)
	if err != nil {
		b.sendText(chatID, "Redemption is unavailable right now.")
		return
	}
	st := &DialogState{Step: StepRedeemPoints}
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.sendText(chatID, fmt.Sprintf("You have <b>%d</b> points. Every %d points convert to wallet credit.\n\nHow many points do you want to redeem? (multiple of %d)",
		user.TotalPoints, rate, rate))
}

// handleDialogInput routes plain messages according to the current dialog step.
func (b *Bot) handleDialogInput(ctx context.Context, user *domain.User, msg *tgbotapi.Message) {
	st, err := b.states.Get(ctx, user.TgID)
	if err != nil {
		b.log.Error("load dialog state failed", "error", err)
		return
	}

	switch st.Step {
	case StepTopupAmount:
		b.stepTopupAmount(ctx, user, msg, st)
	case StepTopupReference:
		b.stepTopupReference(ctx, user, msg, st)
	case StepTopupImage:
		b.stepTopupImage(ctx, user, msg, st)
	case StepOrderQuantity:
		b.stepOrderQuantity(ctx, user, msg, st)
	case StepOrderTarget:
		b.stepOrderTarget(ctx, user, msg, st)
	case StepRedeemPoints:
		b.stepRedeemPoints(ctx, user, msg)
	default:
		b.sendMainMenu(msg.Chat.ID)
	}
}

func (b *Bot) stepTopupAmount(ctx context.Context, user *domain.User, msg *tgbotapi.Message, st *DialogState) {
	amount, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || !amount.IsPositive() {
		b.sendText(msg.Chat.ID, "Please enter a positive number.")
		return
	}
	st.Amount = amount.String()

	if domain.PaymentMethod(st.Method) == domain.MethodUSDT {
		st.Step = StepTopupImage
		if err := b.states.Set(ctx, user.TgID, st); err != nil {
			b.log.Error("save dialog state failed", "error", err)
			return
		}
		b.sendText(msg.Chat.ID, "Now send a screenshot of the transfer:")
		return
	}

	st.Step = StepTopupReference
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.sendText(msg.Chat.ID, "Now send the transaction reference number:")
}

func (b *Bot) stepTopupReference(ctx context.Context, user *domain.User, msg *tgbotapi.Message, st *DialogState) {
	b.submitTopup(ctx, user, msg.Chat.ID, st, strings.TrimSpace(msg.Text), "")
}

func (b *Bot) stepTopupImage(ctx context.Context, user *domain.User, msg *tgbotapi.Message, st *DialogState) {
	if len(msg.Photo) == 0 {
		b.sendText(msg.Chat.ID, "Please send the transfer screenshot as a photo.")
		return
	}
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	b.submitTopup(ctx, user, msg.Chat.ID, st, "", fileID)
}

func (b *Bot) submitTopup(ctx context.Context, user *domain.User, chatID int64, st *DialogState, reference, fileID string) {
	amount, err := decimal.NewFromString(st.Amount)
	if err != nil {
		_ = b.states.Clear(ctx, user.TgID)
		b.sendText(chatID, "Something went wrong, please start over.")
		return
	}

	req, err := b.engine.CreateTopup(ctx, service.TopupInput{
		UserID:      user.ID,
		Method:      domain.PaymentMethod(st.Method),
		Amount:      amount,
		TxReference: reference,
		ImageFileID: fileID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			b.sendText(chatID, userFacing(err))
			return
		}
		b.log.Error("create topup failed", "user_id", user.ID, "error", err)
		b.sendText(chatID, "Could not submit your top-up, please try again.")
		return
	}

	_ = b.states.Clear(ctx, user.TgID)
	b.sendText(chatID, fmt.Sprintf("✅ Top-up request #%d submitted. You will be notified once it is reviewed.", req.ID))
	b.notifyTopup(ctx, user, req)
}

func (b *Bot) stepOrderQuantity(ctx context.Context, user *domain.User, msg *tgbotapi.Message, st *DialogState) {
	qty, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || qty <= 0 {
		b.sendText(msg.Chat.ID, "Please enter a whole number.")
		return
	}
	st.Quantity = qty
	st.Step = StepOrderTarget
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.sendText(msg.Chat.ID, "Send the game ID or account the top-up should go to:")
}

func (b *Bot) stepOrderTarget(ctx context.Context, user *domain.User, msg *tgbotapi.Message, st *DialogState) {
	target := strings.TrimSpace(msg.Text)
	if target == "" {
		b.sendText(msg.Chat.ID, "Please send the target account.")
		return
	}
	st.Target = target
	st.Step = StepOrderConfirm
	if err := b.states.Set(ctx, user.TgID, st); err != nil {
		b.log.Error("save dialog state failed", "error", err)
		return
	}
	b.showOrderSummary(ctx, user, msg.Chat.ID, st)
}

// showOrderSummary previews the price. The final amount is computed again at
// confirmation inside the order transaction.
func (b *Bot) showOrderSummary(ctx context.Context, user *domain.User, chatID int64, st *DialogState) {
	product, err := b.engine.Catalog().GetProduct(ctx, st.ProductID)
	if err != nil {
		b.sendText(chatID, "This product is no longer available.")
		return
	}
	rate, err := b.engine.Settings().ExchangeRate(ctx)
	if err != nil {
		b.sendText(chatID, "Could not compute the price, please try again.")
		return
	}

	var quote service.Quote
	line := product.Name
	if st.VariantID != 0 {
		variant, err := b.engine.Catalog().GetVariant(ctx, st.VariantID)
		if err != nil {
			b.sendText(chatID, "This package is no longer available.")
			return
		}
		quote = service.PriceVariant(variant.Price, product.ProfitPercent, user.DiscountPercent, rate)
		line = product.Name + " / " + variant.Name
	} else {
		quote = service.PriceService(product.UnitPrice, product.ProfitPercent, user.DiscountPercent, rate, st.Quantity)
		line = fmt.Sprintf("%s × %d", product.Name, st.Quantity)
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel"),
		),
	)
	text := fmt.Sprintf(`<b>Order summary</b>

%s
Target: <code>%s</code>
Total: <b>%d</b>`, line, st.Target, quote.TotalLocal)
	if user.DiscountPercent.IsPositive() {
		text += fmt.Sprintf("\nVIP discount applied: %s%%", user.DiscountPercent.String())
	}

	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = "HTML"
	m.ReplyMarkup = kb
	if _, err := b.api.Send(m); err != nil {
		b.log.Error("send order summary failed", "error", err)
	}
}

func (b *Bot) confirmOrder(ctx context.Context, user *domain.User, chatID int64) {
	st, err := b.states.Get(ctx, user.TgID)
	if err != nil || st.Step != StepOrderConfirm {
		b.sendText(chatID, "Nothing to confirm. Use the menu to start an order.")
		return
	}

	var variantID *int64
	if st.VariantID != 0 {
		variantID = &st.VariantID
	}
	req, err := b.engine.CreateOrder(ctx, service.OrderInput{
		UserID:        user.ID,
		ProductID:     st.ProductID,
		VariantID:     variantID,
		Quantity:      st.Quantity,
		TargetAccount: st.Target,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientFunds):
			b.sendText(chatID, "Your balance is not enough for this order. Top up first.")
		case errors.Is(err, service.ErrInvalidInput):
			b.sendText(chatID, userFacing(err))
		default:
			b.log.Error("create order failed", "user_id", user.ID, "error", err)
			b.sendText(chatID, "Could not place the order, please try again.")
		}
		return
	}

	_ = b.states.Clear(ctx, user.TgID)
	b.sendText(chatID, fmt.Sprintf("✅ Order #%d placed. <b>%d</b> was held from your balance; you will be notified once it is delivered.", req.ID, req.TotalLocal))
	b.notifyOrder(ctx, user, req)
}

func (b *Bot) stepRedeemPoints(ctx context.Context, user *domain.User, msg *tgbotapi.Message) {
	points, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil || points <= 0 {
		b.sendText(msg.Chat.ID, "Please enter a whole number of points.")
		return
	}

	req, err := b.engine.CreateRedemption(ctx, user.ID, points)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientPoints) {
			b.sendText(msg.Chat.ID, userFacing(err))
			return
		}
		b.log.Error("create redemption failed", "user_id", user.ID, "error", err)
		b.sendText(msg.Chat.ID, "Could not submit the redemption, please try again.")
		return
	}

	_ = b.states.Clear(ctx, user.TgID)
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Redemption request #%d submitted: %d points → %d wallet credit once approved.",
		req.ID, req.Points, req.AmountLocal))
	b.notifyRedemption(ctx, user, req)
}

// userFacing strips the sentinel prefix from validation errors so the chat
// message reads naturally.
func userFacing(err error) string {
	s := err.Error()
	for _, sentinel := range []string{
		service.ErrInvalidInput.Error() + ": ",
		service.ErrInsufficientPoints.Error() + ": ",
	} {
		if rest, found := strings.CutPrefix(s, sentinel); found {
			return strings.ToUpper(rest[:1]) + rest[1:]
		}
	}
	return "Invalid input."
}
