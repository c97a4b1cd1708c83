package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"voron-bot/internal/models"
	"voron-bot/internal/notify"
	"voron-bot/internal/payment"
	"voron-bot/internal/referral"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"gorm.io/gorm"
)

const (
	stateWaitingRequisites = "WAITING_REQUISITES"

	monthPrice = 255.0
)

type Bot struct {
	Instance   *telego.Bot
	DB         *gorm.DB
	Invoicer   *payment.Invoicer
	Ledger     *referral.Ledger
	Notifier   *notify.Service
	UserStates map[int64]string
	StatesMu   sync.RWMutex
	Username   string
}

func NewBot(instance *telego.Bot, db *gorm.DB, invoicer *payment.Invoicer, ledger *referral.Ledger, notifier *notify.Service, username string) *Bot {
	return &Bot{
		Instance:   instance,
		DB:         db,
		Invoicer:   invoicer,
		Ledger:     ledger,
		Notifier:   notifier,
		UserStates: make(map[int64]string),
		Username:   username,
	}
}

func mainMenuKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🚀 Купить VPN (255₽/мес)").WithCallbackData("buy_subscription"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🎁 Подарить другу").WithCallbackData("gift_subscription"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🤝 Партнерская программа").WithCallbackData("referral_menu"),
		),
	)
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// /start command
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		telegramID := message.From.ID

		// Parse arguments manually
		args := ""
		if parts := strings.Split(message.Text, " "); len(parts) > 1 {
			args = parts[1]
		}

		// Find or Create User
		var user models.User
		if err := b.DB.FirstOrCreate(&user, models.User{TelegramID: telegramID}).Error; err != nil {
			log.Printf("Failed to get/create user: %v", err)
		}

		// Generate Referral Code if missing
		if user.ReferralCode == "" {
			user.ReferralCode = fmt.Sprintf("ref_%d", telegramID)
			user.Username = message.From.Username
			if err := b.DB.Save(&user).Error; err != nil {
				log.Printf("Failed to update user referral code: %v", err)
			}
		}

		// Process Referral (only if new user or no referrer set)
		if args != "" && user.ReferrerID == nil && args != user.ReferralCode {
			var referrer models.User
			if err := b.DB.Where("referral_code = ?", args).First(&referrer).Error; err == nil {
				user.ReferrerID = &referrer.ID
				if err := b.DB.Save(&user).Error; err != nil {
					log.Printf("Failed to save referrer: %v", err)
				}
				log.Printf("User %d invited by %d", telegramID, referrer.TelegramID)
			}
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("Привет, %s! 👋\n\nЯ помогу тебе с VPN.", message.From.FirstName),
		).WithReplyMarkup(mainMenuKeyboard()))
		return nil
	}, th.CommandEqual("start"))

	// Callback for buying a subscription
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		var user models.User
		if err := b.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден. Нажмите /start."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		payURL, err := b.Invoicer.CreateInvoice(ctx.Context(), &user, 1, monthPrice, "Подписка VPN на 1 месяц", false)
		if err != nil {
			log.Printf("Failed to create subscription invoice for %d: %v", telegramID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка при создании счета. Попробуйте позже."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			fmt.Sprintf("💳 Счет на оплату VPN (1 месяц, %.0f₽):\n%s\n\nПосле оплаты подписка активируется автоматически.", monthPrice, payURL),
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("buy_subscription"))

	// Callback for gifting a subscription
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		var user models.User
		if err := b.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден. Нажмите /start."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		payURL, err := b.Invoicer.CreateInvoice(ctx.Context(), &user, 1, monthPrice, "Подарочная подписка VPN на 1 месяц", true)
		if err != nil {
			log.Printf("Failed to create gift invoice for %d: %v", telegramID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка при создании счета. Попробуйте позже."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			fmt.Sprintf("🎁 Счет на подарочную подписку (%.0f₽):\n%s\n\nПосле оплаты вы получите код, который друг активирует сам.", monthPrice, payURL),
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("gift_subscription"))

	// Callback for referral program menu
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		var user models.User
		if err := b.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден. Нажмите /start."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		stats, err := b.Ledger.Stats(ctx.Context(), user.ID)
		if err != nil {
			log.Printf("Failed to load referral stats for %d: %v", telegramID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		msg := fmt.Sprintf("🤝 *Партнерская программа*\n\n"+
			"👥 Приглашено: %d\n"+
			"💰 Заработано за все время: %d ₽\n"+
			"💳 Баланс: %d ₽\n\n"+
			"🔗 *Твоя ссылка:*\n`%s`\n\n"+
			"Вывод доступен от %d ₽.",
			stats.InvitedCount, stats.TotalEarned, stats.Balance,
			referral.Link(b.Username, &user), b.Ledger.MinimumPayout)

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("💸 Вывести средства").WithCallbackData("get_payout"),
			),
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("« Назад").WithCallbackData("start_back"),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), msg).WithParseMode(telego.ModeMarkdown).WithReplyMarkup(keyboard))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("referral_menu"))

	// Callback for payout request
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		var user models.User
		if err := b.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		if user.Balance < b.Ledger.MinimumPayout {
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID).
				WithText(fmt.Sprintf("Недостаточно средств! Вывод доступен от %d ₽", b.Ledger.MinimumPayout)))
			return nil
		}

		b.StatesMu.Lock()
		b.UserStates[telegramID] = stateWaitingRequisites
		b.StatesMu.Unlock()

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			"💸 Введите реквизиты для вывода (номер карты или кошелька):",
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("get_payout"))

	// Callback for Back to Start
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Привет! 👋\n\nЯ помогу тебе с VPN.",
		).WithReplyMarkup(mainMenuKeyboard()))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("start_back"))

	// Handle Text Input (for payout requisites)
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		telegramID := update.Message.From.ID
		text := strings.TrimSpace(update.Message.Text)

		b.StatesMu.RLock()
		state, ok := b.UserStates[telegramID]
		b.StatesMu.RUnlock()

		if !ok || state != stateWaitingRequisites {
			return nil // Pass to next handler if any
		}

		defer func() {
			b.StatesMu.Lock()
			delete(b.UserStates, telegramID)
			b.StatesMu.Unlock()
		}()

		if !referral.ValidRequisites(text) {
			log.Printf("Suspicious requisites input from user %d", telegramID)
			b.Notifier.NotifySuspiciousInput(ctx.Context(), telegramID, update.Message.From.Username, text)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Некорректные реквизиты. Попробуйте еще раз."))
			return nil
		}

		var user models.User
		if err := b.DB.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка: пользователь не найден."))
			return nil
		}

		payout, created, err := b.Ledger.RequestPayout(ctx.Context(), user.ID, text)
		if errors.Is(err, referral.ErrBelowMinimum) {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(telegramID),
				fmt.Sprintf("❌ Недостаточно средств. Вывод доступен от %d ₽.", b.Ledger.MinimumPayout),
			))
			return nil
		}
		if err != nil {
			log.Printf("Failed to create payout for user %d: %v", telegramID, err)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Ошибка при создании заявки. Попробуйте позже."))
			return nil
		}

		if !created {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(telegramID),
				fmt.Sprintf("ℹ️ Заявка на вывод #%d уже в обработке.", payout.ID),
			))
			return nil
		}

		// Fire-and-forget: the payout row is already committed.
		b.Notifier.NotifyNewPayout(ctx.Context(), telegramID, payout.ID, payout.Price, payout.Requisites, payout.CreatedAt, user.Username)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(telegramID),
			fmt.Sprintf("✅ Заявка на вывод #%d создана на сумму %d ₽.\nМы свяжемся с вами после обработки.", payout.ID, payout.Price),
		))
		return nil
	}, th.AnyMessageWithText())

	handler.Start()
}
