package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"voron-bot/internal/models"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Service sends internal notifications to the admin chat. Every send is
// best-effort: failures are logged and never propagate into the flows that
// trigger them.
type Service struct {
	Bot         *telego.Bot
	AdminChatID int64
}

func NewService(bot *telego.Bot, adminChatID int64) *Service {
	return &Service{
		Bot:         bot,
		AdminChatID: adminChatID,
	}
}

func (s *Service) send(ctx context.Context, text string) {
	if s.AdminChatID == 0 {
		return
	}
	if _, err := s.Bot.SendMessage(ctx, tu.Message(tu.ID(s.AdminChatID), text)); err != nil {
		log.Printf("Failed to send admin notification: %v", err)
	}
}

func (s *Service) NotifyPaymentReceived(ctx context.Context, telegramID int64, username string, amount float64, currency string, months int, provider models.PaymentProvider) {
	s.send(ctx, fmt.Sprintf(
		"💸 Новый платеж\n\nПользователь: @%s (%d)\nСумма: %.2f %s\nПериод: %d мес.\nПровайдер: %s",
		username, telegramID, amount, currency, months, provider,
	))
}

func (s *Service) NotifyNewPayout(ctx context.Context, telegramID int64, payoutID uint, price int64, requisites string, createdAt time.Time, username string) {
	s.send(ctx, fmt.Sprintf(
		"💰 Новая заявка на вывод #%d\n\nПользователь: @%s (%d)\nСумма: %d ₽\nРеквизиты: %s\nСоздана: %s",
		payoutID, username, telegramID, price, requisites, createdAt.Format("02.01.2006 15:04"),
	))
}

func (s *Service) NotifySuspiciousInput(ctx context.Context, telegramID int64, username, input string) {
	s.send(ctx, fmt.Sprintf(
		"⚠️ Подозрительный ввод реквизитов\n\nПользователь: @%s (%d)\nВвод: %q",
		username, telegramID, input,
	))
}
