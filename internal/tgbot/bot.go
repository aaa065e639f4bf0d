package tgbot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/notify"
)

const queueSize = 32

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot forwards gateway failures to a Telegram chat.
type Bot struct {
	bot    sender
	chatID int64
	log    *zap.Logger
	queue  chan notify.Notification
}

func NewBot(conf *config.Config, log *zap.Logger) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(conf.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	log.Info("Authorized on account", zap.String("username", bot.Self.UserName))
	return newBot(bot, conf.Telegram.ChatID, log), nil
}

func newBot(bot sender, chatID int64, log *zap.Logger) *Bot {
	return &Bot{
		bot:    bot,
		chatID: chatID,
		log:    log.Named("tgbot"),
		queue:  make(chan notify.Notification, queueSize),
	}
}

// Notify drops the notification when the queue is full.
func (b *Bot) Notify(n notify.Notification) {
	select {
	case b.queue <- n:
	default:
		b.log.Warn("Notification queue is full", zap.String("kind", n.Kind))
	}
}

func (b *Bot) Run(ctx context.Context) {
	for {
		select {
		case n := <-b.queue:
			if err := b.send(n); err != nil {
				b.log.Error("Failed to send notification", zap.Error(err), zap.String("kind", n.Kind))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) send(n notify.Notification) error {
	text := fmt.Sprintf("[%s] %s\n%s", n.Kind, n.Message, n.At.Format("2006-01-02 15:04:05"))
	msg := tgbotapi.NewMessage(b.chatID, text)

	_, err := b.bot.Send(msg)
	return err
}
