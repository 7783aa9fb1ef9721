package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	app "texiv-detect/internal/application"
	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

const (
	msgHelp = `👋 Привет! Я слежу за обработкой видео детектором объектов.

📋 Команды:
/load <путь> — загрузить ONNX модель
/open <путь> — открыть видео или папку с кадрами
/play — запустить обработку
/pause — поставить на паузу
/status — текущее состояние
/snapshot — последний размеченный кадр
/subscribe — получать уведомления об ошибках
/unsubscribe — отключить уведомления`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgPathRequired   = "📂 Укажите путь после команды, например /open /data/video.mp4"
	msgLoadingModel   = "⏳ Загружаю модель..."
	msgNoFrame        = "🖼 Обработанных кадров пока нет."
	msgSubscribed     = "🔔 Уведомления об ошибках включены."
	msgUnsubscribed   = "🔕 Уведомления об ошибках отключены."
	msgInternalError  = "⚠️ Внутренняя ошибка. Попробуйте позже."
)

// sender отправка сообщений в Telegram
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	commands    Commands
	subscribers *app.SubscriberService
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, commands Commands, subscribers *app.SubscriberService, notifyInterval time.Duration, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram bot authorized", zap.String("account", botAPI.Self.UserName))

	b := newBot(botAPI, commands, subscribers, notifyInterval, logger)
	b.api = botAPI
	return b, nil
}

func newBot(s sender, commands Commands, subscribers *app.SubscriberService, notifyInterval time.Duration, logger *zap.Logger) *Bot {
	return &Bot{
		sender:      s,
		commands:    commands,
		subscribers: subscribers,
		limiter:     rate.NewLimiter(rate.Every(notifyInterval), 1),
		logger:      logger,
	}
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// Notify рассылает уведомление подписчикам не чаще одного раза за интервал
func (b *Bot) Notify(ctx context.Context, text string) {
	if !b.limiter.Allow() {
		return
	}

	chats, err := b.subscribers.ActiveChats(ctx)
	if err != nil {
		b.logger.Error("list subscribers", zap.Error(err))
		return
	}
	for _, chatID := range chats {
		b.sendMessage(chatID, "⚠️ "+text)
	}
}

var _ port.Notifier = (*Bot)(nil)

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
		return
	}
	b.handleCommand(ctx, msg)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(chatID, msgHelp)

	case "load":
		if arg == "" {
			b.sendMessage(chatID, msgPathRequired)
			return
		}
		b.sendMessage(chatID, msgLoadingModel)
		b.reply(chatID, b.commands.LoadModel(ctx, arg))

	case "open":
		if arg == "" {
			b.sendMessage(chatID, msgPathRequired)
			return
		}
		b.reply(chatID, b.commands.OpenVideo(arg))

	case "play":
		b.reply(chatID, b.commands.Play())

	case "pause":
		b.reply(chatID, b.commands.Pause())

	case "status":
		b.sendMessage(chatID, formatStatus(b.commands.Status()))

	case "snapshot":
		b.sendSnapshot(chatID)

	case "subscribe":
		if _, err := b.subscribers.Subscribe(ctx, senderID(msg), chatID); err != nil {
			b.logger.Error("subscribe", zap.Error(err))
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, msgSubscribed)

	case "unsubscribe":
		if _, err := b.subscribers.Unsubscribe(ctx, senderID(msg), chatID); err != nil {
			b.logger.Error("unsubscribe", zap.Error(err))
			b.sendMessage(chatID, msgInternalError)
			return
		}
		b.sendMessage(chatID, msgUnsubscribed)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// reply отвечает текущим статусом или текстом ошибки
func (b *Bot) reply(chatID int64, err error) {
	if err != nil {
		b.sendMessage(chatID, describeError(err))
		return
	}
	b.sendMessage(chatID, "✅ "+b.commands.Status().Message)
}

func (b *Bot) sendSnapshot(chatID int64) {
	frame, ok := b.commands.LatestFrame()
	if !ok || frame.Image == nil {
		b.sendMessage(chatID, msgNoFrame)
		return
	}

	data, err := encodeJPEG(frame.Image)
	if err != nil {
		b.logger.Error("encode snapshot", zap.Error(err))
		b.sendMessage(chatID, msgInternalError)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "frame.jpg", Bytes: data})
	photo.Caption = formatDetections(frame)
	if _, err := b.sender.Send(photo); err != nil {
		b.logger.Error("send snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func describeError(err error) string {
	switch {
	case errors.Is(err, entity.ErrModelNotLoaded):
		return "🧠 Сначала загрузите модель: /load <путь>"
	case errors.Is(err, entity.ErrNoVideo):
		return "🎞 Сначала откройте видео: /open <путь>"
	case errors.Is(err, entity.ErrModelNotFound):
		return "❌ Файл модели не найден."
	default:
		return "❌ Ошибка: " + err.Error()
	}
}

func formatStatus(s entity.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ℹ️ %s\n", s.Message)
	fmt.Fprintf(&sb, "Состояние: %s\n", s.State)
	if s.ModelLoaded {
		fmt.Fprintf(&sb, "Модель: %s\n", s.ModelPath)
	} else {
		sb.WriteString("Модель: не загружена\n")
	}
	if s.VideoPath != "" {
		fmt.Fprintf(&sb, "Видео: %s\n", s.VideoPath)
	}
	fmt.Fprintf(&sb, "Кадров обработано: %d\n", s.FramesProcessed)
	fmt.Fprintf(&sb, "Ошибок: %d", s.Errors)
	if s.LastError != "" {
		fmt.Fprintf(&sb, "\nПоследняя ошибка: %s", s.LastError)
	}
	return sb.String()
}

func formatDetections(frame entity.ProcessedFrame) string {
	if len(frame.Detections) == 0 {
		return fmt.Sprintf("Кадр #%d: объекты не найдены", frame.Index)
	}
	labels := make([]string, 0, len(frame.Detections))
	for _, d := range frame.Detections {
		labels = append(labels, d.Label())
	}
	return fmt.Sprintf("Кадр #%d: %s", frame.Index, strings.Join(labels, ", "))
}
