package port

import (
	"context"

	"texiv-detect/internal/domain/entity"
)

// SubscriberRepository интерфейс хранилища подписчиков
type SubscriberRepository interface {
	// Get возвращает подписчика по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error)

	// Save сохраняет подписчика
	Save(ctx context.Context, subscriber *entity.Subscriber) error

	// ListActive возвращает подписчиков с включёнными уведомлениями
	ListActive(ctx context.Context) ([]*entity.Subscriber, error)
}

// Notifier доставляет текстовые уведомления
type Notifier interface {
	Notify(ctx context.Context, text string)
}
