package entity

import "time"

// Subscriber чат, получающий уведомления об ошибках обработки
type Subscriber struct {
	UserID       int64     // Telegram User ID
	ChatID       int64     // Telegram Chat ID
	Active       bool      // получает ли уведомления
	SubscribedAt time.Time // время последней подписки
}

// NewSubscriber создаёт неактивного подписчика
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		UserID: userID,
		ChatID: chatID,
	}
}

// Activate включает уведомления
func (s *Subscriber) Activate(at time.Time) {
	s.Active = true
	s.SubscribedAt = at
}

// Deactivate отключает уведомления
func (s *Subscriber) Deactivate() {
	s.Active = false
}
