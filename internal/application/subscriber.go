package app

import (
	"context"
	"time"

	"github.com/samber/lo"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// SubscriberService управляет подписками чатов на уведомления
type SubscriberService struct {
	repo port.SubscriberRepository
	now  func() time.Time
}

func NewSubscriberService(repo port.SubscriberRepository) *SubscriberService {
	return &SubscriberService{repo: repo, now: time.Now}
}

func (s *SubscriberService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	sub.Activate(s.now())
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriberService) Unsubscribe(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	sub, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	sub.Deactivate()
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ActiveChats возвращает чаты подписчиков без повторов
func (s *SubscriberService) ActiveChats(ctx context.Context) ([]int64, error) {
	subs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	chats := lo.Map(subs, func(sub *entity.Subscriber, _ int) int64 {
		return sub.ChatID
	})
	return lo.Uniq(chats), nil
}
