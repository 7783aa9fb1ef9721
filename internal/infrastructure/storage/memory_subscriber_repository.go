package storage

import (
	"context"
	"sort"
	"sync"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// MemorySubscriberRepository in-memory хранилище подписчиков
type MemorySubscriberRepository struct {
	mu          sync.RWMutex
	subscribers map[int64]*entity.Subscriber
}

// NewMemorySubscriberRepository создаёт новое in-memory хранилище
func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{
		subscribers: make(map[int64]*entity.Subscriber),
	}
}

// Get возвращает подписчика по ID, создаёт нового если не найден
func (r *MemorySubscriberRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.subscribers[userID]; exists {
		copied := *s
		return &copied, nil
	}

	s := entity.NewSubscriber(userID, chatID)
	r.subscribers[userID] = s
	copied := *s
	return &copied, nil
}

// Save сохраняет состояние подписчика
func (r *MemorySubscriberRepository) Save(ctx context.Context, subscriber *entity.Subscriber) error {
	copied := *subscriber

	r.mu.Lock()
	r.subscribers[subscriber.UserID] = &copied
	r.mu.Unlock()

	return nil
}

// ListActive возвращает активных подписчиков в порядке UserID
func (r *MemorySubscriberRepository) ListActive(ctx context.Context) ([]*entity.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*entity.Subscriber, 0, len(r.subscribers))
	for _, s := range r.subscribers {
		if s.Active {
			copied := *s
			active = append(active, &copied)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].UserID < active[j].UserID
	})

	return active, nil
}

// Проверка реализации интерфейса
var _ port.SubscriberRepository = (*MemorySubscriberRepository)(nil)
