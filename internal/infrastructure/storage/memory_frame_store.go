package storage

import (
	"sync"

	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/domain/port"
)

// MemoryFrameStore хранит последний размеченный кадр в памяти
type MemoryFrameStore struct {
	mu     sync.RWMutex
	frame  entity.ProcessedFrame
	exists bool
}

// NewMemoryFrameStore создаёт пустое хранилище кадров
func NewMemoryFrameStore() *MemoryFrameStore {
	return &MemoryFrameStore{}
}

// Put заменяет сохранённый кадр
func (s *MemoryFrameStore) Put(frame entity.ProcessedFrame) {
	s.mu.Lock()
	s.frame = frame
	s.exists = true
	s.mu.Unlock()
}

// Latest возвращает последний кадр
func (s *MemoryFrameStore) Latest() (entity.ProcessedFrame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.exists
}

// Reset очищает хранилище
func (s *MemoryFrameStore) Reset() {
	s.mu.Lock()
	s.frame = entity.ProcessedFrame{}
	s.exists = false
	s.mu.Unlock()
}

var _ port.FrameStore = (*MemoryFrameStore)(nil)
