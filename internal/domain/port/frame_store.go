package port

import "texiv-detect/internal/domain/entity"

// FrameStore хранит последний обработанный кадр
type FrameStore interface {
	// Put сохраняет кадр
	Put(frame entity.ProcessedFrame)

	// Latest возвращает последний кадр, если он есть
	Latest() (entity.ProcessedFrame, bool)

	// Reset удаляет сохранённый кадр
	Reset()
}
