package entity

import (
	"image"
	"time"
)

// SessionState состояние сессии обработки видео
type SessionState string

const (
	StateIdle    SessionState = "idle"    // источник не открыт
	StateOpened  SessionState = "opened"  // источник открыт, цикл не запускался
	StateRunning SessionState = "running" // цикл обработки работает
	StatePaused  SessionState = "paused"  // цикл остановлен командой pause
	StateStopped SessionState = "stopped" // цикл остановлен, можно перезапустить
	StateClosed  SessionState = "closed"  // сессия освобождена
)

// Пороги детекции по умолчанию
const (
	DefaultConfidenceThreshold float32 = 0.25
	DefaultIoUThreshold        float32 = 0.45
)

// Движки инференса
const (
	BackendONNX   = "onnx"
	BackendOpenCV = "opencv"
)

// ProcessingConfig параметры цикла обработки, передаются при запуске
type ProcessingConfig struct {
	CategoryFilter      CategoryFilter
	ConfidenceThreshold float32
	IoUThreshold        float32
}

// DefaultProcessingConfig возвращает параметры по умолчанию
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		CategoryFilter:      NewCategoryFilter(DefaultCategories...),
		ConfidenceThreshold: DefaultConfidenceThreshold,
		IoUThreshold:        DefaultIoUThreshold,
	}
}

// ProcessedFrame размеченный кадр с результатами детекции
type ProcessedFrame struct {
	Index      int64       // порядковый номер обработанного кадра в запуске
	Image      image.Image // размеченное изображение
	Detections []Detection // все детекции, включая не попавшие в фильтр
	At         time.Time
}

// EventKind тип события цикла обработки
type EventKind int

const (
	EventFrameProcessed EventKind = iota + 1
	EventError
)

// Event сообщение от цикла обработки потребителю
type Event struct {
	Kind  EventKind
	Frame ProcessedFrame // для EventFrameProcessed
	Err   error          // для EventError
}
